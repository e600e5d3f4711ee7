// Package notify is the toast/snackbar surface of the cart view. Messages
// carry a key, never display text; the UI owns localization.
package notify

import (
	"context"
	"sync"
	"time"

	"cartview/internal/logger"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Key string

const (
	UserNotLoggedIn  Key = "user.not_logged_in"
	UserLookupFailed Key = "user.lookup_failed"

	CartLoadFailed     Key = "cart.load_failed"
	CartItemRemoved    Key = "cart.item_removed"
	CartRemoveFailed   Key = "cart.remove_failed"
	CartQuantityFailed Key = "cart.quantity_failed"
	CartEmpty          Key = "cart.empty"
)

type Message struct {
	Level Level     `json:"level"`
	Key   Key       `json:"key"`
	At    time.Time `json:"at"`
}

func Success(key Key) Message {
	return Message{Level: LevelSuccess, Key: key, At: time.Now()}
}

func Error(key Key) Message {
	return Message{Level: LevelError, Key: key, At: time.Now()}
}

// Notifier fires a transient message. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

type NotifierFunc func(ctx context.Context, msg Message)

func (f NotifierFunc) Notify(ctx context.Context, msg Message) { f(ctx, msg) }

// Discard drops every message.
var Discard Notifier = NotifierFunc(func(context.Context, Message) {})

// Queue buffers messages until the UI drains them. Past limit the oldest
// message is dropped.
type Queue struct {
	mu    sync.Mutex
	msgs  []Message
	limit int
}

func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = 20
	}
	return &Queue{limit: limit}
}

func (q *Queue) Notify(ctx context.Context, msg Message) {
	logger.FromCtx(ctx).Debug("notification queued",
		zap.String("level", string(msg.Level)),
		zap.String("key", string(msg.Key)),
	)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.msgs = append(q.msgs, msg)
	if over := len(q.msgs) - q.limit; over > 0 {
		q.msgs = append([]Message(nil), q.msgs[over:]...)
	}
}

// Drain returns the pending messages oldest first and empties the queue.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.msgs
	q.msgs = nil
	if out == nil {
		return []Message{}
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}
