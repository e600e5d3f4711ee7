package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("DrainEmpties", func(t *testing.T) {
		q := NewQueue(5)
		q.Notify(ctx, Success(CartItemRemoved))
		q.Notify(ctx, Error(CartRemoveFailed))

		msgs := q.Drain()

		assert.Len(t, msgs, 2)
		assert.Equal(t, CartItemRemoved, msgs[0].Key)
		assert.Equal(t, LevelSuccess, msgs[0].Level)
		assert.Equal(t, LevelError, msgs[1].Level)
		assert.Equal(t, 0, q.Len())
		assert.Empty(t, q.Drain())
		assert.NotNil(t, q.Drain())
	})

	t.Run("DropsOldestPastLimit", func(t *testing.T) {
		q := NewQueue(2)
		q.Notify(ctx, Error(CartLoadFailed))
		q.Notify(ctx, Error(CartRemoveFailed))
		q.Notify(ctx, Error(CartQuantityFailed))

		msgs := q.Drain()

		assert.Len(t, msgs, 2)
		assert.Equal(t, CartRemoveFailed, msgs[0].Key)
		assert.Equal(t, CartQuantityFailed, msgs[1].Key)
	})

	t.Run("DefaultLimit", func(t *testing.T) {
		assert.Equal(t, 20, NewQueue(0).limit)
	})
}

func TestNotifierFunc(t *testing.T) {
	var got []Key
	n := NotifierFunc(func(_ context.Context, m Message) { got = append(got, m.Key) })

	n.Notify(context.Background(), Error(CartEmpty))
	Discard.Notify(context.Background(), Error(CartEmpty))

	assert.Equal(t, []Key{CartEmpty}, got)
}
