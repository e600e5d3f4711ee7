// Package session owns one shopper's cart view: identity resolution, the cart
// store, the session's exchange rates and display preferences, and the
// reaction to cart changes made elsewhere.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cartview/internal/cart"
	"cartview/internal/currency"
	"cartview/internal/events"
	"cartview/internal/logger"
	"cartview/internal/notify"
	"cartview/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxReloadAttempts = 3

var (
	ErrNotAuthenticated = errors.New("user not logged in")
	ErrIdentity         = errors.New("failed to resolve user")
	ErrClosed           = errors.New("session closed")
)

// Deps are the collaborators every session shares.
type Deps struct {
	Identity user.Resolver
	Backend  cart.Backend
	Rates    currency.Provider
	Bus      *events.Bus
}

type Preferences struct {
	Language string `json:"language"`
	Currency string `json:"currency"`
}

// PreferencesFor derives display preferences from a UI language.
func PreferencesFor(language string) Preferences {
	if language == "" {
		language = "en"
	}
	return Preferences{Language: language, Currency: currency.ForLanguage(language)}
}

type Session struct {
	id      string
	email   string
	userID  string
	store   *cart.Store
	notices *notify.Queue

	mu     sync.RWMutex
	prefs  Preferences
	rates  currency.RateTable
	closed bool

	// lastUsed is unix nanos of the last request; attached counts live
	// websocket listeners, which keep the session from going idle.
	lastUsed atomic.Int64
	attached atomic.Int32

	stop context.CancelFunc
	quit chan struct{}
	// done closes when the cart watcher has exited.
	done chan struct{}
}

// Open resolves the shopper, then fetches the cart and the exchange rates
// concurrently. Rate failures are tolerated; a cart load failure leaves an
// empty cart and a queued notification.
func Open(ctx context.Context, deps Deps, email string, prefs Preferences) (*Session, error) {
	id := uuid.New().String()
	ctx = logger.WithSessionID(ctx, id)
	log := logger.FromCtx(ctx).With(zap.String("email", email))

	if email == "" {
		return nil, ErrNotAuthenticated
	}

	userID, err := deps.Identity.ResolveUserID(ctx, email)
	if err != nil {
		log.Warn("cart load skipped, identity unresolved", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrIdentity, err)
	}

	if prefs.Language == "" {
		prefs = PreferencesFor("")
	}
	if prefs.Currency == "" {
		prefs.Currency = currency.ForLanguage(prefs.Language)
	}

	s := &Session{
		id:      id,
		email:   email,
		userID:  userID,
		notices: notify.NewQueue(0),
		prefs:   prefs,
		rates:   currency.RateTable{},
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.Touch()

	var pub cart.Publisher
	if deps.Bus != nil {
		pub = deps.Bus
	}
	s.store = cart.NewStore(cart.StoreConfig{
		UserID:    userID,
		Origin:    id,
		Backend:   deps.Backend,
		Notifier:  s.notices,
		Publisher: pub,
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		table := currency.FetchBestEffort(ctx, deps.Rates)
		s.mu.Lock()
		s.rates = table
		s.mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		_ = s.store.Load(ctx)
	}()
	wg.Wait()

	watchCtx, stop := context.WithCancel(logger.WithSessionID(context.Background(), id))
	s.stop = stop
	if deps.Bus != nil {
		changes, cancel := deps.Bus.Subscribe()
		go s.watchCart(watchCtx, changes, cancel)
	} else {
		close(s.done)
	}

	log.Info("cart session opened", zap.String("user_id", userID), zap.Int("items", s.store.Len()))
	return s, nil
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }
func (s *Session) Email() string  { return s.email }

// Touch marks the session as used now.
func (s *Session) Touch() { s.lastUsed.Store(time.Now().UnixNano()) }

// Attach keeps the session alive until the returned func is called.
func (s *Session) Attach() (detach func()) {
	s.attached.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.attached.Add(-1)
			s.Touch()
		})
	}
}

// IdleFor reports how long the session has gone unused as of now. Attached
// sessions are never idle.
func (s *Session) IdleFor(now time.Time) time.Duration {
	if s.attached.Load() > 0 {
		return 0
	}
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

// Done closes when the session is closed.
func (s *Session) Done() <-chan struct{} { return s.quit }

func (s *Session) ctx(ctx context.Context) context.Context {
	return logger.WithSessionID(ctx, s.id)
}

// watchCart reloads when the shopper's cart changed somewhere other than
// this session: another tab, another device, another instance.
func (s *Session) watchCart(ctx context.Context, changes <-chan events.CartChanged, cancel func()) {
	defer close(s.done)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-changes:
			if !ok {
				return
			}
			if ev.UserID != s.userID || ev.Origin == s.id {
				continue
			}
			logger.FromCtx(ctx).Debug("cart changed elsewhere, reloading", zap.String("origin", ev.Origin))
			// A load overtaken by this session's own write never saw the
			// remote change applied; fetch again.
			for attempt := 0; attempt < maxReloadAttempts; attempt++ {
				if !errors.Is(s.store.Load(ctx), cart.ErrStaleLoad) {
					break
				}
			}
		}
	}
}

func (s *Session) Reload(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.store.Load(s.ctx(ctx))
}

func (s *Session) Remove(ctx context.Context, productID string) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.store.Remove(s.ctx(ctx), productID)
}

func (s *Session) ChangeQuantity(ctx context.Context, productID string, delta int) (int, error) {
	if s.isClosed() {
		return 0, ErrClosed
	}
	return s.store.SetQuantity(s.ctx(ctx), productID, delta)
}

func (s *Session) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

func (s *Session) SetPreferences(p Preferences) {
	if p.Language == "" {
		p.Language = "en"
	}
	if p.Currency == "" {
		p.Currency = currency.ForLanguage(p.Language)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
}

// WatchPreferences applies every value received on updates until the
// channel closes, ctx is done or the session closes.
func (s *Session) WatchPreferences(ctx context.Context, updates <-chan Preferences) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case p, ok := <-updates:
			if !ok {
				return
			}
			s.SetPreferences(p)
		}
	}
}

// Checkout gates "proceed to buy": an empty cart is refused with a
// notification, otherwise the base-currency total is handed to checkout.
func (s *Session) Checkout(ctx context.Context) (decimal.Decimal, error) {
	if s.isClosed() {
		return decimal.Zero, ErrClosed
	}
	items := s.store.Items()
	if len(items) == 0 {
		s.notices.Notify(s.ctx(ctx), notify.Error(notify.CartEmpty))
		return decimal.Zero, cart.ErrCartEmpty
	}
	return cart.Total(items), nil
}

// Close tears the view down. In-flight requests run to completion but their
// results are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.quit)
	s.mu.Unlock()

	s.store.Close()
	if s.stop != nil {
		s.stop()
	}
	<-s.done
	logger.L().Info("cart session closed", zap.String("session_id", s.id), zap.String("user_id", s.userID))
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
