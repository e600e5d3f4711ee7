package cart

import (
	"context"
	"fmt"
	"sync"

	"cartview/internal/events"
	"cartview/internal/logger"
	"cartview/internal/metrics"
	"cartview/internal/notify"

	"go.uber.org/zap"
)

// Publisher receives a signal after every acknowledged mutation.
type Publisher interface {
	Publish(ev events.CartChanged)
}

type StoreConfig struct {
	UserID string
	// Origin identifies the owning view in published events.
	Origin    string
	Backend   Backend
	Notifier  notify.Notifier
	Publisher Publisher
}

// Store mirrors one shopper's server cart. Local state changes only after the
// backend acknowledges a write; failed writes leave it untouched.
type Store struct {
	userID    string
	origin    string
	backend   Backend
	notifier  notify.Notifier
	publisher Publisher

	mu      sync.Mutex
	items   []Item
	states  map[string]MutationState
	loading bool
	gen     uint64
	closed  bool
}

func NewStore(cfg StoreConfig) *Store {
	n := cfg.Notifier
	if n == nil {
		n = notify.Discard
	}
	return &Store{
		userID:    cfg.UserID,
		origin:    cfg.Origin,
		backend:   cfg.Backend,
		notifier:  n,
		publisher: cfg.Publisher,
		items:     []Item{},
		states:    make(map[string]MutationState),
	}
}

func (s *Store) UserID() string { return s.userID }

// Snapshot is a consistent copy of the store.
type Snapshot struct {
	Items   []Item
	States  map[string]MutationState
	Loading bool
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make(map[string]MutationState, len(s.states))
	for id, st := range s.states {
		states[id] = st
	}
	return Snapshot{Items: cloneItems(s.items), States: states, Loading: s.loading}
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) State(productID string) MutationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[productID]; ok {
		return st
	}
	return Idle
}

// Close stops the store from applying any result that lands afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.loading = false
}

func (s *Store) log(ctx context.Context) *zap.Logger {
	return logger.FromCtx(ctx).With(zap.String("user_id", s.userID))
}

// Load replaces local state with the server cart. On failure prior state is
// kept and the shopper is notified. A load overtaken by a newer load or by an
// acknowledged write, or one finishing after Close, is discarded.
func (s *Store) Load(ctx context.Context) error {
	log := s.log(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.gen++
	gen := s.gen
	s.loading = true
	s.mu.Unlock()

	timer := metrics.Cart.LoadTimer()
	c, err := s.backend.GetCart(ctx, s.userID)
	timer.ObserveDuration()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		metrics.Cart.StaleDiscards.Inc()
		log.Debug("cart load landed after close, discarded")
		return ErrStoreClosed
	}
	if gen != s.gen {
		s.mu.Unlock()
		metrics.Cart.StaleDiscards.Inc()
		log.Debug("cart load superseded, discarded", zap.Uint64("generation", gen))
		return ErrStaleLoad
	}
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		metrics.Cart.LoadFailures.Inc()
		log.Error("failed to load cart", zap.Error(err))
		s.notifier.Notify(ctx, notify.Error(notify.CartLoadFailed))
		return fmt.Errorf("%w: %w", ErrFailedLoadCart, err)
	}

	raw := 0
	if c != nil {
		raw = len(c.Items)
		s.items = validItems(c.Items)
	} else {
		s.items = []Item{}
	}
	kept := len(s.items)
	s.mu.Unlock()

	if dropped := raw - kept; dropped > 0 {
		log.Info("dropped cart items without product", zap.Int("dropped", dropped))
	}
	log.Debug("cart loaded", zap.Int("items", kept))
	return nil
}

// Remove deletes productID's line on the server, then locally.
func (s *Store) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return ErrInvalidProductID
	}
	log := s.log(ctx).With(zap.String("product_id", productID))

	s.mu.Lock()
	if err := s.begin(productID); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if err := s.backend.RemoveItem(ctx, s.userID, productID); err != nil {
		s.fail(productID)
		log.Warn("failed to remove cart item", zap.Error(err))
		s.notifier.Notify(ctx, notify.Error(notify.CartRemoveFailed))
		return fmt.Errorf("%w: %w", ErrFailedRemoveCart, err)
	}

	applied := s.settle(productID, func() {
		kept := s.items[:0:0]
		for _, it := range s.items {
			if it.ProductID() != productID {
				kept = append(kept, it)
			}
		}
		s.items = kept
	})
	if !applied {
		return ErrStoreClosed
	}

	log.Info("cart item removed")
	s.notifier.Notify(ctx, notify.Success(notify.CartItemRemoved))
	s.broadcast()
	return nil
}

// MaxDelta bounds a single quantity change.
const MaxDelta = 1000

// SetQuantity moves productID's quantity by delta, never below one, and
// returns the resulting quantity.
func (s *Store) SetQuantity(ctx context.Context, productID string, delta int) (int, error) {
	if productID == "" {
		return 0, ErrInvalidProductID
	}
	if delta > MaxDelta || delta < -MaxDelta {
		return 0, ErrInvalidDelta
	}
	log := s.log(ctx).With(zap.String("product_id", productID), zap.Int("delta", delta))

	s.mu.Lock()
	current, ok := s.quantityOf(productID)
	if !ok {
		s.mu.Unlock()
		if s.isClosed() {
			return 0, ErrStoreClosed
		}
		return 0, ErrCartItemNotFound
	}
	next := ClampQuantity(current + delta)
	if next == current {
		s.mu.Unlock()
		return current, nil
	}
	if err := s.begin(productID); err != nil {
		s.mu.Unlock()
		return current, err
	}
	s.mu.Unlock()

	if err := s.backend.UpdateItemQuantity(ctx, s.userID, productID, next); err != nil {
		s.fail(productID)
		log.Warn("failed to update cart quantity", zap.Error(err))
		s.notifier.Notify(ctx, notify.Error(notify.CartQuantityFailed))
		return current, fmt.Errorf("%w: %w", ErrFailedUpdateCart, err)
	}

	applied := s.settle(productID, func() {
		for i := range s.items {
			if s.items[i].ProductID() == productID {
				s.items[i].Quantity = next
			}
		}
	})
	if !applied {
		return current, ErrStoreClosed
	}

	log.Info("cart quantity updated", zap.Int("quantity", next))
	s.broadcast()
	return next, nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// quantityOf must be called with mu held.
func (s *Store) quantityOf(productID string) (int, bool) {
	if s.closed {
		return 0, false
	}
	for _, it := range s.items {
		if it.ProductID() == productID {
			return it.Quantity, true
		}
	}
	return 0, false
}

// begin moves productID Idle -> Mutating. Must be called with mu held.
func (s *Store) begin(productID string) error {
	if s.closed {
		return ErrStoreClosed
	}
	if s.states[productID] == Mutating {
		metrics.Cart.DroppedDuplicates.Inc()
		return ErrMutationInFlight
	}
	s.transition(productID, Mutating)
	metrics.Cart.Mutations.Inc()
	return nil
}

// settle applies an acknowledged write and returns productID to Idle. Loads
// issued before the write predate it and must not land.
func (s *Store) settle(productID string, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		delete(s.states, productID)
		metrics.Cart.StaleDiscards.Inc()
		return false
	}
	apply()
	s.gen++
	s.loading = false
	s.transition(productID, Settled)
	s.transition(productID, Idle)
	return true
}

// fail returns productID to Idle without touching items.
func (s *Store) fail(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics.Cart.MutationFailures.Inc()
	s.transition(productID, Failed)
	s.transition(productID, Idle)
}

// transition must be called with mu held.
func (s *Store) transition(productID string, to MutationState) {
	logger.L().Debug("cart item state",
		zap.String("user_id", s.userID),
		zap.String("product_id", productID),
		zap.String("state", string(to)),
	)
	if to == Idle {
		delete(s.states, productID)
		return
	}
	s.states[productID] = to
}

func (s *Store) broadcast() {
	if s.publisher == nil {
		return
	}
	metrics.Cart.Broadcasts.Inc()
	s.publisher.Publish(events.CartChanged{UserID: s.userID, Origin: s.origin})
}
