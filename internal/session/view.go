package session

import (
	"cartview/internal/cart"
	"cartview/internal/currency"
	"cartview/internal/notify"
)

// Line is one rendered cart row. Amounts are in the display currency.
type Line struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	Image        string `json:"image,omitempty"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unitPrice"`
	ListPrice    string `json:"listPrice"`
	Discounted   bool   `json:"discounted"`
	LineTotal    string `json:"lineTotal"`
	State        string `json:"state"`
	CanDecrement bool   `json:"canDecrement"`
	MutationBusy bool   `json:"busy"`
}

type View struct {
	SessionID     string           `json:"sessionId"`
	Language      string           `json:"language"`
	Currency      string           `json:"currency"`
	Symbol        string           `json:"symbol"`
	Loading       bool             `json:"loading"`
	Empty         bool             `json:"empty"`
	Lines         []Line           `json:"lines"`
	Total         string           `json:"total"`
	Notifications []notify.Message `json:"notifications"`
}

// View renders the cart in the session's display currency and drains the
// pending notifications into it.
func (s *Session) View() View {
	snap := s.store.Snapshot()

	s.mu.RLock()
	prefs := s.prefs
	rates := s.rates
	s.mu.RUnlock()

	lines := make([]Line, 0, len(snap.Items))
	for _, it := range snap.Items {
		state := cart.Idle
		if st, ok := snap.States[it.ProductID()]; ok {
			state = st
		}
		lines = append(lines, Line{
			ProductID:    it.ProductID(),
			Name:         it.Product.DisplayName(),
			Image:        it.Product.Image,
			Quantity:     it.Quantity,
			UnitPrice:    currency.Format(currency.Convert(cart.EffectiveUnitPrice(it), prefs.Currency, rates)),
			ListPrice:    currency.Format(currency.Convert(cart.ListPrice(it), prefs.Currency, rates)),
			Discounted:   it.Product.HasDiscount(),
			LineTotal:    currency.Format(currency.Convert(cart.LineTotal(it), prefs.Currency, rates)),
			State:        string(state),
			CanDecrement: it.Quantity > 1,
			MutationBusy: state == cart.Mutating,
		})
	}

	return View{
		SessionID:     s.id,
		Language:      prefs.Language,
		Currency:      prefs.Currency,
		Symbol:        currency.Symbol(prefs.Currency),
		Loading:       snap.Loading,
		Empty:         !snap.Loading && len(snap.Items) == 0,
		Lines:         lines,
		Total:         currency.Format(currency.Convert(cart.Total(snap.Items), prefs.Currency, rates)),
		Notifications: s.notices.Drain(),
	}
}
