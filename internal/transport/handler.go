// Package transport exposes cart view sessions over JSON/HTTP and pushes
// cart-changed signals over a websocket.
package transport

import (
	"errors"
	"net/http"
	"strings"

	"cartview/internal/cart"
	"cartview/internal/currency"
	"cartview/internal/events"
	"cartview/internal/logger"
	"cartview/internal/notify"
	"cartview/internal/session"
	"cartview/internal/user"
	"cartview/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionHeader carries the cart view session id. Websocket clients pass it
// as the "session" query parameter instead.
const SessionHeader = "X-Cart-Session"

type Handler struct {
	sessions *session.Manager
	bus      *events.Bus
	upgrader websocket.Upgrader
}

func NewHandler(sessions *session.Manager, bus *events.Bus, allowedOrigin string) *Handler {
	return &Handler{
		sessions: sessions,
		bus:      bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Register mounts the cart routes on r. Callers put authentication in front.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/cart")
	g.GET("", h.GetCart)
	g.POST("/reload", h.Reload)
	g.DELETE("/items/:productId", h.RemoveItem)
	g.PATCH("/items/:productId", h.ChangeQuantity)
	g.PUT("/preferences", h.SetPreferences)
	g.POST("/checkout", h.Checkout)
	g.DELETE("/session", h.CloseSession)
	g.GET("/events", h.Events)
}

// NewRouter builds the gin engine serving the cart routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.Register(r)
	return r
}

func sessionID(c *gin.Context) string {
	if id := c.GetHeader(SessionHeader); id != "" {
		return id
	}
	return c.Query("session")
}

// language picks the primary tag of Accept-Language, e.g. "zh-TW" from
// "zh-TW,zh;q=0.9".
func language(c *gin.Context) string {
	if lang := c.Query("lang"); lang != "" {
		return lang
	}
	tag, _, _ := strings.Cut(c.GetHeader("Accept-Language"), ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.TrimSpace(tag)
}

// session returns the caller's open session or opens one. On failure it has
// already written the response.
func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	ctx := c.Request.Context()
	email := utils.GetUserEmailFromContext(ctx)

	if s, ok := h.sessions.Get(sessionID(c), email); ok {
		c.Header(SessionHeader, s.ID())
		return s, true
	}

	s, err := h.sessions.Open(ctx, email, session.PreferencesFor(language(c)))
	switch {
	case err == nil:
		c.Header(SessionHeader, s.ID())
		return s, true
	case errors.Is(err, session.ErrNotAuthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":        err.Error(),
			"redirect":     utils.LoginPath,
			"notification": notify.Error(notify.UserNotLoggedIn),
		})
	case errors.Is(err, user.ErrUserNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":        err.Error(),
			"notification": notify.Error(notify.UserLookupFailed),
		})
	default:
		logger.FromCtx(ctx).Error("failed to open cart session", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"error":        err.Error(),
			"notification": notify.Error(notify.UserLookupFailed),
		})
	}
	return nil, false
}

// statusFor maps engine errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, cart.ErrInvalidProductID), errors.Is(err, cart.ErrInvalidDelta):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrCartItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrMutationInFlight), errors.Is(err, cart.ErrStaleLoad):
		return http.StatusConflict
	case errors.Is(err, cart.ErrCartEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrClosed), errors.Is(err, cart.ErrStoreClosed):
		return http.StatusGone
	case errors.Is(err, cart.ErrFailedLoadCart),
		errors.Is(err, cart.ErrFailedRemoveCart),
		errors.Is(err, cart.ErrFailedUpdateCart):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type viewResponse struct {
	session.View
	Error string `json:"error,omitempty"`
}

// respond renders the view with the status err maps to. The view is always
// sent so the UI can show the notifications the failure produced.
func respond(c *gin.Context, s *session.Session, err error) {
	res := viewResponse{View: s.View()}
	if err != nil {
		res.Error = err.Error()
	}
	c.JSON(statusFor(err), res)
}

func (h *Handler) GetCart(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	respond(c, s, nil)
}

func (h *Handler) Reload(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	err := s.Reload(c.Request.Context())
	if errors.Is(err, cart.ErrStaleLoad) {
		// A newer load owns the view.
		err = nil
	}
	respond(c, s, err)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	respond(c, s, s.Remove(c.Request.Context(), c.Param("productId")))
}

type quantityInput struct {
	Delta *int `json:"delta" binding:"required"`
}

func (h *Handler) ChangeQuantity(c *gin.Context) {
	var input quantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if d := *input.Delta; d > cart.MaxDelta || d < -cart.MaxDelta {
		c.JSON(http.StatusBadRequest, gin.H{"error": cart.ErrInvalidDelta.Error()})
		return
	}

	s, ok := h.session(c)
	if !ok {
		return
	}
	_, err := s.ChangeQuantity(c.Request.Context(), c.Param("productId"), *input.Delta)
	respond(c, s, err)
}

type preferencesInput struct {
	Language string `json:"language" binding:"required"`
}

func (h *Handler) SetPreferences(c *gin.Context) {
	var input preferencesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	s, ok := h.session(c)
	if !ok {
		return
	}
	s.SetPreferences(session.PreferencesFor(input.Language))
	respond(c, s, nil)
}

func (h *Handler) Checkout(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	total, err := s.Checkout(c.Request.Context())
	if err != nil {
		respond(c, s, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":    currency.Format(total),
		"currency": currency.Base,
	})
}

func (h *Handler) CloseSession(c *gin.Context) {
	email := utils.GetUserEmailFromContext(c.Request.Context())
	if !h.sessions.Close(sessionID(c), email) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
