package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"cartview/internal/logger"
	"cartview/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Rate limit tiers. Writes hit the cart backend, reads mostly render the
// in-memory view.
const (
	tierRead     = "read"
	tierMutation = "mutation"
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	read     rate.Limit
	readB    int
	mutation rate.Limit
	mutateB  int
	idleTTL  time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter limits each shopper to rps/burst for writes and twice that
// for reads.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		read:     rate.Limit(rps * 2),
		readB:    burst * 2,
		mutation: rate.Limit(rps),
		mutateB:  burst,
		idleTTL:  3 * time.Minute,
		visitors: make(map[string]*visitor),
	}
}

// getVisitor retrieves or creates a rate limiter for the given key.
func (l *RateLimiter) getVisitor(key, tier string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key + ":" + tier
	v, exists := l.visitors[k]
	if !exists {
		limiter := rate.NewLimiter(l.read, l.readB)
		if tier == tierMutation {
			limiter = rate.NewLimiter(l.mutation, l.mutateB)
		}
		l.visitors[k] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup removes visitors idle for longer than the TTL.
func (l *RateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if time.Since(v.lastSeen) > l.idleTTL {
			delete(l.visitors, key)
		}
	}
}

// Run sweeps idle visitors every minute until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := tierRead
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			tier = tierMutation
		}

		// Prefer the shopper's email, fall back to IP.
		identity := utils.GetUserEmailFromContext(r.Context())
		if identity != "" {
			identity = "user:" + identity
		} else {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			identity = "ip:" + ip
		}

		if !l.getVisitor(identity, tier).Allow() {
			logger.FromCtx(r.Context()).Warn("rate limited", zap.String("key", identity), zap.String("tier", tier))
			utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
