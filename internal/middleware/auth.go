package middleware

import (
	"net/http"
	"strings"

	"cartview/internal/logger"
	"cartview/internal/user"
	"cartview/internal/utils"

	"go.uber.org/zap"
)

// AccessTokenCookie is read before the Authorization header. Browsers cannot
// set headers on websocket upgrades.
const AccessTokenCookie = "access_token"

func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return tokenStr
}

// Auth requires a token signed with secret and carrying an email claim.
// Anything else is answered with 401 and a login redirect.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractAccessToken(r)
			if tokenStr == "" {
				utils.WriteUnauthorized(w, "user not logged in")
				return
			}

			claims, err := user.ParseToken(secret, tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("rejected bearer token", zap.Error(err))
				utils.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := utils.WithUserEmail(r.Context(), claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
