package utils

import "context"

type contextKey string

const UserEmailKey contextKey = "email"

// WithUserEmail stores the authenticated shopper's email (called by middleware).
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, UserEmailKey, email)
}

// GetUserEmailFromContext retrieves the shopper's email safely
func GetUserEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}
