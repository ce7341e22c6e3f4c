package auth

import "context"

const isAdminKey contextKey = "is_admin"

// WithIsAdmin stores the admin flag in the context.
func WithIsAdmin(ctx context.Context, isAdmin bool) context.Context {
	return context.WithValue(ctx, isAdminKey, isAdmin)
}

// IsAdminFromContext returns whether the authenticated user is an admin.
// Returns false when not set.
func IsAdminFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(isAdminKey).(bool)
	return v
}
