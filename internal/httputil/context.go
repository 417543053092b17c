package httputil

import (
	"context"
	"net/http"
)

// contextKey is unexported so values stored here cannot collide with
// context keys from other packages.
type contextKey string

const (
	userIDKey contextKey = "userID"
)

// WithUserID returns a copy of the request whose context carries the
// authenticated user's ID.
func WithUserID(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	return r.WithContext(ctx)
}

// GetUserID returns the user ID set by the auth middleware, or "" when
// the request never passed through it.
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}
