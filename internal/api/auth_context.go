package api

import (
	"context"
	"net/http"

	domainerrors "github.com/todosync/todosync-server/internal/errors"
	"github.com/todosync/todosync-server/internal/sse"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userIDKey  ctxKey = "userID"
	authErrKey ctxKey = "authErr"
)

// GetUserID returns the authenticated user ID from context.
// Returns an UNAUTHENTICATED error if no valid token came with the request.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		if err, ok := ctx.Value(authErrKey).(error); ok {
			return "", err
		}
		return "", domainerrors.Unauthenticated("Authentication required")
	}
	return userID, nil
}

// setUserID stores the user ID in context.
func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// authMiddleware resolves the bearer token and stores the user ID in context.
// Requests without a valid token continue anonymously with the failure kept
// in context; handlers reject them through GetUserID.
func authMiddleware(auth sse.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := auth.Authenticate(r)
			if err != nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authErrKey, err)))
				return
			}

			next.ServeHTTP(w, r.WithContext(setUserID(r.Context(), userID)))
		})
	}
}
