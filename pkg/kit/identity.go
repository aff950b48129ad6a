package kit

import (
	"context"
	"net/http"
)

// Headers the gateway sets on proxied requests once a session is validated.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

type Identity struct {
	UserID string
	Email  string
	Role   string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}

func RequireIdentityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			UserID: r.Header.Get(HeaderUserID),
			Email:  r.Header.Get(HeaderUserEmail),
			Role:   r.Header.Get(HeaderUserRole),
		}
		if id.UserID == "" {
			WriteError(w, r, http.StatusUnauthorized, "missing user", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
