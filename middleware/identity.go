// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/models"
)

// IdentityHeader carries the signed identity token issued by the auth
// provider.
const IdentityHeader = "X-Identity-Token"

type identityKey struct{}

func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the caller's identity, if the request carried one.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	return identity, ok
}

// Authenticate verifies the identity token when one is present. Requests
// without a token pass through anonymously; a bad token is rejected.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(IdentityHeader)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := auth.ParseIdentity(token, secret)
			if err != nil {
				ErrorResponse(w, http.StatusUnauthorized, "invalid identity token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireIdentity rejects anonymous requests.
func RequireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			ErrorResponse(w, http.StatusUnauthorized, "identity token required")
			return
		}
		next(w, r)
	}
}
