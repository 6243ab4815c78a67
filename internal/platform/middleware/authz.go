// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mkravets/contactly/internal/platform/apperr"
	"github.com/mkravets/contactly/internal/platform/constants"
	"github.com/mkravets/contactly/internal/platform/ctxutil"
	"github.com/mkravets/contactly/internal/platform/respond"
	"github.com/mkravets/contactly/internal/platform/sec"
	"github.com/mkravets/contactly/internal/users/identity"
)

// # Authentication

// Authenticator resolves a bearer token into a caller identity.
// The auth service implements this on top of the token codec and
// the identity cache.
type Authenticator interface {
	Authenticate(ctx context.Context, tokenString string, now time.Time) (*identity.Identity, *sec.Claims, error)
}

/*
Authenticate validates the bearer token and injects the resolved caller
into the request context.

Requests without an Authorization header pass through anonymously;
route-level guards (RequireAuth, RequireRole) decide whether anonymous
access is acceptable. A present but invalid token is always rejected.
*/
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. No credentials provided: continue as anonymous
			header := request.Header.Get(constants.HeaderAuthorization)
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Enforce the "Bearer <token>" scheme
			scheme, tokenString, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				respond.Error(writer, request, apperr.TokenMalformed("Authorization header must use the Bearer scheme"))
				return
			}

			// 3. Verify the token and resolve the caller identity
			resolved, claims, err := auth.Authenticate(request.Context(), tokenString, time.Now())
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// 4. Make the caller available downstream
			ctx := ctxutil.WithIdentity(request.Context(), resolved, claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Authorization Guards

// RequireAuth rejects requests that did not authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

		if ctxutil.GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}

		next.ServeHTTP(writer, request)
	})
}

// RequireRole rejects authenticated callers below the given role.
func RequireRole(minimum sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			resolved := ctxutil.GetIdentity(request.Context())
			if resolved == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !resolved.Role.AtLeast(minimum) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
