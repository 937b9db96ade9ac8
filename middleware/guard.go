// Package middleware adapts the gatehouse engine to net/http: it extracts
// the bearer token, authenticates it, and resolves the request against the
// endpoint access rules before handing off to the application handler.
package middleware

import (
	"context"
	"net/http"
	"strings"

	gatehouse "github.com/signably/gatehouse"
	"github.com/signably/gatehouse/access"
	"github.com/signably/gatehouse/permission"
)

type principalContextKey struct{}

// PrincipalFromContext returns the authenticated principal attached by
// [Guard], if any.
func PrincipalFromContext(ctx context.Context) (gatehouse.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(gatehouse.Principal)
	return p, ok
}

// Guard authenticates an optional bearer token and resolves the request
// against the endpoint rule table. A missing token is not an error by
// itself: public paths and anonymous-permitted rules still pass, and the
// resolver decides whether authentication was required.
func Guard(engine *gatehouse.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			var caller permission.Caller

			if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
				principal, err := engine.Authenticate(ctx, token)
				if err != nil {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				caller = principal.Caller
				ctx = context.WithValue(ctx, principalContextKey{}, principal)
			}

			decision := engine.Authorize(ctx, r.Method, r.URL.Path, caller)
			if !decision.Allowed {
				status := http.StatusForbidden
				if decision.Reason == access.ReasonAuthRequired {
					status = http.StatusUnauthorized
				}
				http.Error(w, decision.Message(), status)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
