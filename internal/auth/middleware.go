package auth

import (
	"context"
	"net/http"
	"strings"
)

// Middleware authenticates participant tokens on the reporting API and
// enforces the path policy's role requirements.
type Middleware struct {
	secret []byte
	policy Policy
}

func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{secret: secret, policy: policy}
}

// Wrap applies auth to the handler. Exempt paths pass through untouched;
// everything else needs a bearer token whose role satisfies the policy.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		required, ok := m.policy.RequiredRole(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx, status := m.authenticate(r, required)
		if status != http.StatusOK {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate resolves the request's bearer token against the required
// role and returns the identity-carrying context on success.
func (m *Middleware) authenticate(r *http.Request, required Role) (context.Context, int) {
	claims, err := ParseJWT(extractBearer(r), m.secret)
	if err != nil {
		return nil, http.StatusUnauthorized
	}
	role, _ := NormalizeRole(claims.Role)
	if !RoleAtLeast(role, required) {
		return nil, http.StatusForbidden
	}
	return WithIdentity(r.Context(), claims.Participant, role, claims.Subject), http.StatusOK
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
