package middleware

import (
	"fmt"
	"net/http"
	"slices"
)

// RequireRole admits only callers whose bearer carries one of allowedRoles.
// It must run after Auth.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok {
				writeJSONError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !slices.Contains(allowedRoles, caller.Role) {
				writeJSONError(w, r, http.StatusForbidden, fmt.Sprintf("role %q may not perform this action", caller.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
