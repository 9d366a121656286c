package middleware

import (
	"net/http"
	"strings"
)

const methodOverrideParam = "_method"

var overridable = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride lets HTML forms send PUT and DELETE as POST with a _method
// query or form field. Must run before routing.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			method := r.URL.Query().Get(methodOverrideParam)
			if method == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				method = r.PostFormValue(methodOverrideParam)
			}
			method = strings.ToUpper(method)
			if overridable[method] {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}
