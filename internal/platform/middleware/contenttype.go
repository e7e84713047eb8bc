package middleware

import (
	"net/http"
	"strings"
)

// ContentTypeJSON rejects bodies that are not JSON. GET and DELETE pass
// through untouched.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"success":false,"error":"Content-Type must be application/json","code":"BAD_REQUEST"}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
