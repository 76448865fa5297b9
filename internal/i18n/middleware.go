package i18n

import (
	"net/http"
)

// Middleware resolves the request's Accept-Language header and puts
// the matching printer on the request context for handlers to use.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := MatchLanguage(r.Header.Get("Accept-Language"))

		ctx := WithPrinter(r.Context(), NewPrinter(tag))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
