package middleware

import (
	"context"
	"net/http"

	"github.com/mindscreen/mindscreen/internal/utils"
)

type ctxKey int

const localeKey ctxKey = 1

var supportedLocales = []string{"en", "bn"}

// LocaleMiddleware resolves the request locale from the lang query parameter
// or the Accept-Language header and stores it in the request context.
func LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := utils.DetermineLocale(
			r.URL.Query().Get("lang"),
			r.Header.Get("Accept-Language"),
			supportedLocales, "en")
		ctx := context.WithValue(r.Context(), localeKey, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LocaleFromContext returns the resolved locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(localeKey).(string); ok {
		return s
	}
	return "en"
}
