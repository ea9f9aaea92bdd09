package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/middleware"
)

// Logging creates logging middleware for the web interface. Each request is
// logged with its page template, and with the game and car on running pages.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	webLogger := logger.With(slog.String("component", "web"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			middleware.Logging(webLogger.With(pageAttrs(r)...))(next).ServeHTTP(w, r)
		})
	}
}

func pageAttrs(r *http.Request) []any {
	var attrs []any
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			attrs = append(attrs, slog.String("page", tmpl))
		}
	}
	vars := mux.Vars(r)
	if id, ok := vars["id"]; ok {
		attrs = append(attrs, slog.String("game_id", id))
	}
	if name, ok := vars["name"]; ok && vars["id"] != "" {
		attrs = append(attrs, slog.String("car", name))
	}
	return attrs
}
