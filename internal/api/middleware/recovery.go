package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/api/apierr"
	"github.com/mcoot/gridrace/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// A panic is logged with the game and car or map the route addressed,
// and answered with a JSON INTERNAL_ERROR.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	apiLogger := logger.With(slog.String("component", "api"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recovery := middleware.Recovery(apiLogger.With(routeAttrs(r)...), writeInternalError)
			recovery(next).ServeHTTP(w, r)
		})
	}
}

func writeInternalError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}

// routeAttrs names the route variables set by the router.
// {name} is a map under /maps and a car everywhere else.
func routeAttrs(r *http.Request) []any {
	vars := mux.Vars(r)
	var attrs []any
	if id, ok := vars["id"]; ok {
		attrs = append(attrs, slog.String("game_id", id))
	}
	if name, ok := vars["name"]; ok {
		key := "car"
		if strings.Contains(r.URL.Path, "/maps/") {
			key = "map"
		}
		attrs = append(attrs, slog.String(key, name))
	}
	return attrs
}
