package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gridrace/internal/middleware"
	"github.com/mcoot/gridrace/internal/web/templates/layout"
	"github.com/mcoot/gridrace/internal/web/templates/pages"
)

// Recovery creates panic recovery middleware for the web interface.
// It renders the error page with a 500 status.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger.With(slog.String("component", "web")), webPanicHandler)
}

func webPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	RenderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// RenderError writes the error page with the given status
func RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := pages.ErrorData{
		PageData: layout.PageData{Title: http.StatusText(status)},
		Status:   status,
		Message:  message,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pages.Error(data).Render(r.Context(), w)
}
