package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/web/middleware"
	"github.com/mcoot/gridrace/internal/web/templates/layout"
)

// render writes a full page
func render(w http.ResponseWriter, r *http.Request, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func pageData(r *http.Request, title string) layout.PageData {
	return layout.PageData{
		Title: title,
		Flash: middleware.GetFlash(r.Context()),
	}
}

// redirect sends the browser on with a flash message for the next page
func redirect(w http.ResponseWriter, r *http.Request, to, flashType, message string) {
	if message != "" {
		middleware.SetFlash(w, flashType, message)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// renderFailure shows a lookup error as a not found page, anything else as a 500
func renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrGameNotFound),
		errors.Is(err, model.ErrMapNotFound),
		errors.Is(err, model.ErrCarNotFound):
		middleware.RenderError(w, r, http.StatusNotFound, capitalize(err.Error()))
	default:
		middleware.RenderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
	}
}

func gameIDFromPath(r *http.Request) (model.GameID, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return model.GameID(id), true
}

func gamePath(id model.GameID) string {
	return fmt.Sprintf("/games/%d", id)
}

func runPath(id model.GameID, car string) string {
	return fmt.Sprintf("/run/%d/%s", id, url.PathEscape(car))
}

func mapPath(name string) string {
	return "/maps/" + url.PathEscape(name)
}

// capitalize upper-cases the first letter of an error for display
func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
