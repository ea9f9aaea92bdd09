package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gridrace/internal/web/templates/layout"
)

func TestFlashRoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	SetFlash(rr, "error", "Could not add car: cell (2,2) is a wall")
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	var seen *layout.FlashMessage
	handler := Flash()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetFlash(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/games/1", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.NotNil(t, seen)
	assert.Equal(t, "error", seen.Type)
	assert.Equal(t, "Could not add car: cell (2,2) is a wall", seen.Message)

	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, flashCookieName, cleared[0].Name)
	assert.Negative(t, cleared[0].MaxAge)
}

func TestFlashAbsent(t *testing.T) {
	var seen *layout.FlashMessage
	handler := Flash()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetFlash(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/maps", nil))

	assert.Nil(t, seen)
	assert.Empty(t, rr.Result().Cookies())
}

func TestParseFlashWithoutType(t *testing.T) {
	flash := parseFlash("just a message")

	assert.Equal(t, "info", flash.Type)
	assert.Equal(t, "just a message", flash.Message)
}
