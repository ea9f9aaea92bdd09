package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRedirectsToMaps(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/")

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/maps", rr.Header().Get("Location"))
}

func TestMapsPageListsMaps(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/maps")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, `tr[data-map="ring"][data-status="ACTIVE"]`)
	assertContainsElement(t, doc, "form#upload-map")
	assertNotContainsElement(t, doc, "#no-maps")
}

func TestUploadMap(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{
		"name":  {"square"},
		"roads": {"1,1,1\n1,0,1\n1,1,1"},
	}
	rr := ts.post("/maps", form)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/maps/square", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#flash", "Map square uploaded")
	assertContainsText(t, doc, "#map-status", "3 by 3")
	assertContainsElement(t, doc, `#board[data-size="3"]`)
	assert.Equal(t, 1, doc.Find("table.board td.wall").Length())
	assert.Equal(t, 8, doc.Find("table.board td.road").Length())
}

func TestUploadInvalidMapShowsError(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/maps", url.Values{"name": {"broken"}, "roads": {"1,1\n1"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/maps", rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, `#flash[data-type="error"]`, "Could not upload map")
	assertNotContainsElement(t, doc, `tr[data-map="broken"]`)
}

func TestUploadMapWithoutName(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/maps", url.Values{"name": {"  "}, "roads": {"1"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#flash", "A map needs a name")
}

func TestDeleteMap(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/maps/ring/delete", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#flash", "Map ring deleted")
	assertContainsElement(t, doc, `tr[data-map="ring"][data-status="DELETED"]`)
	assertNotContainsElement(t, doc, `tr[data-map="ring"] form`)
}

func TestMapNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/maps/nowhere")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#error-status", "404")
	assertContainsText(t, doc, "#error-message", "Map not found")
}
