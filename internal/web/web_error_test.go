package web_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnknownPageRendersNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/garage")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#error-status", "404")
	assertContainsText(t, doc, "#error-message", "/garage")
	assertContainsElement(t, doc, `nav a[href="/games"]`)
}

func TestRunningPageForUnknownGame(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/run/42/bolt")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#error-message", "Game not found")
}

func TestFlashShownOnlyOnce(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/maps/ring/delete", nil)
	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#flash", "Map ring deleted")

	doc = parseHTML(ts.get("/maps").Body)
	assertNotContainsElement(t, doc, "#flash")
}

func TestDeleteMapInUse(t *testing.T) {
	ts := newWebTestServer(t)
	ts.startGame("sunday")

	rr := ts.post("/maps/ring/delete", nil)
	doc := parseHTML(ts.followRedirect(rr).Body)

	assertContainsText(t, doc, `#flash[data-type="error"]`, "Could not delete map")
	assertContainsElement(t, doc, `tr[data-map="ring"][data-status="ACTIVE"]`)
}
