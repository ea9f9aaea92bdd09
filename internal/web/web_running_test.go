package web_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gridrace/internal/model"
)

// setupRace creates bolt and puts it in a new game at the bottom left corner of the ring
func setupRace(t *testing.T) (*webTestServer, model.GameID) {
	t.Helper()
	ts := newWebTestServer(t)
	ts.createCar("bolt", model.CarTypeNormal)
	id := ts.startGame("sunday")
	ts.addCar(id, "bolt", 1, 4)
	return ts, id
}

func TestRunningPageShowsOwnCar(t *testing.T) {
	ts, id := setupRace(t)

	rr := ts.get(runPath(id, "bolt"))
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, `td.car.own[data-car="bolt"]`)
	assertContainsText(t, doc, `#positions li[data-car="bolt"]`, "bolt at (0,3) facing NORTH")

	live := doc.Find("#live")
	require.Equal(t, 1, live.Length())
	connect, _ := live.Attr("sse-connect")
	assert.Equal(t, runPath(id, "bolt")+"/events", connect)
	assertContainsElement(t, doc, `#board-frame[sse-swap="board"]`)
	assertContainsElement(t, doc, `#game-over-frame[sse-swap="closed"]`)

	for _, control := range []string{"left", "forward", "right", "back"} {
		form := doc.Find("form#" + control)
		require.Equal(t, 1, form.Length(), "missing %s control", control)
		post, _ := form.Attr("hx-post")
		assert.Equal(t, runPath(id, "bolt")+"/"+control, post)
	}
	assertContainsElement(t, doc, "form#leave")
}

func TestForwardWithHTMX(t *testing.T) {
	ts, id := setupRace(t)

	rr := ts.postHTMX(runPath(id, "bolt")+"/forward", url.Values{"distance": {"1"}})

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Header().Get("HX-Redirect"))
	assert.Eventually(t, ts.carAt(id, "bolt", 0, 2), waitFor, 5*time.Millisecond)

	doc := parseHTML(ts.get(runPath(id, "bolt")).Body)
	assertContainsText(t, doc, `#positions li[data-car="bolt"]`, "bolt at (0,2)")
}

func TestTurnWithoutHTMXRedirectsBack(t *testing.T) {
	ts, id := setupRace(t)

	rr := ts.post(runPath(id, "bolt")+"/right", nil)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, runPath(id, "bolt"), rr.Header().Get("Location"))
	assert.Eventually(t, func() bool {
		cars, err := ts.app.GameController.Snapshot(t.Context(), id)
		return err == nil && len(cars) == 1 && cars[0].Direction == model.East
	}, waitFor, 5*time.Millisecond)
}

func TestBackWithoutHistoryShowsFlash(t *testing.T) {
	ts, id := setupRace(t)

	rr := ts.postHTMX(runPath(id, "bolt")+"/back", url.Values{"moves": {"0"}})
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, runPath(id, "bolt"), rr.Header().Get("HX-Redirect"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, `#flash[data-type="error"]`, "No historical moves to back")
}

func TestForwardRejectsBadDistance(t *testing.T) {
	ts, id := setupRace(t)

	rr := ts.post(runPath(id, "bolt")+"/forward", url.Values{"distance": {"far"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsElement(t, doc, `#flash[data-type="error"]`)
	assertContainsText(t, doc, `#positions li[data-car="bolt"]`, "bolt at (0,3)")
}

func TestLeaveGame(t *testing.T) {
	ts, id := setupRace(t)

	rr := ts.post(runPath(id, "bolt")+"/leave", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, gamePath(id), rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#flash", "bolt left the game")
	assertNotContainsElement(t, doc, `#board td.car[data-car="bolt"]`)

	// The car is free to join again
	assertContainsElement(t, doc, `form#add-car option[value="bolt"]`)
}

func TestRunningPageForCarNotInGame(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createCar("bolt", model.CarTypeNormal)
	id := ts.startGame("sunday")

	rr := ts.get(runPath(id, "bolt"))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, gamePath(id), rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, `#flash[data-type="error"]`, "bolt is not racing in this game")
}

func TestRunningPageForFinishedGame(t *testing.T) {
	ts, id := setupRace(t)
	require.NoError(t, ts.app.GameController.Finish(t.Context(), id))

	rr := ts.get(runPath(id, "bolt"))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, `#flash[data-type="info"]`, "Game sunday is over")
}
