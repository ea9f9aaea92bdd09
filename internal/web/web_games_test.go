package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gridrace/internal/model"
)

func TestGamesPageOffersActiveMaps(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/games")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "#no-games")
	assertContainsElement(t, doc, `form#start-game select[name="map"] option[value="ring"]`)
	assertNotContainsElement(t, doc, "#no-active-maps")
}

func TestGamesPageWithoutActiveMaps(t *testing.T) {
	ts := newWebTestServer(t)
	require.NoError(t, ts.app.MapService.Delete(t.Context(), "ring"))

	doc := parseHTML(ts.get("/games").Body)
	assertContainsElement(t, doc, "#no-active-maps")
	assertNotContainsElement(t, doc, "form#start-game")
}

func TestStartGame(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/games", url.Values{"name": {"sunday"}, "map": {"ring"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = ts.followRedirect(rr)
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#flash", "Game sunday started")
	assertContainsText(t, doc, "#game-status", "RUNNING")
	assertContainsElement(t, doc, "#no-game-cars")
	assertContainsElement(t, doc, `#board[data-size="4"]`)
	assertContainsElement(t, doc, "#no-ready-cars")
}

func TestStartGameOnUnknownMap(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/games", url.Values{"name": {"sunday"}, "map": {"nowhere"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/games", rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, `#flash[data-type="error"]`, "Could not start game")
	assertContainsElement(t, doc, "#no-games")
}

func TestGameListsStartedGames(t *testing.T) {
	ts := newWebTestServer(t)
	id := ts.startGame("sunday")

	doc := parseHTML(ts.get("/games").Body)
	row := doc.Find(`tr[data-game="` + itoa(id) + `"]`)
	require.Equal(t, 1, row.Length())
	assert.Contains(t, row.Find("td.name").Text(), "sunday")
	assert.Contains(t, row.Find("td.status").Text(), "RUNNING")
}

func TestGameListFilterByStatus(t *testing.T) {
	ts := newWebTestServer(t)
	running := ts.startGame("sunday")
	finished := ts.startGame("monday")
	require.NoError(t, ts.app.GameController.Finish(t.Context(), finished))

	doc := parseHTML(ts.get("/games?status=finished").Body)
	assertContainsElement(t, doc, `tr[data-game="`+itoa(finished)+`"][data-status="FINISHED"]`)
	assertNotContainsElement(t, doc, `tr[data-game="`+itoa(running)+`"]`)
	assertContainsElement(t, doc, `form#filter-games option[value="FINISHED"][selected]`)

	// An unknown status shows every game
	doc = parseHTML(ts.get("/games?status=bogus").Body)
	assert.Equal(t, 2, doc.Find("tr[data-game]").Length())
}

func TestAddCarToGame(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createCar("bolt", model.CarTypeNormal)
	id := ts.startGame("sunday")

	doc := parseHTML(ts.get(gamePath(id)).Body)
	assertContainsElement(t, doc, `form#add-car select[name="car"] option[value="bolt"]`)

	ts.addCar(id, "bolt", 1, 4)

	doc = parseHTML(ts.get(gamePath(id)).Body)
	link := doc.Find(`#game-cars li[data-car="bolt"] a`)
	require.Equal(t, 1, link.Length())
	href, _ := link.Attr("href")
	assert.Equal(t, runPath(id, "bolt"), href)
	assertContainsElement(t, doc, `#board td.car[data-car="bolt"]`)
	assertContainsElement(t, doc, "#no-ready-cars")
}

func TestAddCarOnWallShowsError(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createCar("bolt", model.CarTypeNormal)
	id := ts.startGame("sunday")

	rr := ts.post(gamePath(id)+"/cars", url.Values{"car": {"bolt"}, "x": {"2"}, "y": {"2"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, gamePath(id), rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, `#flash[data-type="error"]`, "Could not add car")
	assertContainsElement(t, doc, "#no-game-cars")
}

func TestAddCarNeedsBothCoordinates(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createCar("bolt", model.CarTypeNormal)
	id := ts.startGame("sunday")

	rr := ts.post(gamePath(id)+"/cars", url.Values{"car": {"bolt"}, "x": {"1"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#flash", "Give both x and y, or neither")
}

func TestFinishedGameHasNoBoard(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createCar("bolt", model.CarTypeNormal)
	id := ts.startGame("sunday")
	ts.addCar(id, "bolt", 1, 4)
	require.NoError(t, ts.app.GameController.Finish(t.Context(), id))

	doc := parseHTML(ts.get(gamePath(id)).Body)
	assertContainsText(t, doc, "#game-status", "FINISHED")
	assertNotContainsElement(t, doc, "#board")
	assertNotContainsElement(t, doc, "form#add-car")
	assertNotContainsElement(t, doc, "#game-cars a")
}

func TestGameNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/games/999")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#error-message", "Game not found")
}

func itoa(id model.GameID) string {
	return gamePath(id)[len("/games/"):]
}
