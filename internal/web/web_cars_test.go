package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gridrace/internal/model"
)

func TestCarsPageEmpty(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/cars")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "#no-cars")
	assertContainsElement(t, doc, "form#create-car")
	assert.Equal(t, 3, doc.Find(`form#create-car select[name="type"] option`).Length())
}

func TestCreateCar(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/cars", url.Values{"name": {"bolt"}, "type": {"RACER"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/cars", rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, `#flash[data-type="success"]`, "Car bolt created")
	assertContainsElement(t, doc, `tr[data-car="bolt"][data-state="ready"]`)
	assertContainsText(t, doc, `tr[data-car="bolt"] td.type`, "RACER")
	assertNotContainsElement(t, doc, `tr[data-car="bolt"] form.repair`)
}

func TestCreateDuplicateCar(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createCar("bolt", model.CarTypeNormal)

	rr := ts.post("/cars", url.Values{"name": {"bolt"}, "type": {"NORMAL"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, `#flash[data-type="error"]`, "car already exists")
	assert.Equal(t, 1, doc.Find(`tr[data-car="bolt"]`).Length())
}

func TestCreateCarUnknownType(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/cars", url.Values{"name": {"bolt"}, "type": {"TANK"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#flash", "Unknown car type")
	assertContainsElement(t, doc, "#no-cars")
}

func TestDeleteCar(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createCar("bolt", model.CarTypeNormal)

	rr := ts.post("/cars/bolt/delete", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#flash", "Car bolt deleted")
	assertNotContainsElement(t, doc, `tr[data-car="bolt"]`)
}

func TestRacingCarShowsDriveLink(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createCar("bolt", model.CarTypeNormal)
	id := ts.startGame("sunday")
	ts.addCar(id, "bolt", 1, 4)

	doc := parseHTML(ts.get("/cars").Body)
	assertContainsElement(t, doc, `tr[data-car="bolt"][data-state="racing"]`)
	drive := doc.Find(`tr[data-car="bolt"] a.drive`)
	require.Equal(t, 1, drive.Length())
	href, _ := drive.Attr("href")
	assert.Equal(t, runPath(id, "bolt"), href)

	// A racing car cannot be deleted
	rr := ts.post("/cars/bolt/delete", nil)
	doc = parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, `#flash[data-type="error"]`, "Could not delete car")
}

func TestRepairCrashedCar(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createCar("bolt", model.CarTypeNormal)
	require.NoError(t, ts.app.CarService.MarkCrashed(t.Context(), "bolt"))

	doc := parseHTML(ts.get("/cars").Body)
	assertContainsElement(t, doc, `tr[data-car="bolt"][data-state="crashed"] form.repair`)

	rr := ts.post("/cars/bolt/repair", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc = parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#flash", "Car bolt repaired")
	assertContainsElement(t, doc, `tr[data-car="bolt"][data-state="ready"]`)
}
