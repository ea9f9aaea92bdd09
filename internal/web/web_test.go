package web_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gridrace/internal/factory"
	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/testutil"
	"github.com/mcoot/gridrace/internal/web"
)

const waitFor = 3 * time.Second

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
	cookies *cookieJar
}

// newWebTestServer creates a started app with the "ring" map loaded
func newWebTestServer(t *testing.T) *webTestServer {
	t.Helper()

	app := factory.NewTestApp(0)
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = app.Shutdown(ctx)
	})

	_, err := app.LoadTestMap(t.Context(), "ring")
	require.NoError(t, err)

	router := web.NewRouter(web.RouterConfig{
		Logger:         testutil.NopLogger(),
		CarService:     app.CarService,
		MapService:     app.MapService,
		GameController: app.GameController,
		HubManager:     app.HubManager,
	})

	return &webTestServer{
		t:       t,
		handler: router,
		app:     app,
		cookies: newCookieJar(),
	}
}

// request makes an HTTP request and returns the response
func (ts *webTestServer) request(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}

	ts.cookies.addTo(req)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	ts.cookies.extract(rr)

	return rr
}

func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil, false)
}

func (ts *webTestServer) post(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form, false)
}

func (ts *webTestServer) postHTMX(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form, true)
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(cookie)
	}
}

func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

// Helper functions for common test operations

// createCar creates a car through the garage form
func (ts *webTestServer) createCar(name string, carType model.CarType) {
	ts.t.Helper()
	rr := ts.post("/cars", url.Values{"name": {name}, "type": {string(carType)}})
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after creating car")
	// Drop the flash so it does not leak into the next page
	delete(ts.cookies.cookies, "flash")
}

// startGame starts a game on the ring and returns its id
func (ts *webTestServer) startGame(name string) model.GameID {
	ts.t.Helper()
	rr := ts.post("/games", url.Values{"name": {name}, "map": {"ring"}})
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after starting game")
	delete(ts.cookies.cookies, "flash")

	location := rr.Header().Get("Location")
	parts := strings.Split(location, "/games/")
	require.Len(ts.t, parts, 2, "Expected location to contain /games/{id}, got %s", location)
	id, err := strconv.ParseInt(parts[1], 10, 64)
	require.NoError(ts.t, err)
	return model.GameID(id)
}

// addCar puts a car into a game at a 1-indexed cell
func (ts *webTestServer) addCar(id model.GameID, car string, x, y int) {
	ts.t.Helper()
	form := url.Values{"car": {car}, "x": {strconv.Itoa(x)}, "y": {strconv.Itoa(y)}}
	rr := ts.post(gamePath(id)+"/cars", form)
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after adding car")
	require.Equal(ts.t, runPath(id, car), rr.Header().Get("Location"))
	delete(ts.cookies.cookies, "flash")
}

// followRedirect follows a redirect and returns the response
// Works with both traditional Location headers and HTMX HX-Redirect headers
func (ts *webTestServer) followRedirect(rr *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	ts.t.Helper()
	location := rr.Header().Get("HX-Redirect")
	if location == "" {
		location = rr.Header().Get("Location")
	}
	require.NotEmpty(ts.t, location, "Expected Location or HX-Redirect header for redirect")
	return ts.get(location)
}

// carAt reports whether the engine shows the car at a zero-indexed cell
func (ts *webTestServer) carAt(id model.GameID, car string, x, y int) func() bool {
	return func() bool {
		cars, err := ts.app.GameController.Snapshot(context.Background(), id)
		if err != nil {
			return false
		}
		for _, c := range cars {
			if c.Name == car {
				return c.X == x && c.Y == y && !c.Reverting
			}
		}
		return false
	}
}

func gamePath(id model.GameID) string {
	return "/games/" + strconv.FormatInt(int64(id), 10)
}

func runPath(id model.GameID, car string) string {
	return "/run/" + strconv.FormatInt(int64(id), 10) + "/" + car
}

// Assertion helpers

// assertContainsElement asserts that the document contains an element matching the selector
func assertContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
	}
}

// assertNotContainsElement asserts that the document does not contain an element matching the selector
func assertNotContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() > 0 {
		t.Errorf("Expected NOT to find element matching %q, but found %d", selector, doc.Find(selector).Length())
	}
}

// assertContainsText asserts that the element matching the selector contains the text
func assertContainsText(t *testing.T, doc *goquery.Document, selector, text string) {
	t.Helper()
	el := doc.Find(selector)
	if el.Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
		return
	}
	if !strings.Contains(el.Text(), text) {
		t.Errorf("Expected element %q to contain %q, but got %q", selector, text, el.Text())
	}
}
