package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingNamesPageAndCar(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := mux.NewRouter()
	r.Use(Logging(logger))
	r.HandleFunc("/run/{id:[0-9]+}/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/run/7/bolt", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "web", entry["component"])
	assert.Equal(t, "/run/{id:[0-9]+}/{name}", entry["page"])
	assert.Equal(t, "7", entry["game_id"])
	assert.Equal(t, "bolt", entry["car"])
}

func TestLoggingMapPageHasNoCar(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := mux.NewRouter()
	r.Use(Logging(logger))
	r.HandleFunc("/maps/{name}", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/maps/ring", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "/maps/{name}", entry["page"])
	assert.NotContains(t, entry, "car")
	assert.NotContains(t, entry, "game_id")
}
