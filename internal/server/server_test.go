package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-dev/cutover/internal/archive"
	"github.com/berth-dev/cutover/internal/extract"
	"github.com/berth-dev/cutover/internal/metrics"
	"github.com/berth-dev/cutover/internal/persona"
	"github.com/berth-dev/cutover/internal/scenario"
	"github.com/berth-dev/cutover/internal/simulation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, string) (simulation.Extraction, error) {
	return simulation.Extraction{}, errors.New("model returned prose")
}

type harness struct {
	handler http.Handler
	store   *archive.Store
}

func newHarness(t *testing.T, ext simulation.Extractor) *harness {
	t.Helper()
	reg := prometheus.NewRegistry()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctrl, err := simulation.NewController(simulation.Options{
		MaxRounds:   3,
		Conditions:  simulation.Conditions{MinPersonas: 1, MinConstraints: 2, RequireStrategy: true},
		Baseline:    simulation.DefaultBaseline(),
		Extractor:   ext,
		Complicator: persona.NewComplicator(),
		Responder:   persona.Offline{},
		Scenarios:   scenario.NewGenerator(1),
		Observer:    metrics.New(reg),
		Logger:      quiet,
	})
	require.NoError(t, err)

	store, err := archive.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := New(Options{Controller: ctrl, Archive: store, Gatherer: reg, Logger: quiet})
	return &harness{handler: srv.Handler(), store: store}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func (h *harness) start(t *testing.T) string {
	t.Helper()
	w := h.do(t, http.MethodPost, "/v1/sessions", map[string]string{"user_id": "dana"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[createResponse](t, w)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestHealth(t *testing.T) {
	h := newHarness(t, extract.KeywordExtractor{})
	w := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateSession(t *testing.T) {
	h := newHarness(t, extract.KeywordExtractor{})
	w := h.do(t, http.MethodPost, "/v1/sessions", map[string]string{"user_id": "dana"})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decode[createResponse](t, w)
	assert.Contains(t, resp.Intro, "```go")
	assert.Equal(t, 0, resp.Round.Round)
	assert.Equal(t, 3, resp.Round.MaxRounds)
	assert.Equal(t, simulation.PhaseActive, resp.Round.Phase)

	w = h.do(t, http.MethodGet, "/v1/sessions/"+resp.SessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[sessionResponse](t, w)
	assert.Equal(t, "dana", got.Session.UserID)
	require.Len(t, got.Session.Transcript, 1)
}

func TestCreateSessionWithoutBody(t *testing.T) {
	h := newHarness(t, extract.KeywordExtractor{})
	w := h.do(t, http.MethodPost, "/v1/sessions", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestFullSession(t *testing.T) {
	h := newHarness(t, extract.KeywordExtractor{})
	id := h.start(t)
	path := "/v1/sessions/" + id + "/messages"

	w := h.do(t, http.MethodPost, path, map[string]string{
		"text": "We'll use an adapter layer; the 6 weeks deadline and budget matter.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[messageResponse](t, w)
	assert.Equal(t, simulation.PersonaDevOps, first.Turn.Persona)
	assert.True(t, strings.HasPrefix(first.Turn.Response, "[Alex (DevOps Engineer)]: "))
	assert.False(t, first.Turn.Ended)

	w = h.do(t, http.MethodGet, "/v1/sessions/"+id+"/report", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPost, path, map[string]string{"text": "Security review first."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode[messageResponse](t, w)
	assert.Equal(t, simulation.PhaseFinalReview, second.Turn.Phase)
	assert.True(t, second.Round.InFinalReview())

	w = h.do(t, http.MethodPost, path, map[string]string{
		"text": "Rollback by flipping the adapter back; week 2 milestone.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	third := decode[messageResponse](t, w)
	assert.True(t, third.Turn.Ended)
	assert.Equal(t, simulation.PhaseEnded, third.Turn.Phase)

	w = h.do(t, http.MethodGet, "/v1/sessions/"+id+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[simulation.Report](t, w)
	assert.GreaterOrEqual(t, report.Score, 1)

	w = h.do(t, http.MethodPost, path, map[string]string{"text": "one more thing"})
	assert.Equal(t, http.StatusConflict, w.Code)

	rec, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "adapter_layer", rec.Strategy)
	assert.Equal(t, report.Score, rec.Score)

	w = h.do(t, http.MethodGet, "/v1/history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Sessions []archive.Summary `json:"sessions"`
	}](t, w)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, id, list.Sessions[0].ID)

	w = h.do(t, http.MethodGet, "/v1/history/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cutover_sessions_ended_total 1")
}

func TestExtractionFailureIsRetryable(t *testing.T) {
	h := newHarness(t, failingExtractor{})
	id := h.start(t)

	w := h.do(t, http.MethodPost, "/v1/sessions/"+id+"/messages", map[string]string{"text": "adapter layer"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["retryable"])

	w = h.do(t, http.MethodGet, "/v1/sessions/"+id, nil)
	got := decode[sessionResponse](t, w)
	assert.Equal(t, 0, got.Session.Round)
	assert.Len(t, got.Session.Transcript, 1)
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t, extract.KeywordExtractor{})
	id := h.start(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"empty text", http.MethodPost, "/v1/sessions/" + id + "/messages", map[string]string{"text": ""}, http.StatusBadRequest},
		{"unknown session", http.MethodPost, "/v1/sessions/nope/messages", map[string]string{"text": "hi"}, http.StatusNotFound},
		{"unknown session get", http.MethodGet, "/v1/sessions/nope", nil, http.StatusNotFound},
		{"bad limit", http.MethodGet, "/v1/history?limit=0", nil, http.StatusBadRequest},
		{"missing history", http.MethodGet, "/v1/history/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestDeleteSession(t *testing.T) {
	h := newHarness(t, extract.KeywordExtractor{})
	id := h.start(t)

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/v1/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/v1/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, "/v1/sessions/"+id, nil).Code)
}
