package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/web3-frozen/itchio-monitor/internal/itchio"
	"github.com/web3-frozen/itchio-monitor/internal/monitor"
	"github.com/web3-frozen/itchio-monitor/internal/sensor"
	"github.com/web3-frozen/itchio-monitor/internal/store"
)

type mockSource struct {
	mu   sync.Mutex
	snap *itchio.Snapshot
	err  error
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) FetchGames(context.Context) (*itchio.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.snap, nil
}

func (m *mockSource) fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func testSnapshot() *itchio.Snapshot {
	game := func(id int64, title string) itchio.GameRecord {
		return itchio.GameRecord{
			ID:    id,
			Title: title,
			URL:   "https://dev.itch.io/" + title,
			Fields: map[string]any{
				"id":              float64(id),
				"title":           title,
				"views_count":     float64(1000),
				"downloads_count": float64(50),
				"purchases_count": float64(3),
				"earnings":        []any{map[string]any{"amount": float64(1234), "currency": "USD"}},
			},
		}
	}
	return &itchio.Snapshot{Games: []itchio.GameRecord{game(1, "alpha"), game(2, "beta")}, FetchedAt: time.Now()}
}

type fixture struct {
	src      *mockSource
	engine   *monitor.Engine
	platform *sensor.Platform
	router   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	src := &mockSource{snap: testSnapshot()}
	engine := monitor.NewEngine(src, slog.Default(), 0)
	if err := engine.FirstRefresh(context.Background()); err != nil {
		t.Fatalf("FirstRefresh: %v", err)
	}
	platform, err := sensor.Setup(context.Background(), engine, store.NewMemory(), slog.Default(), sensor.Options{Location: time.UTC})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() {
		platform.Close()
		_ = engine.Close()
	})

	r := chi.NewRouter()
	r.Get("/readyz", Ready(engine, store.NewMemory()))
	r.Get("/api/games", Games(platform))
	r.Get("/api/sensors", Sensors(platform))
	r.Get("/api/sensors/{unique_id}", Sensor(platform))
	r.Get("/api/status", Status(engine))
	r.Post("/api/refresh", Refresh(engine))
	r.Get("/api/options", GetOptions(engine))
	r.Put("/api/options", PutOptions(engine))
	return &fixture{src: src, engine: engine, platform: platform, router: r}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestReady(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("ready: status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec := httptest.NewRecorder()
	Ready(f.engine, downStore{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("store down: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	empty := monitor.NewEngine(&mockSource{}, slog.Default(), 0)
	rec = httptest.NewRecorder()
	Ready(empty, store.NewMemory()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("no snapshot: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestGames(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/games", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	games := decode[[]sensor.Game](t, rec)
	if len(games) != 2 {
		t.Fatalf("len(games) = %d, want 2", len(games))
	}
	if games[0].Device.Name != "Itch.io Game: alpha" {
		t.Errorf("device name = %q", games[0].Device.Name)
	}
	if games[0].Device.SWVersion != "Unknown" {
		t.Errorf("sw_version = %q, want Unknown", games[0].Device.SWVersion)
	}
	if len(games[0].Sensors) != 8 {
		t.Errorf("len(sensors) = %d, want 8", len(games[0].Sensors))
	}
}

func TestSensors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		query string
		code  int
		count int
	}{
		{"all", "", http.StatusOK, 16},
		{"one game", "?game_id=2", http.StatusOK, 8},
		{"unknown game", "?game_id=99", http.StatusOK, 0},
		{"bad id", "?game_id=abc", http.StatusBadRequest, 0},
		{"negative id", "?game_id=-1", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/sensors"+tt.query, "")
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.code != http.StatusOK {
				return
			}
			states := decode[[]sensor.State](t, rec)
			if len(states) != tt.count {
				t.Errorf("len(states) = %d, want %d", len(states), tt.count)
			}
		})
	}
}

func TestSensorByID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/sensors/itchio_1_earnings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	st := decode[sensor.State](t, rec)
	if st.State != 12.34 {
		t.Errorf("earnings state = %v, want 12.34", st.State)
	}
	if st.Name != "Itch.io alpha Earnings" {
		t.Errorf("name = %q", st.Name)
	}

	rec = f.do(t, http.MethodGet, "/api/sensors/itchio_2_views_count_daily_change", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("daily change: status = %d, want %d", rec.Code, http.StatusOK)
	}
	dc := decode[sensor.State](t, rec)
	if dc.State != float64(0) {
		t.Errorf("first daily change = %v, want 0", dc.State)
	}

	rec = f.do(t, http.MethodGet, "/api/sensors/itchio_9_views_count", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	st := decode[monitor.Status](t, rec)
	if st.LastOutcome != monitor.OutcomeUpdated {
		t.Errorf("outcome = %q, want %q", st.LastOutcome, monitor.OutcomeUpdated)
	}

	f.src.fail(&itchio.TransportError{Err: errors.New("dial tcp: timeout")})
	rec = f.do(t, http.MethodPost, "/api/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("fallback: status = %d, want %d", rec.Code, http.StatusOK)
	}
	st = decode[monitor.Status](t, rec)
	if st.LastOutcome != monitor.OutcomeFallback {
		t.Errorf("outcome = %q, want %q", st.LastOutcome, monitor.OutcomeFallback)
	}
	if st.Games != 2 {
		t.Errorf("games = %d, want 2", st.Games)
	}

	_ = f.engine.Close()
	rec = f.do(t, http.MethodPost, "/api/refresh", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("closed: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestRefreshNoCache(t *testing.T) {
	src := &mockSource{err: &itchio.ProtocolError{StatusCode: http.StatusForbidden, Err: errors.New("forbidden")}}
	engine := monitor.NewEngine(src, slog.Default(), 0)

	rec := httptest.NewRecorder()
	Refresh(engine).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestOptions(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/options", "")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"scan_interval":5}` {
		t.Errorf("GET body = %s", got)
	}

	tests := []struct {
		name string
		body string
		code int
	}{
		{"valid", `{"scan_interval":15}`, http.StatusOK},
		{"too short", `{"scan_interval":2}`, http.StatusBadRequest},
		{"missing", `{}`, http.StatusBadRequest},
		{"malformed", `{"scan_interval":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPut, "/api/options", tt.body)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.code, rec.Body.String())
			}
		})
	}

	if got := f.engine.Interval(); got != 15*time.Minute {
		t.Errorf("interval = %s, want 15m", got)
	}
}

type mockValidator struct{ valid string }

func (m mockValidator) ValidateAPIKey(_ context.Context, key string) error {
	if key == "" || key != m.valid {
		return fmt.Errorf("%w: status 403", itchio.ErrInvalidAPIKey)
	}
	return nil
}

func TestValidateConfig(t *testing.T) {
	h := ValidateConfig(mockValidator{valid: "good-key"})

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"valid key", `{"api_key":"good-key"}`, http.StatusOK, `{"valid":true}`},
		{"rejected key", `{"api_key":"bad-key"}`, http.StatusBadRequest, `{"errors":{"base":"invalid_api_key"}}`},
		{"empty key", `{"api_key":""}`, http.StatusBadRequest, `{"errors":{"base":"invalid_api_key"}}`},
		{"short interval", `{"api_key":"good-key","scan_interval":1}`, http.StatusBadRequest, ""},
		{"malformed", `not json`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/config/validate", strings.NewReader(tt.body)))
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.want != "" && strings.TrimSpace(rec.Body.String()) != tt.want {
				t.Errorf("body = %s, want %s", rec.Body.String(), tt.want)
			}
		})
	}
}
