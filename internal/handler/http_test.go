package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"seadrift/internal/archive"
	"seadrift/internal/assess"
	"seadrift/internal/domain"
	"seadrift/internal/drift"
	"seadrift/internal/environment"
	"seadrift/internal/geo"
	"seadrift/internal/search"
	"seadrift/internal/store"
	"seadrift/internal/tracker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	mux     *http.ServeMux
	store   *store.Store
	tracker *tracker.Tracker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := discardLogger()
	classifier := geo.NewClassifier(geo.DefaultParams())
	estimator := environment.NewEstimator(classifier, environment.DefaultParams(), environment.NewLockedRand(7, 11))
	assessor := assess.New(
		classifier,
		estimator,
		drift.NewEngine(drift.DefaultParams()),
		search.NewGenerator(search.DefaultParams()),
		nil,
		logger,
	)
	s := store.New(72 * time.Hour)
	tr := tracker.New(assessor, s, nil, nil, nil, tracker.Config{Interval: time.Minute}, logger)

	httpHandler := NewHTTPHandler(s, tr)
	assessHandler := NewAssessHandler(assessor, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/assess", assessHandler.Assess)
	mux.HandleFunc("GET /v1/conditions", assessHandler.Conditions)
	mux.HandleFunc("GET /v1/profiles", assessHandler.ListProfiles)
	mux.HandleFunc("POST /v1/incidents", httpHandler.CreateIncident)
	mux.HandleFunc("GET /v1/incidents", httpHandler.ListIncidents)
	mux.HandleFunc("GET /v1/incidents/{id}", httpHandler.GetIncident)
	mux.HandleFunc("DELETE /v1/incidents/{id}", httpHandler.DeleteIncident)

	return &testServer{mux: mux, store: s, tracker: tr}
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
	}
}

func TestAssess_Marine(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/v1/assess", `{
		"position": {"lat": 29.30, "lng": -94.80},
		"elapsedMinutes": 60,
		"profile": "person",
		"wind": {"speed": 20, "deg": 90},
		"current": {"speed": 1.0, "direction": 90}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var a domain.Assessment
	decodeBody(t, rec, &a)
	if a.Mode != domain.ModeMarine {
		t.Fatalf("mode=%v", a.Mode)
	}
	if d := a.Drift.TotalDistanceNm - 1.718976; d > 1e-9 || d < -1e-9 {
		t.Fatalf("total drift=%v", a.Drift.TotalDistanceNm)
	}
	if !a.Weather.Fallback {
		t.Fatal("expected fallback weather without a provider")
	}
	if len(a.Report.Recommendations) == 0 {
		t.Fatal("missing recommendations")
	}
}

func TestAssess_BadRequests(t *testing.T) {
	ts := newTestServer(t)
	cases := []struct {
		name string
		body string
	}{
		{"Malformed", `{`},
		{"UnknownField", `{"position": {"lat": 1, "lng": 1}, "speed": 3}`},
		{"UnknownProfile", `{"position": {"lat": 1, "lng": 1}, "profile": "kayak"}`},
		{"BadLatitude", `{"position": {"lat": 95, "lng": 1}}`},
		{"NegativeElapsed", `{"position": {"lat": 1, "lng": 1}, "elapsedMinutes": -5}`},
		{"HugeElapsed", `{"position": {"lat": 1, "lng": 1}, "elapsedMinutes": 1e200}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/v1/assess", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
			var e errorResponse
			decodeBody(t, rec, &e)
			if e.Error == "" {
				t.Fatal("empty error message")
			}
		})
	}
}

func TestConditions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/conditions?lat=29.8&lng=-95.4", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp ConditionsResponse
	decodeBody(t, rec, &resp)
	if !resp.Conditions.Inland || !resp.Current.WindOnlyMode {
		t.Fatalf("conditions=%+v current=%+v", resp.Conditions, resp.Current)
	}

	for _, q := range []string{"", "?lat=29.8", "?lat=abc&lng=1", "?lat=91&lng=0"} {
		if rec := ts.do(t, http.MethodGet, "/v1/conditions"+q, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("query %q status=%d", q, rec.Code)
		}
	}
}

func TestListProfiles(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/v1/profiles", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var resp struct {
		Profiles []ProfileResponse `json:"profiles"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Profiles) != 4 {
		t.Fatalf("profiles=%+v", resp.Profiles)
	}
	first := resp.Profiles[0]
	if first.Name != domain.ProfilePerson || first.CurrentFactor != 0.85 || first.WindFactor != 0.05 {
		t.Fatalf("first=%+v", first)
	}
	if resp.Profiles[3].Name != domain.ProfileLifeRaft || resp.Profiles[3].WindFactor != 0.40 {
		t.Fatalf("last=%+v", resp.Profiles[3])
	}
}

func TestIncidentLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/incidents", `{
		"id": "mob-1",
		"position": {"lat": 28.85, "lng": -94.20},
		"elapsedMinutes": 30,
		"profile": "life_raft"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/incidents/mob-1" {
		t.Fatalf("Location=%q", loc)
	}
	var created domain.TrackedIncident
	decodeBody(t, rec, &created)
	if created.Latest == nil || created.Mode != domain.ModeMarine {
		t.Fatalf("created=%+v", created)
	}

	if rec := ts.do(t, http.MethodPost, "/v1/incidents", `{"id": "mob-1", "position": {"lat": 28.85, "lng": -94.20}}`); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status=%d", rec.Code)
	}
	if rec := ts.do(t, http.MethodPost, "/v1/incidents", `{"id": "old", "position": {"lat": 28.85, "lng": -94.20}, "elapsedMinutes": 3e8}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("huge elapsed status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/v1/incidents/mob-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status=%d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/v1/incidents?mode=marine", "")
	var list IncidentsResponse
	decodeBody(t, rec, &list)
	if list.Count != 1 {
		t.Fatalf("marine count=%d", list.Count)
	}
	rec = ts.do(t, http.MethodGet, "/v1/incidents?mode=inland", "")
	list = IncidentsResponse{}
	decodeBody(t, rec, &list)
	if list.Count != 0 {
		t.Fatalf("inland count=%d", list.Count)
	}
	rec = ts.do(t, http.MethodGet, "/v1/incidents?bbox=28,-95,29,-94", "")
	list = IncidentsResponse{}
	decodeBody(t, rec, &list)
	if list.Count != 1 {
		t.Fatalf("bbox count=%d", list.Count)
	}

	if rec := ts.do(t, http.MethodDelete, "/v1/incidents/mob-1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/v1/incidents/mob-1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", rec.Code)
	}
	if rec := ts.do(t, http.MethodDelete, "/v1/incidents/mob-1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rec.Code)
	}
}

func TestCreateIncident_AssignsID(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/v1/incidents", `{"position": {"lat": 29.8, "lng": -95.4}, "elapsedMinutes": 10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created domain.TrackedIncident
	decodeBody(t, rec, &created)
	if created.Incident.ID == "" || created.Mode != domain.ModeInland {
		t.Fatalf("created=%+v", created.Incident)
	}
	if ts.store.Count() != 1 {
		t.Fatalf("store count=%d", ts.store.Count())
	}
}

func TestListIncidents_BadQuery(t *testing.T) {
	ts := newTestServer(t)
	for _, q := range []string{"?mode=river", "?bbox=1,2,3", "?bbox=a,b,c,d", "?bbox=30,0,29,1"} {
		if rec := ts.do(t, http.MethodGet, "/v1/incidents"+q, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("query %q status=%d", q, rec.Code)
		}
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	ts := newTestServer(t)
	big := `{"id": "` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/incidents", bytes.NewBufferString(big))
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d", rec.Code)
	}
}

type stubArchive struct {
	from, to time.Time
	err      error
}

func (s *stubArchive) Stats(ctx context.Context, from, to time.Time) (archive.Stats, error) {
	s.from, s.to = from, to
	return archive.Stats{From: from, To: to, Assessments: 3}, s.err
}

func TestArchiveStats(t *testing.T) {
	stub := &stubArchive{}
	h := NewArchiveHandler(stub, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/archive/stats?from=2024-07-01T00:00:00Z&to=2024-07-02T00:00:00Z", nil)
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !stub.from.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)) || stub.to.Sub(stub.from) != 24*time.Hour {
		t.Fatalf("range=%v..%v", stub.from, stub.to)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/archive/stats?to=2024-07-02T00:00:00Z", nil)
	rec = httptest.NewRecorder()
	h.GetStats(rec, req)
	if stub.to.Sub(stub.from) != defaultStatsRange {
		t.Fatalf("default range=%v", stub.to.Sub(stub.from))
	}

	for _, q := range []string{"?from=yesterday", "?to=2024-07-01", "?from=2024-07-02T00:00:00Z&to=2024-07-01T00:00:00Z", "?from=0001-01-01T00:00:00Z&to=9999-12-31T00:00:00Z"} {
		rec := httptest.NewRecorder()
		h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/v1/archive/stats"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("query %q status=%d", q, rec.Code)
		}
	}
}

func TestArchiveStats_Disabled(t *testing.T) {
	h := NewArchiveHandler(nil, discardLogger())
	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/v1/archive/stats", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
}

type stubLatest struct {
	byID map[string]*domain.Assessment
	err  error
}

func (l *stubLatest) Latest(ctx context.Context, id string) (*domain.Assessment, bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	a, ok := l.byID[id]
	return a, ok, nil
}

func TestGetIncident_FallsBackToLatest(t *testing.T) {
	computed := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)
	latest := &stubLatest{byID: map[string]*domain.Assessment{
		"remote-1": {
			Incident:   domain.Incident{ID: "remote-1"},
			Mode:       domain.ModeInland,
			ComputedAt: computed,
		},
	}}

	serve := func(h *HTTPHandler, id string) *httptest.ResponseRecorder {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/incidents/{id}", h.GetIncident)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/incidents/"+id, nil))
		return rec
	}

	h := NewHTTPHandler(store.New(0), nil).WithLatest(latest)
	rec := serve(h, "remote-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Seadrift-Source") != "cache" {
		t.Fatalf("source header=%q", rec.Header().Get("X-Seadrift-Source"))
	}
	var got domain.TrackedIncident
	decodeBody(t, rec, &got)
	if got.Incident.ID != "remote-1" || got.Mode != domain.ModeInland || got.Latest == nil || !got.UpdatedAt.Equal(computed) {
		t.Fatalf("incident=%+v", got)
	}

	if rec := serve(h, "nowhere"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing status=%d", rec.Code)
	}

	h = NewHTTPHandler(store.New(0), nil).WithLatest(&stubLatest{err: errors.New("connection refused")})
	if rec := serve(h, "remote-1"); rec.Code != http.StatusBadGateway {
		t.Fatalf("cache error status=%d", rec.Code)
	}

	h = NewHTTPHandler(store.New(0), nil).WithLatest(nil)
	if rec := serve(h, "remote-1"); rec.Code != http.StatusNotFound {
		t.Fatalf("no fallback status=%d", rec.Code)
	}
}

type readiness bool

func (r readiness) IsReady() bool { return bool(r) }

func TestReadyz(t *testing.T) {
	s := store.New(0)
	cases := []struct {
		ready bool
		want  int
	}{
		{false, http.StatusServiceUnavailable},
		{true, http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		NewHealthHandler(readiness(tc.ready), s).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rec.Code != tc.want {
			t.Fatalf("ready=%v status=%d", tc.ready, rec.Code)
		}
		var resp ReadyResponse
		decodeBody(t, rec, &resp)
		if resp.Ready != tc.ready {
			t.Fatalf("body ready=%v", resp.Ready)
		}
	}
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

func TestReadyz_CachePing(t *testing.T) {
	s := store.New(0)
	cases := []struct {
		name      string
		cache     Pinger
		want      int
		wantCache string
	}{
		{"NoCache", nil, http.StatusOK, ""},
		{"CacheUp", pinger{}, http.StatusOK, "ok"},
		{"CacheDown", pinger{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, "unreachable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(readiness(true), s).WithCache(tc.cache).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tc.want {
				t.Fatalf("status=%d want %d", rec.Code, tc.want)
			}
			var resp ReadyResponse
			decodeBody(t, rec, &resp)
			if resp.Cache != tc.wantCache {
				t.Fatalf("cache=%q want %q", resp.Cache, tc.wantCache)
			}
		})
	}
}

type clientCount int

func (c clientCount) ClientCount() int { return int(c) }

func TestGetStats(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/v1/incidents", `{"id": "a", "position": {"lat": 28.85, "lng": -94.20}}`)
	ts.do(t, http.MethodPost, "/v1/incidents", `{"id": "b", "position": {"lat": 29.8, "lng": -95.4}}`)

	rec := httptest.NewRecorder()
	NewStatsHandler(ts.store, clientCount(3), nil, nil).GetStats(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	var resp StatsResponse
	decodeBody(t, rec, &resp)
	if resp.Incidents.Total != 2 || resp.Incidents.Inland != 1 || resp.Incidents.Marine != 1 {
		t.Fatalf("incidents=%+v", resp.Incidents)
	}
	if resp.WebSocket.Clients != 3 {
		t.Fatalf("clients=%d", resp.WebSocket.Clients)
	}
	if resp.Archive != nil || resp.RateLimit != nil {
		t.Fatal("optional sections should be omitted")
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	h := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/assess", nil))
	if rec.Code != http.StatusNoContent || called {
		t.Fatalf("status=%d called=%v", rec.Code, called)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}
