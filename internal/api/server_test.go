package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/zebra-sa/internal/persistence"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	db, err := persistence.Open(filepath.Join(dir, "zebra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Server{
		DB:      db,
		DataDir: filepath.Join(dir, "logs"),
		Now:     func() time.Time { return fixedNow },
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, h http.Handler, body string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/session/create", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[map[string]string](t, rec)["session_id"]
}

func TestHealth(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestCreateSessionDefaults(t *testing.T) {
	h := newTestServer(t).Handler()
	sid := createSession(t, h, "")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{12}$`), sid)

	rec := do(t, h, http.MethodGet, "/session/"+sid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode[persistence.Session](t, rec)
	assert.Equal(t, persistence.StatusCreated, sess.Status)
	assert.Equal(t, 6, sess.Config.Agents)
	assert.Equal(t, 6, sess.Config.Houses)
	assert.Equal(t, 200, sess.Config.Days)
	assert.Equal(t, sid, sess.Config.SessionID)
	assert.Nil(t, sess.Config.Seed)
}

func TestCreateSessionBothPaths(t *testing.T) {
	h := newTestServer(t).Handler()
	for _, path := range []string{"/session", "/session/create"} {
		rec := do(t, h, http.MethodPost, path, `{"agents": 10, "days": 5}`)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestCreateSessionRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", `{"agents": 6, "colour": "red"}`},
		{"too many agents", `{"agents": 20001}`},
		{"no agents", `{"agents": 0}`},
		{"one house", `{"houses": 1}`},
		{"too many houses", `{"houses": 51}`},
		{"zero days", `{"days": 0}`},
		{"noise above one", `{"noise": 1.5}`},
		{"bad share", `{"share": "gossip"}`},
		{"who without strategy", `{"mt_who": "a1"}`},
		{"strategy without who", `{"mt_strategy": {"p_left": 1, "p_right": 1, "p_home": 1, "p_house_exch": 0, "p_pet_exch": 0}}`},
		{"strategy out of range", `{"mt_who": "a1", "mt_strategy": {"p_left": 101, "p_right": 0, "p_home": 0, "p_house_exch": 0, "p_pet_exch": 0}}`},
		{"strategy missing field", `{"mt_who": "a1", "mt_strategy": {"p_left": 50, "p_right": 50}}`},
		{"strategy unknown field", `{"mt_who": "a1", "mt_strategy": {"p_up": 1}}`},
		{"not json", `agents=6`},
	}
	h := newTestServer(t).Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/session/create", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestRunSession(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	sid := createSession(t, h, `{"agents": 6, "houses": 6, "days": 20, "share": "meet", "seed": 5,
		"mt_who": "a1", "mt_strategy": {"p_left": 50, "p_right": 50, "p_home": 0, "p_house_exch": 0, "p_pet_exch": 100}}`)

	rec := do(t, h, http.MethodGet, "/session/"+sid+"/metrics", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/session/"+sid+"/run", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[RunResponse](t, rec)
	assert.Equal(t, "done", resp.Status)
	assert.Equal(t, sid, resp.SessionID)
	assert.InDelta(t, float64(fixedNow.Unix()), resp.FinishedAt, 1e-3)
	for _, p := range []string{resp.CSV, resp.XML, resp.Metrics} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	assert.Equal(t, filepath.Join(s.DataDir, "game_"+sid+".csv"), resp.CSV)

	// A second call returns the stored result.
	s.Now = func() time.Time { return fixedNow.Add(time.Hour) }
	rec = do(t, h, http.MethodPost, "/session/"+sid+"/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp, decode[RunResponse](t, rec))

	rec = do(t, h, http.MethodGet, "/session/"+sid+"/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := decode[struct {
		Tracked []string `json:"tracked"`
		Metrics []struct {
			Day      int     `json:"day"`
			AvgSAAny float64 `json:"avg_sa_any"`
		} `json:"metrics"`
	}](t, rec)
	assert.Equal(t, []string{"a1"}, metrics.Tracked)
	assert.Len(t, metrics.Metrics, 20)

	rec = do(t, h, http.MethodGet, "/session/"+sid+"/metrics?who=a1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	series := decode[struct {
		Series []persistence.AgentPoint `json:"series"`
	}](t, rec)
	assert.Len(t, series.Series, 20)

	rec = do(t, h, http.MethodGet, "/session/"+sid+"/metrics?who=a3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/session/"+sid+"/events?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[struct {
		Events []json.RawMessage `json:"events"`
	}](t, rec)
	assert.Len(t, events.Events, 5)

	rec = do(t, h, http.MethodGet, "/session/"+sid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode[persistence.Session](t, rec)
	assert.True(t, sess.Finished())
	require.NotNil(t, sess.Seed)
	assert.Equal(t, int64(5), *sess.Seed)

	rec = do(t, h, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Sessions []persistence.Session `json:"sessions"`
	}](t, rec)
	assert.Len(t, list.Sessions, 1)
}

func TestUnknownSession(t *testing.T) {
	h := newTestServer(t).Handler()
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/session/deadbeef0000/run"},
		{http.MethodPost, "/session/deadbeef0000/start"},
		{http.MethodGet, "/session/deadbeef0000"},
		{http.MethodGet, "/session/deadbeef0000/metrics"},
		{http.MethodGet, "/session/deadbeef0000/events"},
	} {
		rec := do(t, h, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
	}
}

func TestConcurrentRunsShareOneExecution(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	sid := createSession(t, h, `{"agents": 30, "days": 60, "seed": 2}`)

	var wg sync.WaitGroup
	codes := make([]int, 8)
	bodies := make([]RunResponse, 8)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := do(t, h, http.MethodPost, "/session/"+sid+"/run", "")
			codes[i] = rec.Code
			_ = json.Unmarshal(rec.Body.Bytes(), &bodies[i])
		}(i)
	}
	wg.Wait()
	for i := range codes {
		assert.Equal(t, http.StatusOK, codes[i])
		assert.Equal(t, bodies[0], bodies[i])
	}
}

func TestAdminKey(t *testing.T) {
	s := newTestServer(t)
	s.AdminKey = "s3cret"
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/session/create", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, http.MethodPost, "/session/create", `{}`, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, http.MethodPost, "/session/create", `{}`, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t)
	s.RPS = 0.001
	s.Burst = 2
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Another client has its own budget.
	rec = do(t, h, http.MethodGet, "/health", "", "X-Real-IP", "10.0.0.9")
	assert.Equal(t, http.StatusOK, rec.Code)
}
