package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/talgya/zebra-sa/internal/config"
	"github.com/talgya/zebra-sa/internal/engine"
	"github.com/talgya/zebra-sa/internal/persistence"
	"github.com/talgya/zebra-sa/internal/report"
)

// Request limits for new sessions.
const (
	MaxAgents = 20000
	MaxHouses = 50
	MaxDays   = 20000

	maxBodyBytes     = 1 << 20
	defaultDays      = 200
	defaultEventPage = 1000
)

// CreateRequest is the body of POST /session. Omitted fields take defaults:
// 6 agents, 6 houses, 200 days, no sharing, no noise.
type CreateRequest struct {
	Agents     *int        `json:"agents"`
	Houses     *int        `json:"houses"`
	Days       *int        `json:"days"`
	Share      string      `json:"share"`
	Noise      *float64    `json:"noise"`
	Seed       *int64      `json:"seed"`
	SASample   *int        `json:"sa_sample"`
	Track      []string    `json:"track"`
	MTWho      string      `json:"mt_who"`
	MTStrategy *MTStrategy `json:"mt_strategy"`
}

// MTStrategy is a strategy override in whole percentages.
type MTStrategy struct {
	PLeft      *int `json:"p_left"`
	PRight     *int `json:"p_right"`
	PHome      *int `json:"p_home"`
	PHouseExch *int `json:"p_house_exch"`
	PPetExch   *int `json:"p_pet_exch"`
}

// RunResponse is returned by the run endpoints.
type RunResponse struct {
	Status     string  `json:"status"`
	SessionID  string  `json:"session_id"`
	CSV        string  `json:"csv"`
	XML        string  `json:"xml"`
	Metrics    string  `json:"metrics"`
	FinishedAt float64 `json:"finished_at"` // Unix seconds
}

// NewSessionID returns 12 hex characters of a random UUID.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// toConfig checks the request against the API limits and builds the run
// configuration for session sid.
func (req CreateRequest) toConfig(sid string) (config.Run, error) {
	cfg := config.Default()
	cfg.Days = defaultDays
	cfg.SessionID = sid

	var errs []error
	intField := func(name string, v *int, lo, hi int, dst *int) {
		if v == nil {
			return
		}
		if *v < lo || *v > hi {
			errs = append(errs, fmt.Errorf("%s must be within [%d, %d], got %d", name, lo, hi, *v))
			return
		}
		*dst = *v
	}
	intField("agents", req.Agents, 1, MaxAgents, &cfg.Agents)
	intField("houses", req.Houses, 2, MaxHouses, &cfg.Houses)
	intField("days", req.Days, 1, MaxDays, &cfg.Days)
	intField("sa_sample", req.SASample, 0, MaxAgents, &cfg.SASample)

	if req.Share != "" {
		cfg.Share = config.ShareMode(req.Share)
	}
	if req.Noise != nil {
		cfg.Noise = *req.Noise
	}
	cfg.Seed = req.Seed
	cfg.Track = req.Track

	switch {
	case req.MTWho != "" && req.MTStrategy != nil:
		spec, err := req.MTStrategy.spec()
		if err != nil {
			errs = append(errs, err)
			break
		}
		cfg.Override = &config.StrategyOverride{Who: req.MTWho, Strategy: spec}
		cfg.Track = append(cfg.Track, req.MTWho)
	case req.MTWho != "" || req.MTStrategy != nil:
		errs = append(errs, errors.New("mt_who and mt_strategy must be given together"))
	}

	if len(errs) > 0 {
		return config.Run{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return config.Run{}, err
	}
	return cfg, nil
}

func (m MTStrategy) spec() (config.StrategySpec, error) {
	var errs []error
	get := func(name string, v *int) float64 {
		if v == nil {
			errs = append(errs, fmt.Errorf("mt_strategy.%s is required", name))
			return 0
		}
		if *v < 0 || *v > 100 {
			errs = append(errs, fmt.Errorf("mt_strategy.%s must be within [0, 100], got %d", name, *v))
			return 0
		}
		return float64(*v)
	}
	spec := config.StrategySpec{
		Left:      get("p_left", m.PLeft),
		Right:     get("p_right", m.PRight),
		Home:      get("p_home", m.PHome),
		HouseExch: get("p_house_exch", m.PHouseExch),
		PetExch:   get("p_pet_exch", m.PPetExch),
	}
	// Percent values above 1 are rescaled by NormalizeStrategy, so a value of
	// exactly 1 would be read as certainty. Convert to fractions here.
	spec.Left /= 100
	spec.Right /= 100
	spec.Home /= 100
	spec.HouseExch /= 100
	spec.PetExch /= 100
	return spec, errors.Join(errs...)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sid := NewSessionID()
	cfg, err := req.toConfig(sid)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.DB.CreateSession(sid, cfg, s.now()); err != nil {
		slog.Error("create session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store session")
		return
	}

	slog.Info("session created", "session_id", sid, "agents", cfg.Agents, "houses", cfg.Houses, "days", cfg.Days)
	writeJSON(w, http.StatusOK, map[string]string{"session_id": sid})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	resp, err := s.run(sid)
	if errors.Is(err, persistence.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "unknown session_id")
		return
	}
	if err != nil {
		slog.Error("run failed", "session_id", sid, "error", err)
		writeError(w, http.StatusInternalServerError, "run failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// run executes a session once. Concurrent calls for the same session share a
// single execution; later calls return the stored result.
func (s *Server) run(sid string) (*RunResponse, error) {
	v, err, shared := s.runs.Do(sid, func() (any, error) {
		sess, err := s.DB.GetSession(sid)
		if err != nil {
			return nil, err
		}
		if sess.Finished() {
			return runResponse(sess.ID, sess.Files, sess.FinishedAt.UnixNano()), nil
		}

		cfg := sess.Config
		cfg.SessionID = sid
		res, err := engine.Run(cfg)
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		files, err := report.WriteRun(s.DataDir, sid, res)
		if err != nil {
			return nil, fmt.Errorf("write outputs: %w", err)
		}
		finished := s.now()
		if err := s.DB.SaveRun(sid, res, files, finished); err != nil {
			return nil, fmt.Errorf("store outputs: %w", err)
		}
		slog.Info("session finished", "session_id", sid, "seed", res.Seed, "events", len(res.Events))
		return runResponse(sid, files, finished.UnixNano()), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("run shared with concurrent caller", "session_id", sid)
	}
	return v.(*RunResponse), nil
}

func runResponse(sid string, files report.RunFiles, finishedNanos int64) *RunResponse {
	return &RunResponse{
		Status:     "done",
		SessionID:  sid,
		CSV:        files.CSV,
		XML:        files.XML,
		Metrics:    files.Metrics,
		FinishedAt: float64(finishedNanos) / 1e9,
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	sessions, err := s.DB.ListSessions(limit)
	if err != nil {
		slog.Error("list sessions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadFinished(w, r)
	if !ok {
		return
	}

	if who := r.URL.Query().Get("who"); who != "" {
		series, err := s.DB.AgentSeries(sess.ID, who)
		if err != nil {
			slog.Error("agent series failed", "session_id", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "could not load metrics")
			return
		}
		if len(series) == 0 {
			writeError(w, http.StatusNotFound, fmt.Sprintf("agent %q was not tracked", who))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session_id": sess.ID, "agent": who, "series": series})
		return
	}

	metrics, err := s.DB.Metrics(sess.ID)
	if err != nil {
		slog.Error("metrics failed", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load metrics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sess.ID, "tracked": sess.Tracked, "metrics": metrics})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadFinished(w, r)
	if !ok {
		return
	}
	events, err := s.DB.Events(sess.ID, queryInt(r, "limit", defaultEventPage))
	if err != nil {
		slog.Error("events failed", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sess.ID, "events": events})
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*persistence.Session, bool) {
	sid := chi.URLParam(r, "sid")
	sess, err := s.DB.GetSession(sid)
	if errors.Is(err, persistence.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "unknown session_id")
		return nil, false
	}
	if err != nil {
		slog.Error("get session failed", "session_id", sid, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load session")
		return nil, false
	}
	return sess, true
}

func (s *Server) loadFinished(w http.ResponseWriter, r *http.Request) (*persistence.Session, bool) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return nil, false
	}
	if !sess.Finished() {
		writeError(w, http.StatusConflict, "session has not been run")
		return nil, false
	}
	return sess, true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
