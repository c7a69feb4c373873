package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/creatornet/pkg/buildinfo"
	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/pipeline"
	"github.com/matzehuels/creatornet/pkg/render"
	"github.com/matzehuels/creatornet/pkg/scene"
	"github.com/matzehuels/creatornet/pkg/session"
)

// layoutRequest is the body of POST /api/layout and POST /api/sessions.
type layoutRequest struct {
	Platform string  `json:"platform"`
	Metric   string  `json:"metric"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Seed     uint64  `json:"seed"`
	Weighted *bool   `json:"weighted,omitempty"`
	Refresh  bool    `json:"refresh"`
}

type layoutResponse struct {
	Frame layout.Frame `json:"frame"`
	// Positions are node centers as percentages of the canvas, suitable as
	// seed positions for a later layout.
	Positions map[string]network.Position `json:"positions"`
	Cached    bool                        `json:"cached"`
}

type sessionResponse struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Frame     layout.Frame    `json:"frame"`
	Selection scene.Selection `json:"selection"`
}

type selectionRequest struct {
	Selected string `json:"selected"`
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runner()
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts := s.options()
	opts.Platform = queryOr(r, "platform", opts.Platform)
	opts.Refresh = r.URL.Query().Get("refresh") == "true"

	p, err := runner.LoadNetwork(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runner()
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req layoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	opts := s.options()
	req.apply(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, err)
		return
	}

	p, err := runner.LoadNetwork(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	f, hit, err := runner.LayoutWithCacheInfo(r.Context(), p, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	g := f.Graph()
	positions := make(map[string]network.Position, len(g.Nodes))
	for _, n := range g.Nodes {
		positions[n.ID] = *n.Position
	}
	writeJSON(w, http.StatusOK, layoutResponse{Frame: f, Positions: positions, Cached: hit})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runner()
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	opts := s.options()
	opts.Platform = queryOr(r, "platform", opts.Platform)
	opts.Metric = queryOr(r, "metric", opts.Metric)
	opts.Selected = q.Get("selected")
	opts.Title = q.Get("title")
	opts.Refresh = q.Get("refresh") == "true"
	format := queryOr(r, "format", pipeline.DefaultFormat)
	opts.Formats = []string{format}
	for name, dst := range map[string]*float64{"width": &opts.Width, "height": &opts.Height, "scale": &opts.Scale} {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, v))
				return
			}
			*dst = f
		}
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, err)
		return
	}

	p, err := runner.LoadNetwork(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	f, err := runner.Layout(r.Context(), p, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	artifacts, err := runner.Render(r.Context(), f, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rf, _ := render.ParseFormat(format)
	w.Header().Set("Content-Type", rf.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	runner, err := s.runner()
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req layoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	opts := s.options()
	req.apply(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, err)
		return
	}

	p, err := runner.LoadNetwork(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	metric, _ := network.ParseMetric(opts.Metric)

	so := s.cfg.Session
	so.Layout.Width, so.Layout.Height = opts.Width, opts.Height
	so.Layout.Seed = opts.Seed
	so.Layout.WeightedLinks = opts.WeightedLinks
	if so.Logger == nil {
		so.Logger = s.logger
	}
	sess := session.New(p.Graph(metric), so)
	if err := s.cfg.Sessions.Start(sess); err != nil {
		sess.Close()
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, describe(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess.Touch()
	writeJSON(w, http.StatusOK, describe(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var p session.Pointer
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.Pointer(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Selection())
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req selectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.Select(r.Context(), req.Selected); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Selection())
}

func (r layoutRequest) apply(opts *pipeline.Options) {
	if r.Platform != "" {
		opts.Platform = r.Platform
	}
	if r.Metric != "" {
		opts.Metric = r.Metric
	}
	if r.Width != 0 {
		opts.Width = r.Width
	}
	if r.Height != 0 {
		opts.Height = r.Height
	}
	if r.Seed != 0 {
		opts.Seed = r.Seed
	}
	if r.Weighted != nil {
		opts.WeightedLinks = *r.Weighted
	}
	opts.Refresh = r.Refresh
}

func describe(sess *session.Session) sessionResponse {
	return sessionResponse{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt(),
		Frame:     sess.Frame(),
		Selection: sess.Selection(),
	}
}

// options returns a fresh copy of the configured defaults.
func (s *Server) options() pipeline.Options {
	d := s.cfg.Defaults
	return pipeline.Options{
		Platform:      d.Platform,
		Metric:        d.Metric,
		Width:         d.Width,
		Height:        d.Height,
		Seed:          d.Seed,
		Ticks:         d.Ticks,
		WeightedLinks: d.WeightedLinks,
		Scale:         d.Scale,
		Interactive:   d.Interactive,
		LabelBudget:   d.LabelBudget,
		Style:         d.Style,
		Logger:        s.logger,
	}
}

func (s *Server) runner() (*pipeline.Runner, error) {
	if s.cfg.Runner == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no pipeline configured")
	}
	return s.cfg.Runner, nil
}

func (s *Server) session(r *http.Request) (*session.Session, error) {
	return s.cfg.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError responds with {code, message}. Errors without a code are
// internal and their text is not exposed.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		code, msg = errors.ErrCodeTimeout, "request timed out"
	case code == "":
		code, msg = errors.ErrCodeInternal, "internal error"
	}
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
