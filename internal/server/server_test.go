package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/creatornet/pkg/cache"
	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/pipeline"
	"github.com/matzehuels/creatornet/pkg/scene"
	"github.com/matzehuels/creatornet/pkg/session"
	"github.com/matzehuels/creatornet/pkg/source"
)

func testPayload() network.Payload {
	return network.Payload{
		Creators: []network.Creator{
			{ID: "a", Name: "Alpha", Followers: 120000},
			{ID: "b", Name: "Beta", Followers: 45000},
			{ID: "c", Name: "Gamma", Followers: 800},
		},
		CreatorEdges: []network.CreatorEdge{
			{Source: "a", Target: "b", Weight: 0.9},
			{Source: "b", Target: "c", Weight: 0.3},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	src, err := source.NewFile(filepath.Join(t.TempDir(), "{platform}.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Save(context.Background(), source.DefaultPlatform, testPayload()); err != nil {
		t.Fatal(err)
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := session.NewMemoryStore(nil)
	t.Cleanup(func() { store.Close() })

	return New(Config{
		Runner:   pipeline.NewRunner(src, c, nil, nil),
		Sessions: store,
		Session:  session.Options{FrameInterval: 5 * time.Millisecond},
	})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, code errors.Code) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	if got := decode[errorResponse](t, rec); got.Code != code {
		t.Errorf("code = %q, want %q", got.Code, code)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["status"] != "ok" {
		t.Errorf("body = %v", got)
	}
}

func TestNetwork(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/network", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if p := decode[network.Payload](t, rec); len(p.Creators) != 3 {
		t.Errorf("creators = %d, want 3", len(p.Creators))
	}

	wantError(t, do(t, s, http.MethodGet, "/api/network?platform=douyin", nil), http.StatusNotFound, errors.ErrCodeFileNotFound)
	wantError(t, do(t, s, http.MethodGet, "/api/network?platform=Bad%20Name", nil), http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestLayout(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/layout", map[string]any{"width": 400, "height": 300})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[layoutResponse](t, rec)
	if got.Frame.Width != 400 || got.Frame.Height != 300 {
		t.Errorf("canvas = %gx%g, want 400x300", got.Frame.Width, got.Frame.Height)
	}
	if len(got.Positions) != 3 {
		t.Fatalf("positions = %d, want 3", len(got.Positions))
	}
	for id, p := range got.Positions {
		if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
			t.Errorf("position %s = %+v, want percentages", id, p)
		}
	}

	again := decode[layoutResponse](t, do(t, s, http.MethodPost, "/api/layout", map[string]any{"width": 400, "height": 300}))
	if !again.Cached {
		t.Error("second layout was not served from cache")
	}
}

func TestLayoutInvalid(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/layout", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	wantError(t, rec, http.StatusBadRequest, errors.ErrCodeInvalidInput)

	wantError(t, do(t, s, http.MethodPost, "/api/layout", map[string]any{"metric": "likes"}), http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestRender(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		query       string
		contentType string
		contains    string
	}{
		{"", "image/svg+xml", "<svg"},
		{"format=svg&selected=a", "image/svg+xml", "<svg"},
		{"format=dot", "text/vnd.graphviz", "graph creators"},
		{"format=json&width=500&height=500", "application/json", `"nodes"`},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/render?"+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}

	t.Run("Errors", func(t *testing.T) {
		wantError(t, do(t, s, http.MethodGet, "/api/render?format=gif", nil), http.StatusBadRequest, errors.ErrCodeInvalidFormat)
		wantError(t, do(t, s, http.MethodGet, "/api/render?width=wide", nil), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	})
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/sessions", map[string]any{"width": 600, "height": 400})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[sessionResponse](t, rec)
	if created.ID == "" || len(created.Frame.Nodes) != 3 || created.Frame.Width != 600 {
		t.Fatalf("created = %+v", created)
	}
	base := "/api/sessions/" + created.ID

	if rec := do(t, s, http.MethodGet, base, nil); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = do(t, s, http.MethodPut, base+"/selection", map[string]string{"selected": "b"})
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d: %s", rec.Code, rec.Body.String())
	}
	if sel := decode[scene.Selection](t, rec); sel.Selected != "b" {
		t.Errorf("selected = %q, want b", sel.Selected)
	}
	wantError(t, do(t, s, http.MethodPut, base+"/selection", map[string]string{"selected": "zz"}), http.StatusNotFound, errors.ErrCodeNotFound)

	rec = do(t, s, http.MethodPost, base+"/pointer", map[string]any{"type": "down", "node": "a", "x": 300, "y": 200})
	if rec.Code != http.StatusOK {
		t.Fatalf("pointer status = %d: %s", rec.Code, rec.Body.String())
	}
	if sel := decode[scene.Selection](t, rec); sel.Dragging != "a" {
		t.Errorf("dragging = %q, want a", sel.Dragging)
	}
	do(t, s, http.MethodPost, base+"/pointer", map[string]any{"type": "up"})
	wantError(t, do(t, s, http.MethodPost, base+"/pointer", map[string]any{"type": "wiggle"}), http.StatusBadRequest, errors.ErrCodeInvalidInput)

	if rec := do(t, s, http.MethodDelete, base, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	wantError(t, do(t, s, http.MethodGet, base, nil), http.StatusNotFound, errors.ErrCodeSessionNotFound)
}

func TestSessionEvents(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	rec := do(t, s, http.MethodPost, "/api/sessions", nil)
	created := decode[sessionResponse](t, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sessions/"+created.ID+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q", got)
	}

	lines := bufio.NewScanner(resp.Body)
	lines.Buffer(make([]byte, 1<<20), 1<<20)
	next := func() string {
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, "event: ") {
				return strings.TrimPrefix(line, "event: ")
			}
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return ""
	}

	if got := next(); got != "frame" {
		t.Fatalf("first event = %q, want frame", got)
	}

	if rec := do(t, s, http.MethodPut, "/api/sessions/"+created.ID+"/selection", map[string]string{"selected": "c"}); rec.Code != http.StatusOK {
		t.Fatalf("select status = %d", rec.Code)
	}
	for {
		if next() == "select" {
			break
		}
	}

	do(t, s, http.MethodDelete, "/api/sessions/"+created.ID, nil)
	for {
		if next() == "close" {
			break
		}
	}
}

func TestNoRunner(t *testing.T) {
	s := New(Config{})
	wantError(t, do(t, s, http.MethodGet, "/api/network", nil), http.StatusInternalServerError, errors.ErrCodeInternal)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t)
	wantError(t, do(t, s, http.MethodGet, "/api/sessions/nope/events", nil), http.StatusNotFound, errors.ErrCodeSessionNotFound)
	if rec := do(t, s, http.MethodDelete, "/api/sessions/nope", nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete unknown status = %d", rec.Code)
	}
}
