package session

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/interact"
	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/network"
)

func testGraph(ids ...string) network.Graph {
	var g network.Graph
	for i, id := range ids {
		g.Nodes = append(g.Nodes, network.Node{ID: id, Name: id, Magnitude: float64(i + 1)})
		if i > 0 {
			g.Edges = append(g.Edges, network.Edge{Source: ids[i-1], Target: id, Weight: 0.5})
		}
	}
	return g
}

// fixedNow makes every click fall inside the click window.
func fixedNow() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func startSession(t *testing.T, g network.Graph, opts Options) *Session {
	t.Helper()
	if opts.FrameInterval == 0 {
		opts.FrameInterval = time.Millisecond
	}
	s := New(g, opts)
	go s.Run(context.Background())
	t.Cleanup(func() { s.Close() })
	return s
}

func waitFor(t *testing.T, events <-chan Event, match func(Event) bool) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("event channel closed")
			}
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestSessionDragPinsNode(t *testing.T) {
	s := startSession(t, testGraph("a", "b", "c"), Options{})
	events, cancel := s.Subscribe()
	defer cancel()
	ctx := context.Background()

	if err := s.Pointer(ctx, Pointer{Type: PointerDown, Node: "a", X: 200, Y: 150}); err != nil {
		t.Fatalf("Pointer(down) error: %v", err)
	}
	if got := s.Selection().Dragging; got != "a" {
		t.Errorf("Dragging = %q, want a", got)
	}

	ev := waitFor(t, events, func(ev Event) bool {
		if ev.Type != EventFrame {
			return false
		}
		n, ok := ev.Frame.Node("a")
		return ok && n.Pinned() && n.X == 200 && n.Y == 150
	})
	if ev.Frame.Alpha <= 0 {
		t.Errorf("alpha = %v after grab", ev.Frame.Alpha)
	}

	s.Pointer(ctx, Pointer{Type: PointerMove, X: 300, Y: 250})
	waitFor(t, events, func(ev Event) bool {
		n, ok := ev.Frame.Node("a")
		return ev.Type == EventFrame && ok && n.X == 300 && n.Y == 250
	})

	s.Pointer(ctx, Pointer{Type: PointerUp})
	if got := s.Selection().Dragging; got != "" {
		t.Errorf("Dragging = %q after release", got)
	}
	waitFor(t, events, func(ev Event) bool {
		n, ok := ev.Frame.Node("a")
		return ev.Type == EventFrame && ok && !n.Pinned()
	})
}

func TestSessionPointerView(t *testing.T) {
	s := startSession(t, testGraph("a", "b"), Options{})
	events, cancel := s.Subscribe()
	defer cancel()

	view := interact.View{ScaleX: 2, ScaleY: 2}
	s.Pointer(context.Background(), Pointer{Type: PointerDown, Node: "b", X: 400, Y: 300, View: &view})
	waitFor(t, events, func(ev Event) bool {
		n, ok := ev.Frame.Node("b")
		return ev.Type == EventFrame && ok && n.X == 200 && n.Y == 150
	})
}

func TestSessionClickSelects(t *testing.T) {
	s := startSession(t, testGraph("a", "b", "c"), Options{Interact: interact.Options{Now: fixedNow}})
	events, cancel := s.Subscribe()
	defer cancel()
	ctx := context.Background()

	s.Pointer(ctx, Pointer{Type: PointerClick, Node: "b"})
	ev := waitFor(t, events, func(ev Event) bool { return ev.Type == EventSelect })
	if ev.Selection.Selected != "b" {
		t.Errorf("selected = %q, want b", ev.Selection.Selected)
	}

	// A click ending a drag that moved inside the window is not a selection.
	s.Pointer(ctx, Pointer{Type: PointerDown, Node: "c", X: 100, Y: 100})
	s.Pointer(ctx, Pointer{Type: PointerMove, X: 120, Y: 100})
	s.Pointer(ctx, Pointer{Type: PointerUp})
	s.Pointer(ctx, Pointer{Type: PointerClick, Node: "c"})
	if got := s.Selection().Selected; got != "b" {
		t.Errorf("selected = %q after drag, want b", got)
	}
}

func TestSessionSelect(t *testing.T) {
	s := startSession(t, testGraph("a", "b"), Options{})
	ctx := context.Background()

	if err := s.Select(ctx, "a"); err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if got := s.Selection().Selected; got != "a" {
		t.Errorf("selected = %q", got)
	}
	if err := s.Select(ctx, "zz"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Select(unknown) error = %v, want NOT_FOUND", err)
	}
	if got := s.Selection().Selected; got != "a" {
		t.Errorf("failed select changed selection to %q", got)
	}
	if err := s.Select(ctx, ""); err != nil || s.Selection().Selected != "" {
		t.Errorf("Select(\"\") = %v, selection %q", err, s.Selection().Selected)
	}
}

func TestSessionHover(t *testing.T) {
	s := startSession(t, testGraph("a", "b"), Options{})
	ctx := context.Background()

	s.Pointer(ctx, Pointer{Type: PointerHover, Node: "a"})
	if got := s.Selection().Hovered; got != "a" {
		t.Errorf("hovered = %q", got)
	}
	s.Pointer(ctx, Pointer{Type: PointerHover, Node: "gone"})
	if got := s.Selection().Hovered; got != "a" {
		t.Errorf("hover on unknown node changed it to %q", got)
	}
	s.Pointer(ctx, Pointer{Type: PointerLeave})
	if got := s.Selection().Hovered; got != "" {
		t.Errorf("hovered = %q after leave", got)
	}
}

func TestSessionStaleEventsIgnored(t *testing.T) {
	s := startSession(t, testGraph("a"), Options{})
	ctx := context.Background()
	for _, p := range []Pointer{
		{Type: PointerDown, Node: "gone"},
		{Type: PointerMove, X: 5, Y: 5},
		{Type: PointerUp},
		{Type: PointerClick, Node: "gone"},
	} {
		if err := s.Pointer(ctx, p); err != nil {
			t.Errorf("Pointer(%s) error: %v", p.Type, err)
		}
	}
	if sel := s.Selection(); sel.Selected != "" || sel.Dragging != "" {
		t.Errorf("selection = %+v", sel)
	}
}

func TestSessionInvalidPointer(t *testing.T) {
	s := startSession(t, testGraph("a"), Options{})
	tests := []Pointer{
		{Type: "wiggle"},
		{Type: PointerDown, Node: "a\x00"},
	}
	for _, p := range tests {
		if err := s.Pointer(context.Background(), p); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Pointer(%+v) error = %v, want INVALID_INPUT", p, err)
		}
	}
	if err := s.Select(context.Background(), "a\nb"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Select(control chars) error = %v, want INVALID_INPUT", err)
	}
}

func TestSessionReplace(t *testing.T) {
	s := startSession(t, testGraph("a", "b", "c"), Options{})
	ctx := context.Background()
	s.Select(ctx, "c")
	s.Pointer(ctx, Pointer{Type: PointerDown, Node: "a", X: 10, Y: 10})

	if err := s.Replace(ctx, testGraph("a", "b")); err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	sel := s.Selection()
	if sel.Selected != "" || sel.Dragging != "" {
		t.Errorf("selection after replace = %+v", sel)
	}
	if n := len(s.Frame().Nodes); n != 2 {
		t.Errorf("frame has %d nodes, want 2", n)
	}
	if err := s.Select(ctx, "b"); err != nil {
		t.Errorf("Select on new graph error: %v", err)
	}
}

func TestSessionSettles(t *testing.T) {
	opts := Options{Layout: layout.Options{AlphaDecay: 0.5, WarmStartTicks: -1}}
	s := startSession(t, testGraph("a", "b"), opts)

	deadline := time.Now().Add(5 * time.Second)
	for s.Frame().Alpha >= layout.DefaultAlphaMin {
		if time.Now().After(deadline) {
			t.Fatalf("alpha = %v, never settled", s.Frame().Alpha)
		}
		time.Sleep(5 * time.Millisecond)
	}
	tick := s.Frame().Tick
	time.Sleep(20 * time.Millisecond)
	if s.Frame().Tick != tick {
		t.Error("settled session kept ticking")
	}

	if err := s.Reheat(context.Background(), 0.3); err != nil {
		t.Fatal(err)
	}
	deadline = time.Now().Add(5 * time.Second)
	for s.Frame().Tick == tick {
		if time.Now().After(deadline) {
			t.Fatal("reheat did not wake the session")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionClose(t *testing.T) {
	s := startSession(t, testGraph("a", "b"), Options{})
	events, _ := s.Subscribe()

	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
	if !s.Closed() {
		t.Error("Closed() = false")
	}
	for range events {
	}
	err := s.Pointer(context.Background(), Pointer{Type: PointerClick, Node: "a"})
	if !errors.Is(err, errors.ErrCodeSessionExpired) {
		t.Errorf("Pointer after Close error = %v, want SESSION_EXPIRED", err)
	}
	if _, ok := <-mustSubscribe(s); ok {
		t.Error("subscription after Close is open")
	}
	if err := s.Run(context.Background()); err == nil {
		t.Error("Run after Close succeeded")
	}
}

func mustSubscribe(s *Session) <-chan Event {
	ch, _ := s.Subscribe()
	return ch
}

func TestSessionCloseWithoutRun(t *testing.T) {
	s := New(testGraph("a"), Options{})
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := s.Run(context.Background()); err == nil {
		t.Error("Run after Close succeeded")
	}
}

func TestSessionRunContextCancel(t *testing.T) {
	s := New(testGraph("a"), Options{FrameInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !s.Closed() {
		t.Error("session not closed after Run returned")
	}
}

func TestSessionExpiry(t *testing.T) {
	s := New(testGraph("a"), Options{TTL: time.Minute})
	defer s.Close()
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Touch()
	if s.IsExpired() {
		t.Error("fresh session expired")
	}
	now = now.Add(2 * time.Minute)
	if !s.IsExpired() {
		t.Error("session outlived its TTL")
	}
	s.Touch()
	if s.IsExpired() {
		t.Error("Touch did not extend the session")
	}
}
