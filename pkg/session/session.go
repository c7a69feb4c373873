// Package session runs live, interactive layouts on the server.
//
// A [Session] owns one layout engine and one interaction controller. Both
// live on the goroutine started by [Session.Run]: a frame ticker advances the
// engine until it settles, and pointer or selection commands arrive over a
// channel and are applied between ticks. Callers never touch the engine
// directly, so no locking is needed around the simulation.
//
// Frames and selection changes are pushed to subscribers. Delivery is
// latest-wins: a slow subscriber skips intermediate frames instead of
// stalling the simulation.
//
//	s := session.New(graph, session.Options{})
//	go s.Run(ctx)
//	events, cancel := s.Subscribe()
//	defer cancel()
//	s.Pointer(ctx, session.Pointer{Type: session.PointerDown, Node: "42", X: 310, Y: 220})
//
// Sessions are kept in a [Store] and expire after a period without use.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/interact"
	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/observability"
	"github.com/matzehuels/creatornet/pkg/scene"
)

// Default durations.
const (
	// DefaultFrameInterval paces the simulation at roughly 60 frames per second.
	DefaultFrameInterval = 16 * time.Millisecond

	// DefaultTTL is how long an unused session is kept.
	DefaultTTL = 30 * time.Minute
)

// EventType distinguishes what a subscriber is told about.
type EventType string

const (
	EventFrame  EventType = "frame"
	EventSelect EventType = "select"
)

// Event is delivered to subscribers. Frame is set for [EventFrame].
type Event struct {
	Type      EventType       `json:"type"`
	Frame     *layout.Frame   `json:"frame,omitempty"`
	Selection scene.Selection `json:"selection"`
}

// PointerType names a pointer event.
type PointerType string

const (
	PointerDown  PointerType = "down"
	PointerMove  PointerType = "move"
	PointerUp    PointerType = "up"
	PointerLeave PointerType = "leave"
	PointerClick PointerType = "click"
	PointerHover PointerType = "hover"
)

// Pointer is a pointer event in screen coordinates. View, when set, replaces
// the session's screen transform before the event is applied.
type Pointer struct {
	Type PointerType    `json:"type"`
	Node string         `json:"node,omitempty"`
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
	View *interact.View `json:"view,omitempty"`
}

// Options configures a [Session]. Zero values take defaults.
type Options struct {
	Layout   layout.Options
	Interact interact.Options
	// View maps screen to simulation coordinates. Zero means identity.
	View          interact.View
	FrameInterval time.Duration
	TTL           time.Duration
	Logger        *log.Logger
}

func (o Options) withDefaults() Options {
	if o.FrameInterval <= 0 {
		o.FrameInterval = DefaultFrameInterval
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.View == (interact.View{}) {
		o.View = interact.Identity()
	}
	if o.Layout.Logger == nil {
		o.Layout.Logger = o.Logger
	}
	if o.Interact.Logger == nil {
		o.Interact.Logger = o.Logger
	}
	return o
}

// Session is one live layout.
type Session struct {
	ID        string
	CreatedAt time.Time

	opts   Options
	logger *log.Logger
	now    func() time.Time

	// Owned by the Run goroutine once it starts.
	engine  *layout.Engine
	ctrl    *interact.Controller
	hover   scene.Hover
	settled bool

	cmds    chan func()
	done    chan struct{}
	stopped chan struct{}

	mu        sync.Mutex
	frame     layout.Frame
	sel       scene.Selection
	expiresAt time.Time
	subs      map[int]chan Event
	nextSub   int
	started   bool
	closed    bool
	closeOnce sync.Once
}

// New builds a session for g. The warm-start runs before New returns.
func New(g network.Graph, opts Options) *Session {
	opts = opts.withDefaults()
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		opts:      opts,
		logger:    opts.Logger,
		now:       time.Now,
		cmds:      make(chan func()),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		expiresAt: now.Add(opts.TTL),
		subs:      make(map[int]chan Event),
	}
	s.logger = s.logger.With("session", s.ID)

	s.engine = layout.New(g, opts.Layout)
	iopts := opts.Interact
	onSelect := iopts.OnSelect
	iopts.OnSelect = func(id string) {
		s.selectNode(id)
		if onSelect != nil {
			onSelect(id)
		}
	}
	s.ctrl = interact.NewController(s.engine, opts.View, iopts)
	s.frame = s.engine.Snapshot()
	s.settled = s.engine.Settled()
	return s
}

// Run drives the session until ctx ends or [Session.Close] is called. It
// must be called once; later calls return an error immediately.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.started {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeSessionExpired, "session %s is not runnable", s.ID)
	}
	s.started = true
	s.mu.Unlock()
	defer s.shutdown()

	ticker := time.NewTicker(s.opts.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case cmd := <-s.cmds:
			cmd()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Session) tick(ctx context.Context) {
	if s.engine.Settled() {
		if !s.settled {
			s.settled = true
			observability.Session().OnSettle(ctx, s.ID, int(s.engine.Ticks()))
			s.logger.Debug("layout settled", "ticks", s.engine.Ticks())
		}
		return
	}
	s.settled = false
	if !s.engine.Tick() {
		return
	}
	s.publishFrame()
}

func (s *Session) publishFrame() {
	f := s.engine.Snapshot()
	s.mu.Lock()
	s.frame = f
	sel := s.sel
	s.mu.Unlock()
	s.broadcast(Event{Type: EventFrame, Frame: &f, Selection: sel})
}

func (s *Session) shutdown() {
	s.engine.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	close(s.stopped)
}

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(ran) }:
	case <-s.done:
		return s.closedErr()
	case <-s.stopped:
		return s.closedErr()
	case <-ctx.Done():
		return ctx.Err()
	}
	<-ran
	return nil
}

func (s *Session) closedErr() error {
	return errors.New(errors.ErrCodeSessionExpired, "session %s is closed", s.ID)
}

// Pointer applies a pointer event. Events naming nodes that no longer exist
// are ignored without error.
func (s *Session) Pointer(ctx context.Context, p Pointer) error {
	switch p.Type {
	case PointerDown, PointerMove, PointerUp, PointerLeave, PointerClick, PointerHover:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown pointer event %q", p.Type)
	}
	if p.Node != "" {
		if err := errors.ValidateNodeID(p.Node); err != nil {
			return err
		}
	}
	s.Touch()
	observability.Session().OnCommand(ctx, s.ID, string(p.Type))

	return s.do(ctx, func() {
		if p.View != nil {
			s.ctrl.SetView(*p.View)
		}
		pt := interact.Point{X: p.X, Y: p.Y}
		switch p.Type {
		case PointerDown:
			s.ctrl.PointerDown(p.Node, pt)
		case PointerMove:
			s.ctrl.PointerMove(pt)
		case PointerUp:
			s.ctrl.PointerUp()
		case PointerLeave:
			s.ctrl.PointerLeave()
			s.hover.Set("")
		case PointerClick:
			s.ctrl.Click(p.Node)
		case PointerHover:
			if p.Node == "" || s.engine.Has(p.Node) {
				s.hover.Set(p.Node)
			}
		}
		s.syncSelection()
	})
}

// Select sets the selected node. An empty id clears the selection.
func (s *Session) Select(ctx context.Context, id string) error {
	if id != "" {
		if err := errors.ValidateNodeID(id); err != nil {
			return err
		}
	}
	s.Touch()
	observability.Session().OnCommand(ctx, s.ID, "select")

	var err error
	if doErr := s.do(ctx, func() {
		if id != "" && !s.engine.Has(id) {
			err = errors.New(errors.ErrCodeNotFound, "node %q is not in the network", id)
			return
		}
		s.selectNode(id)
	}); doErr != nil {
		return doErr
	}
	return err
}

// Replace rebuilds the layout for a changed input graph. The controller is
// re-attached and any drag in progress is abandoned; a selection or hover
// naming a node that disappeared is cleared.
func (s *Session) Replace(ctx context.Context, g network.Graph) error {
	s.Touch()
	observability.Session().OnCommand(ctx, s.ID, "replace")

	return s.do(ctx, func() {
		s.engine.Stop()
		s.engine = layout.New(g, s.opts.Layout)
		s.ctrl.Attach(s.engine)
		s.settled = false
		if !s.engine.Has(s.hover.ID()) {
			s.hover.Set("")
		}
		s.mu.Lock()
		if s.sel.Selected != "" && !s.engine.Has(s.sel.Selected) {
			s.sel.Selected = ""
		}
		s.mu.Unlock()
		s.syncSelection()
		s.publishFrame()
	})
}

// Reheat wakes a settled layout.
func (s *Session) Reheat(ctx context.Context, alpha float64) error {
	s.Touch()
	observability.Session().OnCommand(ctx, s.ID, "reheat")
	return s.do(ctx, func() { s.engine.Reheat(alpha) })
}

// selectNode runs on the session goroutine.
func (s *Session) selectNode(id string) {
	s.mu.Lock()
	changed := s.sel.Selected != id
	s.sel.Selected = id
	sel := s.sel
	s.mu.Unlock()
	if changed {
		s.logger.Debug("selected", "node", id)
		s.broadcast(Event{Type: EventSelect, Selection: sel})
	}
}

// syncSelection copies hover and drag state into the published selection.
func (s *Session) syncSelection() {
	drag, _ := s.ctrl.DragNode()
	s.mu.Lock()
	s.sel.Hovered = s.hover.ID()
	s.sel.Dragging = drag
	s.mu.Unlock()
}

// Frame returns the latest published frame.
func (s *Session) Frame() layout.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Selection returns the current selection, hover and drag state.
func (s *Session) Selection() scene.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Scene builds the scene for the latest frame.
func (s *Session) Scene(style scene.Style) scene.Scene {
	s.mu.Lock()
	f, sel := s.frame, s.sel
	s.mu.Unlock()
	return scene.Build(f, sel, style)
}

// Subscribe returns a channel of events and a function that cancels the
// subscription. The channel is closed when the session closes.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

// broadcast delivers ev to every subscriber, replacing an undelivered event.
// A pending select event is never overwritten by a frame.
func (s *Session) broadcast(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case old := <-ch:
			if old.Type == EventSelect && ev.Type == EventFrame {
				old.Selection = ev.Selection
				ch <- old
				continue
			}
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// Touch extends the session's lifetime by its TTL.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = s.now().Add(s.opts.TTL)
}

// ExpiresAt returns when the session expires unless touched.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// IsExpired reports whether the session outlived its TTL.
func (s *Session) IsExpired() bool {
	return s.now().After(s.ExpiresAt())
}

// Closed reports whether the session was closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops the session and waits for its goroutine to exit. It is
// idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		started := s.started
		if !started {
			// Run can no longer start, so shutdown is ours to call.
			s.closed = true
		}
		s.mu.Unlock()
		close(s.done)
		if started {
			<-s.stopped
		} else {
			s.shutdown()
		}
	})
	return nil
}
