package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/observability"
)

// Store keeps live sessions by id.
type Store interface {
	// Start registers s and runs it until it is deleted, expires or the
	// store closes.
	Start(s *Session) error

	// Get returns a running session. Unknown ids return an
	// ErrCodeSessionNotFound error, expired ones ErrCodeSessionExpired.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete stops and removes a session. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup stops expired sessions and returns how many it removed.
	Cleanup(ctx context.Context) (int, error)

	Close() error
}

// MemoryStore is an in-process [Store]. Sessions cannot move between
// processes because each owns a running simulation.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *log.Logger
	closed   bool
}

// NewMemoryStore returns an empty store. A nil logger discards output.
func NewMemoryStore(logger *log.Logger) *MemoryStore {
	if logger == nil {
		logger = Options{}.withDefaults().Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

func (m *MemoryStore) Start(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New(errors.ErrCodeInternal, "session store is closed")
	}
	m.sessions[s.ID] = s
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := s.Run(m.ctx); err != nil && m.ctx.Err() == nil {
			m.logger.Warn("session stopped", "session", s.ID, "err", err)
		}
	}()
	observability.Session().OnSessionOpen(m.ctx, s.ID, len(s.Frame().Nodes))
	m.logger.Debug("session started", "session", s.ID, "nodes", len(s.Frame().Nodes))
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	if s.IsExpired() || s.Closed() {
		m.remove(ctx, s, "expired")
		return nil, errors.New(errors.ErrCodeSessionExpired, "session %q expired", id)
	}
	return s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		m.remove(ctx, s, "deleted")
	}
	return nil
}

func (m *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	m.mu.Lock()
	var expired []*Session
	for _, s := range m.sessions {
		if s.IsExpired() || s.Closed() {
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.remove(ctx, s, "expired")
	}
	return len(expired), nil
}

// remove closes s outside the store lock; Close waits for the session
// goroutine.
func (m *MemoryStore) remove(ctx context.Context, s *Session, reason string) {
	m.mu.Lock()
	if m.sessions[s.ID] != s {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	s.Close()
	observability.Session().OnSessionClose(ctx, s.ID, reason)
	m.logger.Debug("session closed", "session", s.ID, "reason", reason)
}

// IDs returns the ids of the stored sessions in sorted order.
func (m *MemoryStore) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Janitor runs Cleanup every interval until ctx ends. A non-positive
// interval runs it every minute.
func (m *MemoryStore) Janitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, _ := m.Cleanup(ctx); n > 0 {
				m.logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}

// Close stops every session. The store cannot be used afterwards.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		m.remove(context.Background(), s, "shutdown")
	}
	m.cancel()
	m.wg.Wait()
	return nil
}

var _ Store = (*MemoryStore)(nil)
