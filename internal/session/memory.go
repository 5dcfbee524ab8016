package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/actuallystonmai/cinematch/internal/domain"
	"github.com/actuallystonmai/cinematch/internal/logging"
)

type memoryEntry struct {
	session   *domain.Session
	expiresAt time.Time
}

type memoryGuard struct {
	token string
	until time.Time
}

// MemoryStore is the single-process Store used when no Redis URL is set.
type MemoryStore struct {
	mu       sync.Mutex
	opts     Options
	sessions map[string]memoryEntry
	inflight map[string]memoryGuard
	now      func() time.Time
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts:     opts.withDefaults(),
		sessions: make(map[string]memoryEntry),
		inflight: make(map[string]memoryGuard),
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.session.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(s.Clone())
	return nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*domain.Session) error) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	c := e.session.Clone()
	if err := fn(c); err != nil {
		return nil, err
	}
	c.ID = id
	m.put(c)
	return c.Clone(), nil
}

// lookup and put expect m.mu to be held.
func (m *MemoryStore) lookup(id string) (memoryEntry, error) {
	e, ok := m.sessions[id]
	if !ok {
		return memoryEntry{}, domain.ErrSessionNotFound
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.sessions, id)
		return memoryEntry{}, domain.ErrSessionNotFound
	}
	return e, nil
}

func (m *MemoryStore) put(s *domain.Session) {
	now := m.now()
	s.UpdatedAt = now
	m.sessions[s.ID] = memoryEntry{session: s, expiresAt: now.Add(m.opts.TTL)}
}

func (m *MemoryStore) Acquire(_ context.Context, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if g, ok := m.inflight[id]; ok && now.Before(g.until) {
		return "", false, nil
	}
	token := uuid.NewString()
	m.inflight[id] = memoryGuard{token: token, until: now.Add(m.opts.LockTTL)}
	return token, true, nil
}

func (m *MemoryStore) Release(_ context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.inflight[id]; ok && g.token == token {
		delete(m.inflight, id)
	}
	return nil
}

func (m *MemoryStore) Busy(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.inflight[id]
	return ok && m.now().Before(g.until), nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Sweep drops expired sessions and stale guards. It returns how many
// sessions were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	for id, g := range m.inflight {
		if !now.Before(g.until) {
			delete(m.inflight, id)
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logging.Debug().Int("removed", n).Msg("expired sessions swept")
			}
		}
	}
}
