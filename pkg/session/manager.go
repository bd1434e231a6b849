// Package session keeps the in-memory conversation sessions served by one process.
//
// Sessions never share state. Turns for the same session are serialized by a
// per-session mutex; turns for different sessions run concurrently.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"salesagent/pkg/logx"
	"salesagent/pkg/sales"
)

const (
	// DefaultMaxMessageChars is the default maximum length for a user message.
	DefaultMaxMessageChars = 4096

	// TruncationSuffix is appended to messages that exceed the max length.
	TruncationSuffix = " … [truncated]"

	DefaultIdleTimeout   = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// ErrSessionNotFound is returned when a requested session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Runner executes one turn against a session state. *sales.Agent satisfies it.
type Runner interface {
	Turn(ctx context.Context, st *sales.State, input string) (sales.TurnResult, error)
}

// Config controls session lifetime and input limits. Zero values take defaults.
type Config struct {
	IdleTimeout     time.Duration
	SweepInterval   time.Duration
	MaxMessageChars int
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.MaxMessageChars <= 0 {
		c.MaxMessageChars = DefaultMaxMessageChars
	}
	return c
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID         string       `json:"id"`
	CreatedAt  time.Time    `json:"created_at"`
	LastActive time.Time    `json:"last_active"`
	Turns      int          `json:"turns"`
	State      *sales.State `json:"state"`
}

type entry struct {
	turnMu     sync.Mutex // held for the duration of a turn
	state      *sales.State
	createdAt  time.Time
	lastActive time.Time // guarded by Manager.mu
	turns      int       // guarded by turnMu
}

// Manager owns every live session.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	runner   Runner
	cfg      Config
	now      func() time.Time
	logger   *logx.Logger
}

// NewManager creates a session manager that runs turns through runner.
func NewManager(runner Runner, cfg Config) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		runner:   runner,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		logger:   logx.NewLogger("session"),
	}
}

// Create starts a new empty session and returns its ID.
func (m *Manager) Create() string {
	id := uuid.New().String()
	now := m.now()

	m.mu.Lock()
	m.sessions[id] = &entry{state: sales.NewState(id), createdAt: now, lastActive: now}
	m.mu.Unlock()

	m.logger.Info("Session %s created", id)
	return id
}

func (m *Manager) lookup(id string) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	e.lastActive = m.now()
	return e, nil
}

// Turn runs one user message through the session. Concurrent calls for the
// same session wait for each other.
func (m *Manager) Turn(ctx context.Context, id, input string) (sales.TurnResult, error) {
	e, err := m.lookup(id)
	if err != nil {
		return sales.TurnResult{}, err
	}

	e.turnMu.Lock()
	defer e.turnMu.Unlock()

	ctx = logx.WithSession(ctx, id)
	result, err := m.runner.Turn(ctx, e.state, m.truncate(input))
	if err == nil {
		e.turns++
	}

	m.mu.Lock()
	e.lastActive = m.now()
	m.mu.Unlock()
	return result, err
}

// truncate caps input at MaxMessageChars runes.
func (m *Manager) truncate(input string) string {
	limit := m.cfg.MaxMessageChars
	if utf8.RuneCountInString(input) <= limit {
		return input
	}
	runes := []rune(input)
	m.logger.Warn("User message truncated from %d to %d characters", len(runes), limit)
	return strings.TrimSpace(string(runes[:limit])) + TruncationSuffix
}

// Get returns a copy of the session, waiting for any in-flight turn.
func (m *Manager) Get(id string) (Snapshot, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	e.turnMu.Lock()
	st := e.state.Clone()
	turns := e.turns
	e.turnMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{ID: id, CreatedAt: e.createdAt, LastActive: e.lastActive, Turns: turns, State: st}, nil
}

// Delete drops a session, waiting for an in-flight turn to finish first.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	e.turnMu.Lock()
	defer e.turnMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[id] != e {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	m.logger.Info("Session %s deleted", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle since before now-IdleTimeout. Sessions with a
// turn in flight are kept. It returns the number removed.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		if !e.lastActive.Before(cutoff) {
			continue
		}
		if !e.turnMu.TryLock() {
			continue
		}
		delete(m.sessions, id)
		e.turnMu.Unlock()
		removed++
	}
	if removed > 0 {
		m.logger.Info("🧹 Expired %d idle sessions", removed)
	}
	logx.DebugFlow(context.Background(), "session", "sweep", "done", fmt.Sprintf("%d expired, %d live", removed, len(m.sessions)))
	return removed
}

// Run sweeps idle sessions every SweepInterval until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	m.logger.Info("Session janitor started (idle timeout %v)", m.cfg.IdleTimeout)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Session janitor stopping")
			return nil
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}
