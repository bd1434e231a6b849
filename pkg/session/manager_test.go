package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesagent/pkg/sales"
)

// echoRunner appends the input and a canned reply, tracking overlap per session.
type echoRunner struct {
	active  sync.Map
	overlap atomic.Bool
	delay   time.Duration
	fail    bool
	last    string
}

func (r *echoRunner) Turn(_ context.Context, st *sales.State, input string) (sales.TurnResult, error) {
	if _, busy := r.active.LoadOrStore(st.SessionID, true); busy {
		r.overlap.Store(true)
	}
	defer r.active.Delete(st.SessionID)

	time.Sleep(r.delay)
	r.last = input
	if r.fail {
		return sales.TurnResult{}, errors.New("boom")
	}
	st.Append(sales.RoleUser, input)
	st.Append(sales.RoleAssistant, "ok")
	return sales.TurnResult{Reply: "ok", Intent: sales.IntentCasual}, nil
}

func TestCreateTurnGet(t *testing.T) {
	m := NewManager(&echoRunner{}, Config{})
	id := m.Create()
	assert.Len(t, id, 36)

	res, err := m.Turn(context.Background(), id, "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Reply)

	snap, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, id, snap.State.SessionID)
	assert.Equal(t, 1, snap.Turns)
	assert.Len(t, snap.State.Messages, 2)

	// snapshot is a copy
	snap.State.Append(sales.RoleUser, "mutated")
	again, err := m.Get(id)
	require.NoError(t, err)
	assert.Len(t, again.State.Messages, 2)
}

func TestSessionsAreIndependent(t *testing.T) {
	m := NewManager(&echoRunner{}, Config{})
	a, b := m.Create(), m.Create()
	assert.NotEqual(t, a, b)

	_, err := m.Turn(context.Background(), a, "hi")
	require.NoError(t, err)

	sb, err := m.Get(b)
	require.NoError(t, err)
	assert.Empty(t, sb.State.Messages)
}

func TestUnknownSession(t *testing.T) {
	m := NewManager(&echoRunner{}, Config{})
	_, err := m.Turn(context.Background(), "nope", "hi")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete("nope"), ErrSessionNotFound)
}

func TestDelete(t *testing.T) {
	m := NewManager(&echoRunner{}, Config{})
	id := m.Create()
	require.NoError(t, m.Delete(id))
	assert.Zero(t, m.Len())
}

// gateRunner blocks each turn until release is closed.
type gateRunner struct {
	started chan struct{}
	release chan struct{}
}

func (r *gateRunner) Turn(_ context.Context, st *sales.State, input string) (sales.TurnResult, error) {
	close(r.started)
	<-r.release
	st.Append(sales.RoleUser, input)
	return sales.TurnResult{}, nil
}

func TestDeleteWaitsForInFlightTurn(t *testing.T) {
	runner := &gateRunner{started: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(runner, Config{})
	id := m.Create()

	turnDone := make(chan error, 1)
	go func() {
		_, err := m.Turn(context.Background(), id, "hi")
		turnDone <- err
	}()
	<-runner.started

	deleted := make(chan error, 1)
	go func() { deleted <- m.Delete(id) }()

	select {
	case <-deleted:
		t.Fatal("Delete returned while a turn was running")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 1, m.Len())

	close(runner.release)
	require.NoError(t, <-turnDone)
	require.NoError(t, <-deleted)
	assert.Zero(t, m.Len())
	assert.ErrorIs(t, m.Delete(id), ErrSessionNotFound)
}

func TestFailedTurnDoesNotCount(t *testing.T) {
	m := NewManager(&echoRunner{fail: true}, Config{})
	id := m.Create()
	_, err := m.Turn(context.Background(), id, "hi")
	require.Error(t, err)

	snap, err := m.Get(id)
	require.NoError(t, err)
	assert.Zero(t, snap.Turns)
}

func TestTurnsSerializedPerSession(t *testing.T) {
	runner := &echoRunner{delay: 5 * time.Millisecond}
	m := NewManager(runner, Config{})
	id := m.Create()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Turn(context.Background(), id, "hi")
		}()
	}
	wg.Wait()

	assert.False(t, runner.overlap.Load())
	snap, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 8, snap.Turns)
	assert.Len(t, snap.State.Messages, 16)
}

func TestTruncatesLongInput(t *testing.T) {
	runner := &echoRunner{}
	m := NewManager(runner, Config{MaxMessageChars: 5})
	id := m.Create()

	_, err := m.Turn(context.Background(), id, "héllo world")
	require.NoError(t, err)
	assert.Equal(t, "héllo"+TruncationSuffix, runner.last)

	_, err = m.Turn(context.Background(), id, "short")
	require.NoError(t, err)
	assert.Equal(t, "short", runner.last)
}

func TestSweep(t *testing.T) {
	m := NewManager(&echoRunner{}, Config{IdleTimeout: time.Minute})
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	stale := m.Create()
	clock = clock.Add(50 * time.Second)
	fresh := m.Create()

	assert.Zero(t, m.Sweep(clock))
	removed := m.Sweep(clock.Add(30 * time.Second))
	assert.Equal(t, 1, removed)

	_, err := m.Get(stale)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(fresh)
	assert.NoError(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	m := NewManager(&echoRunner{}, Config{IdleTimeout: time.Nanosecond, SweepInterval: time.Millisecond})
	m.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
