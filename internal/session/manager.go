package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"carsage/internal/dialogue"
	"carsage/internal/gateway"
)

// ErrNotFound is returned for session ids that exist neither in memory
// nor in the database.
var ErrNotFound = errors.New("session not found")

// #region live

// liveSession is one in-memory machine plus its serialization lock.
// Turns within a session are strictly sequential.
type liveSession struct {
	mu      sync.Mutex
	machine *dialogue.Machine
	// saved counts transcript entries already flushed to the store.
	saved int
}

// #endregion

// #region manager

// Manager owns all dialogue machines. Hot sessions stay in an LRU
// cache; evicted ones are rebuilt from their persisted memento on the
// next turn, so eviction is invisible to the user.
type Manager struct {
	client gateway.Client
	opts   gateway.Options
	store  *Store
	cache  *lru.Cache[string, *liveSession]
}

// NewManager creates a manager keeping at most maxLive machines in
// memory. A nil store disables persistence; evicted sessions are then
// gone for good.
func NewManager(client gateway.Client, opts gateway.Options, store *Store, maxLive int) (*Manager, error) {
	cache, err := lru.New[string, *liveSession](maxLive)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	return &Manager{client: client, opts: opts, store: store, cache: cache}, nil
}

// #endregion

// #region create

// Create starts a new session and returns its id with the greeting.
func (m *Manager) Create(ctx context.Context) (string, dialogue.Reply, error) {
	id := uuid.New().String()
	live := &liveSession{machine: dialogue.NewMachine(m.client, m.opts)}

	live.mu.Lock()
	defer live.mu.Unlock()

	reply := live.machine.Greeting()
	m.cache.Add(id, live)

	if err := m.persist(id, live); err != nil {
		return "", dialogue.Reply{}, err
	}
	log.Printf("[SESSION] created %s", id)
	return id, reply, nil
}

// #endregion

// #region handle

// Handle processes one user turn for the given session.
func (m *Manager) Handle(ctx context.Context, id, text string) (dialogue.Reply, error) {
	live, err := m.lookup(id)
	if err != nil {
		return dialogue.Reply{}, err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	reply := live.machine.HandleTurn(ctx, text)
	if err := m.persist(id, live); err != nil {
		return dialogue.Reply{}, err
	}
	return reply, nil
}

// Reset wipes the session back to mode selection, keeping the id.
func (m *Manager) Reset(ctx context.Context, id string) (dialogue.Reply, error) {
	live, err := m.lookup(id)
	if err != nil {
		return dialogue.Reply{}, err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	live.machine.Reset()
	reply := live.machine.Greeting()
	if err := m.persist(id, live); err != nil {
		return dialogue.Reply{}, err
	}
	log.Printf("[SESSION] reset %s", id)
	return reply, nil
}

// Memento returns the session's current state snapshot.
func (m *Manager) Memento(id string) (dialogue.Memento, error) {
	live, err := m.lookup(id)
	if err != nil {
		return dialogue.Memento{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return live.machine.Memento(), nil
}

// #endregion

// #region lookup

// lookup returns the live machine, rehydrating from the store after an
// eviction or a restart.
func (m *Manager) lookup(id string) (*liveSession, error) {
	if live, ok := m.cache.Get(id); ok {
		return live, nil
	}
	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	row, err := m.store.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var mem dialogue.Memento
	if err := json.Unmarshal([]byte(row.StateJSON), &mem); err != nil {
		return nil, fmt.Errorf("rehydrate %s: %w", id, err)
	}

	live := &liveSession{
		machine: dialogue.RestoreMachine(m.client, m.opts, mem),
		saved:   len(mem.Turns),
	}
	m.cache.Add(id, live)
	log.Printf("[SESSION] rehydrated %s at %s/%s", id, row.Flow, row.Stage)
	return live, nil
}

// #endregion

// #region persist

// persist flushes the memento and any unsaved turns. Called with the
// session lock held. A shrunken transcript means the session was reset,
// so the turn log starts over.
func (m *Manager) persist(id string, live *liveSession) error {
	if m.store == nil {
		return nil
	}

	mem := live.machine.Memento()
	stateJSON, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if len(mem.Turns) < live.saved {
		if err := m.store.ClearTurns(id); err != nil {
			return err
		}
		live.saved = 0
	}
	fresh := mem.Turns[live.saved:]

	if err := m.store.SaveTurn(id, string(stateJSON), string(mem.Flow), string(mem.Stage), fresh); err != nil {
		return err
	}
	live.saved = len(mem.Turns)
	return nil
}

// #endregion
