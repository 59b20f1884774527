// Package store provides storage for the history of evaluated calculations.
// Store keeps history in memory; SQLiteStore persists it to a database file.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a calculation ID is not in the history.
var ErrNotFound = errors.New("calculation not found")

// Calculation is one evaluated expression.
type Calculation struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression,omitempty"`
	Tokens     []string  `json:"tokens"`
	Postfix    []string  `json:"postfix,omitempty"`
	Result     string    `json:"result"`
	Error      string    `json:"error,omitempty"`
	CreateTime time.Time `json:"createTime"`
}

// History is implemented by every calculation store.
type History interface {
	// Record stores c, assigning an ID and creation time when unset, and
	// returns the stored calculation.
	Record(ctx context.Context, c *Calculation) (*Calculation, error)

	// Get returns the calculation with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Calculation, error)

	// List returns up to limit calculations, newest first. A limit <= 0
	// returns the whole history.
	List(ctx context.Context, limit int) ([]*Calculation, error)

	// Clear removes every calculation and returns how many were removed.
	Clear(ctx context.Context) (int, error)

	Close() error
}

// newID generates a time-ordered calculation ID.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// clone returns a deep copy of c.
func (c *Calculation) clone() *Calculation {
	out := *c
	out.Tokens = slices.Clone(c.Tokens)
	out.Postfix = slices.Clone(c.Postfix)
	return &out
}

// prepare returns a copy of c with ID and CreateTime filled in.
func prepare(c *Calculation) *Calculation {
	out := c.clone()
	if out.ID == "" {
		out.ID = newID()
	}
	if out.CreateTime.IsZero() {
		out.CreateTime = time.Now().UTC()
	}
	return out
}

// Store is a thread-safe in-memory calculation history.
type Store struct {
	mu    sync.RWMutex
	calcs map[string]*Calculation
	order []string // IDs, oldest first
}

var _ History = (*Store)(nil)

// New creates a new empty store.
func New() *Store {
	return &Store{
		calcs: make(map[string]*Calculation),
	}
}

// Record stores a calculation.
func (s *Store) Record(_ context.Context, c *Calculation) (*Calculation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := prepare(c)
	if _, exists := s.calcs[stored.ID]; exists {
		return nil, fmt.Errorf("calculation '%s' already exists", stored.ID)
	}
	s.calcs[stored.ID] = stored
	s.order = append(s.order, stored.ID)

	return stored.clone(), nil
}

// Get retrieves a calculation by ID.
func (s *Store) Get(_ context.Context, id string) (*Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.calcs[id]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}
	return c.clone(), nil
}

// List returns calculations newest first.
func (s *Store) List(_ context.Context, limit int) ([]*Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]*Calculation, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.calcs[s.order[i]].clone())
	}
	return result, nil
}

// Clear removes all calculations.
func (s *Store) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.order)
	s.calcs = make(map[string]*Calculation)
	s.order = nil
	return n, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
