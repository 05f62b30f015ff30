// Package vendormem is the vendor-memory cache: a small pattern→override
// store consulted last in the pipeline. A stored rule always wins over fresh
// extraction for the fields it defines, because user corrections are ground
// truth.
package vendormem

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/booking-drafts/internal/entity"
)

// MaxRules caps the store; the oldest rule is evicted beyond it.
const MaxRules = 50

// Rule matches inbound filenames by case-insensitive substring and carries
// the draft fields to overlay.
type Rule struct {
	ID        uuid.UUID         `json:"id"`
	Pattern   string            `json:"pattern"`
	Draft     entity.DraftPatch `json:"draft"`
	CreatedAt time.Time         `json:"created_at"`
}

// Matches reports whether the rule applies to the filename.
func (r *Rule) Matches(filename string) bool {
	if r.Pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(filename), strings.ToLower(r.Pattern))
}

// Store is the capability surface the pipeline needs. Injected rather than
// global so tests can substitute an in-memory fake and production a
// persistent backend without touching pipeline code.
type Store interface {
	// Find returns the most-recently-added rule matching the filename, or
	// nil when nothing matches.
	Find(ctx context.Context, filename string) (*Rule, error)
	// Add prepends a rule, evicting the oldest beyond MaxRules.
	Add(ctx context.Context, pattern string, patch entity.DraftPatch) (*Rule, error)
	List(ctx context.Context) ([]Rule, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

// Memory is the mutex-guarded in-process store, newest rule first.
type Memory struct {
	mu    sync.Mutex
	rules []Rule
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Find(_ context.Context, filename string) (*Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rules {
		if m.rules[i].Matches(filename) {
			r := m.rules[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (m *Memory) Add(_ context.Context, pattern string, patch entity.DraftPatch) (*Rule, error) {
	rule := Rule{
		ID:        uuid.New(),
		Pattern:   pattern,
		Draft:     patch,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append([]Rule{rule}, m.rules...)
	if len(m.rules) > MaxRules {
		m.rules = m.rules[:MaxRules]
	}
	return &rule, nil
}

func (m *Memory) List(_ context.Context) ([]Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out, nil
}

func (m *Memory) Remove(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rules {
		if m.rules[i].ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return nil
}
