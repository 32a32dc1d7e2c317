package skills

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// AssessmentStore defines the storage lookup the Manager needs.
// Implemented by storage.Store.
type AssessmentStore interface {
	// LatestAssessmentKeywords returns the keywords JSON of the most
	// recent assessment. ok is false when no assessment exists yet.
	LatestAssessmentKeywords() (raw string, ok bool, err error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached access to the latest stored skill profile.
// Requests are independent and read-only, so a short TTL cache is safe
// to share across them.
type Manager struct {
	store AssessmentStore
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *Profile
	cachedAt time.Time
}

// NewManager creates a Manager with a 30-second cache TTL.
func NewManager(store AssessmentStore) *Manager {
	return &Manager{
		store: store,
		clock: realClock{},
		ttl:   30 * time.Second,
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store AssessmentStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{store: store, clock: clock, ttl: ttl}
}

// Current returns the latest stored profile, or an empty profile when
// no assessment exists yet. A missing assessment is not an error.
func (m *Manager) Current() (Profile, error) {
	// Fast path: read lock for cache hit.
	m.mu.RLock()
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		p := copyProfile(m.cached)
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return copyProfile(m.cached), nil
	}

	raw, ok, err := m.store.LatestAssessmentKeywords()
	if err != nil {
		return Profile{}, fmt.Errorf("loading latest assessment: %w", err)
	}

	p := Profile{}
	if ok {
		var keywords []Keyword
		if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
			return Profile{}, fmt.Errorf("parsing stored keywords: %w", err)
		}
		p.Keywords = keywords
	}

	m.cached = &p
	m.cachedAt = m.clock.Now()
	return copyProfile(&p), nil
}

// Invalidate drops the cache. Called after a new assessment is stored.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.cached = nil
	m.mu.Unlock()
}

func copyProfile(p *Profile) Profile {
	if p == nil || p.Keywords == nil {
		return Profile{}
	}
	cp := Profile{Keywords: make([]Keyword, len(p.Keywords))}
	copy(cp.Keywords, p.Keywords)
	return cp
}
