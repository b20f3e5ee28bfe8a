package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Group is the set of metric families last pushed for one job, together with
// the time of that push.
type Group struct {
	Job       string
	Families  map[string]*dto.MetricFamily
	UpdatedAt time.Time
}

// Names returns the family names of the group in sorted order.
func (g *Group) Names() []string {
	names := make([]string, 0, len(g.Families))
	for n := range g.Families {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Store is a thread-safe in-memory group store, keyed by job. It holds only
// the current value of each group; there is no history.
//
// A background goroutine (Run) periodically evicts groups that have not been
// pushed within the configured TTL. A TTL of zero disables expiry.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Group
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Group),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the configured group TTL.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Replace stores families as the complete group for job, dropping anything
// pushed for job before. Callers must not modify families after the call.
func (s *Store) Replace(job string, families map[string]*dto.MetricFamily) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[job] = &Group{Job: job, Families: families, UpdatedAt: s.now()}
}

// Merge replaces only the families named in families and keeps the others
// already stored for job.
func (s *Store) Merge(job string, families map[string]*dto.MetricFamily) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[string]*dto.MetricFamily, len(families))
	if old, ok := s.data[job]; ok {
		for n, mf := range old.Families {
			merged[n] = mf
		}
	}
	for n, mf := range families {
		merged[n] = mf
	}
	s.data[job] = &Group{Job: job, Families: merged, UpdatedAt: s.now()}
}

// Delete removes the group for job and reports whether it existed.
func (s *Store) Delete(job string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[job]
	delete(s.data, job)
	return ok
}

// Get returns the live group for job. Stale groups that have not yet been
// evicted are reported as missing.
func (s *Store) Get(job string) (*Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.data[job]
	if !ok || !s.live(g, s.now()) {
		return nil, false
	}
	return g, true
}

// List returns all live groups sorted by job.
func (s *Store) List() []*Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	out := make([]*Group, 0, len(s.data))
	for _, g := range s.data {
		if s.live(g, now) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

// Count returns the total number of groups currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes groups whose UpdatedAt is older than now minus TTL.
// It returns the number of groups removed.
func (s *Store) Evict(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for job, g := range s.data {
		if !s.live(g, now) {
			delete(s.data, job)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// (minimum 1 second) so groups are evicted promptly. Run blocks until ctx is
// cancelled, and returns at once when expiry is disabled.
func (s *Store) Run(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale groups", "count", n)
			}
		}
	}
}

func (s *Store) live(g *Group, now time.Time) bool {
	return s.ttl <= 0 || g.UpdatedAt.After(now.Add(-s.ttl))
}
