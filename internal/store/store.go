package store

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"seadrift/internal/domain"
)

var (
	ErrNotFound = errors.New("incident not found")
	ErrExists   = errors.New("incident already tracked")
)

type ListOptions struct {
	Mode *domain.LocationMode
	BBox *domain.BoundingBox
}

// Store holds the incidents being tracked. All reads return copies.
type Store struct {
	mu        sync.RWMutex
	incidents map[string]*domain.TrackedIncident
	byMode    map[domain.LocationMode]map[string]struct{}

	maxAge time.Duration
	now    func() time.Time
}

func New(maxAge time.Duration) *Store {
	return &Store{
		incidents: make(map[string]*domain.TrackedIncident),
		byMode:    make(map[domain.LocationMode]map[string]struct{}),
		maxAge:    maxAge,
		now:       time.Now,
	}
}

func (s *Store) Add(t *domain.TrackedIncident) (domain.IncidentDelta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := t.Incident.ID
	if _, exists := s.incidents[id]; exists {
		return domain.IncidentDelta{}, ErrExists
	}

	now := s.now()
	stored := *t
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.incidents[id] = &stored
	s.addToIndex(&stored)

	c := stored
	return domain.IncidentDelta{Type: domain.DeltaUpdate, Incident: &c, ID: id}, nil
}

// Update attaches fresh assessments to their incidents. Assessments for
// incidents no longer tracked are ignored. A delta is emitted only when the
// search area moved, grew or lost confidence.
func (s *Store) Update(assessments []*domain.Assessment) []domain.IncidentDelta {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	deltas := make([]domain.IncidentDelta, 0, len(assessments))

	for _, a := range assessments {
		id := a.Incident.ID
		existing, ok := s.incidents[id]
		if !ok {
			continue
		}

		changed := existing.Latest == nil || hasChanged(existing.Latest, a)
		if existing.Mode != a.Mode {
			s.removeFromIndex(existing)
			existing.Mode = a.Mode
			s.addToIndex(existing)
		}
		existing.Latest = a
		existing.UpdatedAt = now

		if changed {
			c := *existing
			deltas = append(deltas, domain.IncidentDelta{Type: domain.DeltaUpdate, Incident: &c, ID: id})
		}
	}
	return deltas
}

func (s *Store) Remove(id string) (domain.IncidentDelta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.incidents[id]
	if !ok {
		return domain.IncidentDelta{}, ErrNotFound
	}
	s.removeFromIndex(t)
	delete(s.incidents, id)
	return domain.IncidentDelta{Type: domain.DeltaRemove, ID: id}, nil
}

// PruneStale drops incidents whose last-seen time is older than maxAge.
// A search that old is no longer worth recomputing.
func (s *Store) PruneStale() []domain.IncidentDelta {
	if s.maxAge <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.maxAge)
	var deltas []domain.IncidentDelta

	for id, t := range s.incidents {
		if t.Incident.Timestamp.Before(cutoff) {
			deltas = append(deltas, domain.IncidentDelta{Type: domain.DeltaRemove, ID: id})
			s.removeFromIndex(t)
			delete(s.incidents, id)
		}
	}
	return deltas
}

func (s *Store) Get(id string) (*domain.TrackedIncident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.incidents[id]
	if !ok {
		return nil, false
	}
	c := *t
	return &c, true
}

// List returns matching incidents, oldest first.
func (s *Store) List(opts ListOptions) []*domain.TrackedIncident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates map[string]struct{}
	if opts.Mode != nil {
		candidates = s.byMode[*opts.Mode]
	} else {
		candidates = make(map[string]struct{}, len(s.incidents))
		for id := range s.incidents {
			candidates[id] = struct{}{}
		}
	}

	result := make([]*domain.TrackedIncident, 0, len(candidates))
	for id := range candidates {
		t := s.incidents[id]
		if opts.BBox != nil && !opts.BBox.Contains(t.Incident.Position) {
			continue
		}
		c := *t
		result = append(result, &c)
	}
	sortByCreated(result)
	return result
}

func (s *Store) Snapshot() []*domain.TrackedIncident {
	return s.List(ListOptions{})
}

// SnapshotFor returns the tracked incidents among ids, skipping unknown ones.
func (s *Store) SnapshotFor(ids []string) []*domain.TrackedIncident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TrackedIncident, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.incidents[id]; ok {
			c := *t
			result = append(result, &c)
		}
	}
	return result
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.incidents)
}

func (s *Store) CountByMode() map[domain.LocationMode]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.LocationMode]int, len(s.byMode))
	for mode, ids := range s.byMode {
		counts[mode] = len(ids)
	}
	return counts
}

func (s *Store) addToIndex(t *domain.TrackedIncident) {
	if t.Mode == "" {
		return
	}
	if s.byMode[t.Mode] == nil {
		s.byMode[t.Mode] = make(map[string]struct{})
	}
	s.byMode[t.Mode][t.Incident.ID] = struct{}{}
}

func (s *Store) removeFromIndex(t *domain.TrackedIncident) {
	ids := s.byMode[t.Mode]
	if ids == nil {
		return
	}
	delete(ids, t.Incident.ID)
	if len(ids) == 0 {
		delete(s.byMode, t.Mode)
	}
}

func sortByCreated(ts []*domain.TrackedIncident) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].Incident.ID < ts[j].Incident.ID
		}
		return ts[i].CreatedAt.Before(ts[j].CreatedAt)
	})
}

func hasChanged(old, new *domain.Assessment) bool {
	const epsilon = 0.000001

	if old.Mode != new.Mode {
		return true
	}
	a, b := old.SearchArea, new.SearchArea
	if math.Abs(a.Center.Lat-b.Center.Lat) > epsilon || math.Abs(a.Center.Lng-b.Center.Lng) > epsilon {
		return true
	}
	if math.Abs(a.RadiusNm-b.RadiusNm) > epsilon {
		return true
	}
	return a.ConfidencePercent != b.ConfidencePercent
}
