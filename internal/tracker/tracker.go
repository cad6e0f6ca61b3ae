// Package tracker keeps tracked incidents' assessments current as time
// passes.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"seadrift/internal/assess"
	"seadrift/internal/domain"
	"seadrift/internal/store"
)

type Assessor interface {
	Assess(ctx context.Context, req assess.Request) (domain.Assessment, error)
}

type Broadcaster interface {
	Broadcast(deltas []domain.IncidentDelta)
}

type Publisher interface {
	Publish(ctx context.Context, a *domain.Assessment) error
	Forget(ctx context.Context, id string) error
}

type Archiver interface {
	Append(a *domain.Assessment) error
}

type Config struct {
	Interval    time.Duration
	Concurrency int
}

// Tracker re-assesses every tracked incident on each tick with the elapsed
// time measured from the incident timestamp.
type Tracker struct {
	assessor    Assessor
	store       *store.Store
	broadcaster Broadcaster
	publisher   Publisher
	archive     Archiver
	cfg         Config
	logger      *slog.Logger
	now         func() time.Time

	ready   bool
	readyMu sync.RWMutex
}

// New builds a Tracker. broadcaster, publisher and archive are optional.
func New(assessor Assessor, s *store.Store, broadcaster Broadcaster, publisher Publisher, archive Archiver, cfg Config, logger *slog.Logger) *Tracker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Tracker{
		assessor:    assessor,
		store:       s,
		broadcaster: broadcaster,
		publisher:   publisher,
		archive:     archive,
		cfg:         cfg,
		logger:      logger.With("component", "tracker"),
		now:         time.Now,
	}
}

func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	pruneTicker := time.NewTicker(t.cfg.Interval * 10)
	defer pruneTicker.Stop()

	t.Recompute(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Recompute(ctx)
		case <-pruneTicker.C:
			t.prune(ctx)
		}
	}
}

// Track assesses inc immediately and starts tracking it. An empty ID is
// replaced with a fresh UUID and a zero timestamp is derived from the
// elapsed minutes.
func (t *Tracker) Track(ctx context.Context, inc domain.Incident) (*domain.TrackedIncident, error) {
	now := t.now()
	if inc.ID == "" {
		inc.ID = uuid.New().String()
	}
	if inc.Timestamp.IsZero() {
		if err := assess.Validate(inc); err != nil {
			return nil, err
		}
		inc.Timestamp = now.Add(-time.Duration(inc.ElapsedMinutes * float64(time.Minute)))
	} else {
		inc.ElapsedMinutes = elapsedMinutes(inc.Timestamp, now)
	}

	a, err := t.assessor.Assess(ctx, assess.Request{Incident: inc})
	if err != nil {
		return nil, err
	}

	if _, err := t.store.Add(&domain.TrackedIncident{Incident: a.Incident, Mode: a.Mode}); err != nil {
		return nil, err
	}
	deltas := t.store.Update([]*domain.Assessment{&a})
	t.emit(ctx, deltas, []*domain.Assessment{&a})

	tracked, ok := t.store.Get(inc.ID)
	if !ok {
		return nil, fmt.Errorf("incident %s vanished after add: %w", inc.ID, store.ErrNotFound)
	}
	t.logger.Info("incident tracked", "incident_id", inc.ID, "mode", a.Mode, "region", a.Region)
	return tracked, nil
}

func (t *Tracker) Untrack(ctx context.Context, id string) error {
	delta, err := t.store.Remove(id)
	if err != nil {
		return err
	}
	if t.broadcaster != nil {
		t.broadcaster.Broadcast([]domain.IncidentDelta{delta})
	}
	t.forget(ctx, id)
	t.logger.Info("incident untracked", "incident_id", id)
	return nil
}

func (t *Tracker) Recompute(ctx context.Context) {
	start := time.Now()
	incidents := t.store.Snapshot()
	now := t.now()

	var (
		mu      sync.Mutex
		results = make([]*domain.Assessment, 0, len(incidents))
		failed  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Concurrency)

	for _, ti := range incidents {
		inc := ti.Incident
		inc.ElapsedMinutes = elapsedMinutes(inc.Timestamp, now)

		g.Go(func() error {
			a, err := t.assessor.Assess(gctx, assess.Request{Incident: inc})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				t.logger.Error("recompute failed", "incident_id", inc.ID, "error", err)
				return nil
			}
			results = append(results, &a)
			return nil
		})
	}
	_ = g.Wait()

	deltas := t.store.Update(results)
	t.emit(ctx, deltas, results)

	if !t.IsReady() {
		t.setReady(true)
		t.logger.Info("tracker ready", "incidents", len(incidents))
	}

	t.logger.Debug("recompute completed",
		"incidents", len(incidents),
		"failed", failed,
		"deltas", len(deltas),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (t *Tracker) emit(ctx context.Context, deltas []domain.IncidentDelta, results []*domain.Assessment) {
	if t.broadcaster != nil {
		t.broadcaster.Broadcast(deltas)
	}
	for _, a := range results {
		if t.publisher != nil {
			if err := t.publisher.Publish(ctx, a); err != nil {
				t.logger.Warn("publish assessment failed", "incident_id", a.Incident.ID, "error", err)
			}
		}
		if t.archive != nil {
			if err := t.archive.Append(a); err != nil {
				t.logger.Warn("archive append failed", "incident_id", a.Incident.ID, "error", err)
			}
		}
	}
}

func (t *Tracker) prune(ctx context.Context) {
	deltas := t.store.PruneStale()
	if len(deltas) == 0 {
		return
	}
	if t.broadcaster != nil {
		t.broadcaster.Broadcast(deltas)
	}
	for _, d := range deltas {
		t.forget(ctx, d.ID)
	}
	t.logger.Info("pruned stale incidents", "count", len(deltas))
}

func (t *Tracker) forget(ctx context.Context, id string) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.Forget(ctx, id); err != nil && !errors.Is(err, context.Canceled) {
		t.logger.Warn("forget assessment failed", "incident_id", id, "error", err)
	}
}

func (t *Tracker) IsReady() bool {
	t.readyMu.RLock()
	defer t.readyMu.RUnlock()
	return t.ready
}

func (t *Tracker) setReady(ready bool) {
	t.readyMu.Lock()
	defer t.readyMu.Unlock()
	t.ready = ready
}

func elapsedMinutes(since, now time.Time) float64 {
	m := now.Sub(since).Minutes()
	if m < 0 {
		return 0
	}
	return m
}
