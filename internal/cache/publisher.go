package cache

import (
	"context"
	"log/slog"
	"time"

	"seadrift/internal/domain"
)

// CompressedStore is the subset of RedisCache the publisher writes through
type CompressedStore interface {
	SetJSONCompressed(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSONCompressed(ctx context.Context, key string, dest any) (bool, error)
	Delete(ctx context.Context, key string) error
}

// AssessmentPublisher keeps the latest assessment of each tracked incident
// in Redis so other services can read it without calling the API.
type AssessmentPublisher struct {
	cache  CompressedStore
	ttl    time.Duration
	logger *slog.Logger
}

func NewAssessmentPublisher(cache CompressedStore, ttl time.Duration, logger *slog.Logger) *AssessmentPublisher {
	return &AssessmentPublisher{
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "assessment_publisher"),
	}
}

func (p *AssessmentPublisher) Publish(ctx context.Context, a *domain.Assessment) error {
	start := time.Now()
	if err := p.cache.SetJSONCompressed(ctx, KeyIncidentLatest(a.Incident.ID), a, p.ttl); err != nil {
		return err
	}
	p.logger.Debug("published assessment",
		"incident_id", a.Incident.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (p *AssessmentPublisher) Latest(ctx context.Context, id string) (*domain.Assessment, bool, error) {
	var a domain.Assessment
	found, err := p.cache.GetJSONCompressed(ctx, KeyIncidentLatest(id), &a)
	if err != nil || !found {
		return nil, false, err
	}
	return &a, true, nil
}

func (p *AssessmentPublisher) Forget(ctx context.Context, id string) error {
	return p.cache.Delete(ctx, KeyIncidentLatest(id))
}
