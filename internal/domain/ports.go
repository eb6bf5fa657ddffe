package domain

import (
	"context"
	"time"
)

type ReviewStore interface {
	// Write path. InsertIfNew is atomic per identity: a duplicate key is
	// reported as inserted=false with a nil error, never as a failure.
	InsertIfNew(ctx context.Context, r Review) (inserted bool, err error)

	// Read paths
	QueryWindow(ctx context.Context, source string, start, end time.Time) ([]Review, error)
	ListRecent(ctx context.Context, source string, limit int) ([]Review, error)
}

// ReviewSource produces zero or more normalized reviews for one polling
// cycle. Implementations differ in transport (page scraping, paginated
// JSON, authenticated REST) but share this contract.
type ReviewSource interface {
	Name() string
	Fetch(ctx context.Context) ([]Review, error)
}

// PolarityModel is the external text-analysis collaborator. Score is in
// [-1, 1].
type PolarityModel interface {
	Score(ctx context.Context, text string) (float64, error)
}

type AlertSink interface {
	SendAlert(ctx context.Context, ev AlertEvent, rendered string) error
}

type ReportSink interface {
	SendReport(ctx context.Context, subject, body string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
