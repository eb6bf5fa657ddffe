package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/classify"
	"reviewpulse/internal/domain"
)

// MonitorService runs one ingestion cycle: fan out per-source fetches,
// classify, insert exactly once, alert on fresh defect complaints.
type MonitorService struct {
	sources    []domain.ReviewSource
	store      domain.ReviewStore
	classifier *classify.Classifier
	alerts     domain.AlertSink
	workers    int64
}

func NewMonitorService(srcs []domain.ReviewSource, store domain.ReviewStore, cl *classify.Classifier, alerts domain.AlertSink, workers int) *MonitorService {
	if workers <= 0 {
		workers = 4
	}
	return &MonitorService{
		sources:    srcs,
		store:      store,
		classifier: cl,
		alerts:     alerts,
		workers:    int64(workers),
	}
}

type CycleStats struct {
	Fetched        int
	Inserted       int
	Duplicates     int
	Alerts         int
	SourceFailures int
}

type fetchResult struct {
	source  string
	reviews []domain.Review
	err     error
}

// RunCycle fetches all sources concurrently, then serializes the results
// through classification and the store one record at a time. A failed
// source never affects its siblings; an unreachable store aborts the
// cycle (it is retried on the next trigger).
func (s *MonitorService) RunCycle(ctx context.Context) (CycleStats, error) {
	cycleID := uuid.NewString()
	logger := log.With().Str("cycle", cycleID).Logger()
	logger.Info().Int("sources", len(s.sources)).Msg("ingestion cycle starting")

	var stats CycleStats

	sem := semaphore.NewWeighted(s.workers)
	results := make(chan fetchResult, len(s.sources))
	var wg sync.WaitGroup
	var acquireErr error

	for _, src := range s.sources {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = err
			break
		}
		wg.Add(1)
		go func(src domain.ReviewSource) {
			defer wg.Done()
			defer sem.Release(1)
			reviews, err := src.Fetch(ctx)
			results <- fetchResult{source: src.Name(), reviews: reviews, err: err}
		}(src)
	}
	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			stats.SourceFailures++
			observability.SourceErrors.WithLabelValues(res.source).Inc()
			logger.Warn().Str("source", res.source).Err(res.err).
				Msg("source fetch failed, continuing with remaining sources")
		}
		if len(res.reviews) == 0 {
			continue
		}
		stats.Fetched += len(res.reviews)
		observability.ReviewsFetched.WithLabelValues(res.source).Add(float64(len(res.reviews)))

		if err := s.processReviews(ctx, logger, res.reviews, &stats); err != nil {
			observability.CyclesTotal.WithLabelValues("aborted").Inc()
			logger.Error().Err(err).Msg("cycle aborted")
			return stats, err
		}
	}

	if acquireErr != nil {
		observability.CyclesTotal.WithLabelValues("aborted").Inc()
		logger.Error().Err(acquireErr).Msg("cycle aborted")
		return stats, acquireErr
	}

	observability.CyclesTotal.WithLabelValues("ok").Inc()
	logger.Info().
		Int("fetched", stats.Fetched).
		Int("inserted", stats.Inserted).
		Int("duplicates", stats.Duplicates).
		Int("alerts", stats.Alerts).
		Int("source_failures", stats.SourceFailures).
		Msg("ingestion cycle done")
	return stats, nil
}

// processReviews handles one source's batch sequentially. Inserts are
// serialized on purpose: the store's per-identity atomicity is the only
// synchronization the pipeline relies on.
func (s *MonitorService) processReviews(ctx context.Context, logger zerolog.Logger, reviews []domain.Review, stats *CycleStats) error {
	for _, rv := range reviews {
		res, cerr := s.classifier.Classify(ctx, rv.Text)
		if cerr != nil {
			// neutral fallback, record stored anyway
			logger.Warn().Str("identity", rv.Identity).Err(cerr).
				Msg("classification failed, storing neutral")
		}
		rv.Sentiment = res.Sentiment
		rv.DefectSignal = res.DefectSignal

		inserted, err := s.store.InsertIfNew(ctx, rv)
		if err != nil {
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return err
			}
			return fmt.Errorf("insert %s: %w", rv.Identity, err)
		}
		if !inserted {
			stats.Duplicates++
			observability.ReviewsStored.WithLabelValues(rv.Source, "duplicate").Inc()
			continue
		}
		stats.Inserted++
		observability.ReviewsStored.WithLabelValues(rv.Source, "inserted").Inc()

		// Alert predicate runs only on the inserted outcome, so a review
		// seen in a later cycle can never re-alert.
		if rv.Sentiment == domain.SentimentNegative && rv.DefectSignal {
			ev := domain.AlertEvent{
				Identity:   rv.Identity,
				Source:     rv.Source,
				OccurredAt: rv.OccurredAt,
				Text:       rv.Text,
			}
			stats.Alerts++
			observability.AlertsEmitted.WithLabelValues(rv.Source).Inc()
			if s.alerts == nil {
				logger.Info().Str("identity", ev.Identity).Msg("defect alert (no sink configured)")
				continue
			}
			if err := s.alerts.SendAlert(ctx, ev, RenderAlert(ev)); err != nil {
				// delivery failure must not fail the cycle
				logger.Error().Str("identity", ev.Identity).Err(err).Msg("alert delivery failed")
			}
		}
	}
	return nil
}

// RenderAlert builds the human-readable alert body.
func RenderAlert(ev domain.AlertEvent) string {
	return fmt.Sprintf("Defect complaint\nreview: %s\nsource: %s\ndate: %s\n%s",
		ev.Identity, ev.Source, ev.OccurredAt.Format("2006-01-02 15:04"), ev.Text)
}
