package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/shared"
)

// ReportService aggregates stored reviews into per-source report windows
// and hands rendered reports to the configured sink.
type ReportService struct {
	store      domain.ReviewStore
	cache      domain.Cache
	sink       domain.ReportSink
	allSources []string
	cacheTTL   time.Duration
	now        func() time.Time
}

func NewReportService(store domain.ReviewStore, cache domain.Cache, sink domain.ReportSink, allSources []string, ttl time.Duration) *ReportService {
	return &ReportService{
		store:      store,
		cache:      cache,
		sink:       sink,
		allSources: allSources,
		cacheTTL:   ttl,
		now:        time.Now,
	}
}

// WithClock overrides the wall clock; tests use it to pin windows.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Summarize counts reviews with occurred_at in [start, end) per source.
// Sources are summarized independently and concatenated, never blended,
// so each source's figures stay attributable.
//
// The window is truncated to whole minutes: callers derive it from the
// wall clock, and without truncation every call would mint a fresh
// cache key.
func (s *ReportService) Summarize(ctx context.Context, sources []string, start, end time.Time) ([]domain.ReportWindow, error) {
	start = start.Truncate(time.Minute)
	end = end.Truncate(time.Minute)
	if len(sources) == 0 {
		sources = s.allSources
	}
	out := make([]domain.ReportWindow, 0, len(sources))
	for _, src := range sources {
		win, err := s.summarizeOne(ctx, src, start, end)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", src, err)
		}
		out = append(out, win)
	}
	return out, nil
}

func (s *ReportService) summarizeOne(ctx context.Context, source string, start, end time.Time) (domain.ReportWindow, error) {
	key := fmt.Sprintf("report:%s:%d:%d", source, start.Unix(), end.Unix())
	var win domain.ReportWindow
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &win); ok {
			return win, nil
		}
	}

	reviews, err := s.store.QueryWindow(ctx, source, start, end)
	if err != nil {
		return domain.ReportWindow{}, err
	}

	win = domain.ReportWindow{Source: source, Start: start, End: end}
	for _, rv := range reviews {
		win.Total++
		switch rv.Sentiment {
		case domain.SentimentPositive:
			win.Positive++
		case domain.SentimentNegative:
			win.Negative++
		default:
			win.Neutral++
		}
		if rv.OccurredAtInferred {
			win.Inferred++
		}
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, win, int(s.cacheTTL.Seconds()))
	}
	return win, nil
}

// RunReport executes one configured report rule: window ending now,
// rendered and delivered through the report sink.
func (s *ReportService) RunReport(ctx context.Context, rule shared.ReportConfig) error {
	end := s.now().UTC()
	start := end.AddDate(0, 0, -rule.WindowDays)

	windows, err := s.Summarize(ctx, rule.Sources, start, end)
	if err != nil {
		return fmt.Errorf("report %s: %w", rule.Name, err)
	}

	body := RenderReport(windows)
	subject := fmt.Sprintf("Review report (%s)", rule.Name)
	log.Info().Str("report", rule.Name).Int("sources", len(windows)).Msg("report built")

	if s.sink == nil {
		log.Info().Str("report", rule.Name).Msg("no report sink configured, logging body")
		log.Info().Msg(body)
		return nil
	}
	return s.sink.SendReport(ctx, subject, body)
}

// RenderReport produces the plain-text report body, one line per source.
func RenderReport(windows []domain.ReportWindow) string {
	if len(windows) == 0 {
		return "No data for the requested period."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Period: %s - %s\n",
		windows[0].Start.Format("2006-01-02"), windows[0].End.Format("2006-01-02"))
	for _, w := range windows {
		fmt.Fprintf(&b, "%s: total %d, positive %d, neutral %d, negative %d",
			w.Source, w.Total, w.Positive, w.Neutral, w.Negative)
		if w.Inferred > 0 {
			fmt.Fprintf(&b, " (%d with inferred dates)", w.Inferred)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
