package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"reviewpulse/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	mu       sync.Mutex
	byID     map[string]domain.Review
	order    []string
	failAll  bool
	queryErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]domain.Review{}}
}

func (f *fakeStore) InsertIfNew(ctx context.Context, r domain.Review) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return false, domain.ErrStoreUnavailable
	}
	if _, ok := f.byID[r.Identity]; ok {
		return false, nil
	}
	f.byID[r.Identity] = r
	f.order = append(f.order, r.Identity)
	return true, nil
}

func (f *fakeStore) QueryWindow(ctx context.Context, source string, start, end time.Time) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []domain.Review
	for _, id := range f.order {
		r := f.byID[id]
		if source != "" && r.Source != source {
			continue
		}
		if r.OccurredAt.Before(start) || !r.OccurredAt.Before(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) ListRecent(ctx context.Context, source string, limit int) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Review
	for i := len(f.order) - 1; i >= 0 && len(out) < limit; i-- {
		r := f.byID[f.order[i]]
		if source != "" && r.Source != source {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) stored(id string) (domain.Review, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	return r, ok
}

type fakeSource struct {
	name    string
	reviews []domain.Review
	err     error
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Fetch(ctx context.Context) ([]domain.Review, error) {
	return f.reviews, f.err
}

type fakeAlertSink struct {
	mu     sync.Mutex
	events []domain.AlertEvent
	bodies []string
}

func (f *fakeAlertSink) SendAlert(ctx context.Context, ev domain.AlertEvent, rendered string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	f.bodies = append(f.bodies, rendered)
	return nil
}

type fakeReportSink struct {
	subjects []string
	bodies   []string
}

func (f *fakeReportSink) SendReport(ctx context.Context, subject, body string) error {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

type fakeCache struct {
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok2 := dst.(*domain.ReportWindow); ok2 {
		*d = v.(domain.ReportWindow)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error { return nil }

// scoreModel returns a per-text polarity, simulating the external model.
type scoreModel struct {
	scores map[string]float64
	err    error
}

func (m *scoreModel) Score(ctx context.Context, text string) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if s, ok := m.scores[text]; ok {
		return s, nil
	}
	return 0, nil
}

var errModelDown = errors.New("model down")
