package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpserver "reviewpulse/internal/adapters/http_server"
	"reviewpulse/internal/app"
	"reviewpulse/internal/domain"
)

type memStore struct {
	reviews []domain.Review
	err     error
}

func (m *memStore) InsertIfNew(ctx context.Context, r domain.Review) (bool, error) {
	m.reviews = append(m.reviews, r)
	return true, nil
}

func (m *memStore) QueryWindow(ctx context.Context, source string, start, end time.Time) ([]domain.Review, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Review
	for _, r := range m.reviews {
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

func (m *memStore) ListRecent(ctx context.Context, source string, limit int) ([]domain.Review, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Review
	for i := len(m.reviews) - 1; i >= 0 && len(out) < limit; i-- {
		if source != "" && m.reviews[i].Source != source {
			continue
		}
		out = append(out, m.reviews[i])
	}
	return out, nil
}

func testServer(store *memStore) *httptest.Server {
	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{
		Store:   store,
		Reports: app.NewReportService(store, nil, nil, []string{"brand"}, 0),
	})
	return httptest.NewServer(srv.Mux())
}

func seedStore() *memStore {
	now := time.Now().UTC()
	return &memStore{reviews: []domain.Review{
		{Identity: "brand:1", Source: "brand", Text: "good", Sentiment: domain.SentimentPositive,
			OccurredAt: now.Add(-48 * time.Hour)},
		{Identity: "brand:2", Source: "brand", Text: "arrived broken", Sentiment: domain.SentimentNegative,
			DefectSignal: true, OccurredAt: now.Add(-24 * time.Hour)},
		{Identity: "competitor:1", Source: "competitor", Text: "fine", Sentiment: domain.SentimentNeutral,
			OccurredAt: now.Add(-24 * time.Hour)},
	}}
}

func TestHealthz(t *testing.T) {
	ts := testServer(seedStore())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestListReviews(t *testing.T) {
	ts := testServer(seedStore())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sources/brand/reviews?limit=10")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Source  string `json:"source"`
		Reviews []struct {
			Identity     string `json:"identity"`
			Sentiment    string `json:"sentiment"`
			DefectSignal bool   `json:"defect_signal"`
		} `json:"reviews"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Source != "brand" || len(body.Reviews) != 2 {
		t.Fatalf("body = %+v", body)
	}
	// newest first
	if body.Reviews[0].Identity != "brand:2" || !body.Reviews[0].DefectSignal {
		t.Fatalf("first review = %+v", body.Reviews[0])
	}
}

func TestListReviews_InvalidLimit(t *testing.T) {
	ts := testServer(seedStore())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sources/brand/reviews?limit=9999")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content-type = %q", ct)
	}
}

func TestSourceSummary(t *testing.T) {
	ts := testServer(seedStore())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sources/brand/summary?days=7")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var win domain.ReportWindow
	if err := json.NewDecoder(resp.Body).Decode(&win); err != nil {
		t.Fatal(err)
	}
	if win.Source != "brand" || win.Total != 2 || win.Positive != 1 || win.Negative != 1 {
		t.Fatalf("window = %+v", win)
	}
}

func TestSourceSummary_ETagRoundTrip(t *testing.T) {
	store := seedStore()
	ts := testServer(store)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sources/competitor/reviews")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/sources/competitor/reviews", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", resp2.StatusCode)
	}
}

func TestStoreFailureMapsTo503(t *testing.T) {
	store := seedStore()
	store.err = domain.ErrStoreUnavailable
	ts := testServer(store)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sources/brand/reviews")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
