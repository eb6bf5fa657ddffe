package domain

import "time"

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Review is the normalized record every source adapter emits.
// Identity is the deduplication key: stable across re-fetches of the
// same underlying review, including pagination re-runs.
type Review struct {
	Identity   string
	Source     string
	ProductRef string // origin-specific product id; empty for single-brand sources
	Text       string
	OccurredAt time.Time
	// OccurredAtInferred marks records where the origin provided no
	// parseable date and ingestion time was substituted.
	OccurredAtInferred bool
	Sentiment          Sentiment
	DefectSignal       bool
}

// AlertEvent is emitted once per newly stored review that matches the
// defect-alert predicate.
type AlertEvent struct {
	Identity   string
	Source     string
	OccurredAt time.Time
	Text       string
}

// ReportWindow holds per-source sentiment counts over [Start, End).
type ReportWindow struct {
	Source   string    `json:"source"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Total    int       `json:"total"`
	Positive int       `json:"positive"`
	Neutral  int       `json:"neutral"`
	Negative int       `json:"negative"`
	// Inferred counts records whose occurred_at is ingestion time rather
	// than an origin-provided date, so report readers can discount them.
	Inferred int `json:"inferred_dates"`
}
