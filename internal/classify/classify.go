// Package classify assigns sentiment and the defect flag to review text.
// Sentiment is thresholded from an external polarity score; the defect
// flag is a lexical keyword heuristic tuned for high-recall triage, not
// precision.
package classify

import (
	"context"
	"fmt"
	"strings"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/shared"
)

type Result struct {
	Sentiment    domain.Sentiment
	DefectSignal bool
}

type Classifier struct {
	model    domain.PolarityModel
	positive float64
	negative float64
	keywords []string
}

// New builds a classifier from configured thresholds and keywords.
// Keywords are matched case-insensitively as substrings.
func New(model domain.PolarityModel, cfg shared.ClassifyConfig) *Classifier {
	kws := make([]string, 0, len(cfg.DefectKeywords))
	for _, kw := range cfg.DefectKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return &Classifier{
		model:    model,
		positive: cfg.PositiveThreshold,
		negative: cfg.NegativeThreshold,
		keywords: kws,
	}
}

// Classify is deterministic for a given text and configuration. When the
// polarity model fails, the result falls back to neutral with the defect
// flag still computed, and the error is returned for logging. The
// record is stored either way.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	res := Result{
		Sentiment:    domain.SentimentNeutral,
		DefectSignal: c.containsDefect(text),
	}

	if c.model == nil {
		return res, nil
	}

	polarity, err := c.model.Score(ctx, text)
	if err != nil {
		return res, fmt.Errorf("polarity model: %w", err)
	}

	switch {
	case polarity > c.positive:
		res.Sentiment = domain.SentimentPositive
	case polarity < c.negative:
		res.Sentiment = domain.SentimentNegative
	}
	return res, nil
}

func (c *Classifier) containsDefect(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
