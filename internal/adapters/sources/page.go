package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
)

// Marketplace brand pages render reviews in these blocks.
const (
	pageReviewSel = ".feedback__item"
	pageTextSel   = ".feedback__text"
	pageDateSel   = ".feedback__date"
	pageDateFmt   = "02.01.2006"
)

// PageSource scrapes a single brand review page. These origins expose no
// review ids, so identities are content hashes.
type PageSource struct {
	name   string
	url    string
	client *Client
}

var _ domain.ReviewSource = (*PageSource)(nil)

func NewPageSource(name, url string, client *Client) *PageSource {
	return &PageSource{name: name, url: url, client: client}
}

func (s *PageSource) Name() string { return s.name }

func (s *PageSource) Fetch(ctx context.Context) ([]domain.Review, error) {
	body, err := s.client.GetBody(ctx, s.name, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", s.url, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", s.url, err)
	}

	var out []domain.Review
	doc.Find(pageReviewSel).Each(func(i int, block *goquery.Selection) {
		r, err := s.normalize(block)
		if err != nil {
			observability.RecordsSkipped.WithLabelValues(s.name).Inc()
			log.Debug().Str("source", s.name).Err(err).Msg("record skipped")
			return
		}
		out = append(out, r)
	})

	log.Info().Str("source", s.name).Int("count", len(out)).Msg("page scraped")
	return out, nil
}

func (s *PageSource) normalize(block *goquery.Selection) (domain.Review, error) {
	text := strings.TrimSpace(block.Find(pageTextSel).First().Text())
	if text == "" {
		return domain.Review{}, domain.Skip("empty review text")
	}

	occurredAt := time.Now().UTC()
	inferred := true
	dateText := strings.TrimSpace(block.Find(pageDateSel).First().Text())
	if dateText != "" {
		if parsed, err := time.Parse(pageDateFmt, dateText); err == nil {
			occurredAt = parsed
			inferred = false
		}
	}
	if inferred {
		log.Debug().Str("source", s.name).Str("raw_date", dateText).
			Msg("origin date unparseable, using ingestion time")
	}

	return domain.Review{
		Identity:           contentIdentity(s.name, text),
		Source:             s.name,
		Text:               text,
		OccurredAt:         occurredAt,
		OccurredAtInferred: inferred,
	}, nil
}
