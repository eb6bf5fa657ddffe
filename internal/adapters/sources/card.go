package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
)

const (
	defaultPageSize = 10
	defaultMaxPages = 5
)

// CardSource pulls the paginated per-product card feed. Pages are fetched
// sequentially until a page comes back empty or short, or maxPages is hit.
type CardSource struct {
	name     string
	endpoint string
	products []string
	pageSize int
	maxPages int
	client   *Client
}

var _ domain.ReviewSource = (*CardSource)(nil)

func NewCardSource(name, endpoint string, products []string, pageSize, maxPages int, client *Client) *CardSource {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &CardSource{
		name:     name,
		endpoint: endpoint,
		products: products,
		pageSize: pageSize,
		maxPages: maxPages,
		client:   client,
	}
}

func (s *CardSource) Name() string { return s.name }

// cardPage is the feed envelope. Decoding is strict on shape: records
// missing id or text are dropped, never defaulted.
type cardPage struct {
	Data struct {
		Orders struct {
			Data []cardReview `json:"data"`
		} `json:"orders"`
	} `json:"data"`
}

type cardReview struct {
	ReviewID    string `json:"reviewId"`
	ReviewText  string `json:"reviewText"`
	DateCreated string `json:"dateCreated"`
}

// Fetch returns everything collected so far together with the first page
// failure, so one broken product does not discard the others' results.
func (s *CardSource) Fetch(ctx context.Context) ([]domain.Review, error) {
	var (
		out     []domain.Review
		firstEr error
	)

	for _, product := range s.products {
		reviews, err := s.fetchProduct(ctx, product)
		out = append(out, reviews...)
		if err != nil {
			log.Warn().Str("source", s.name).Str("product", product).Err(err).
				Msg("product feed failed, partial results kept")
			if firstEr == nil {
				firstEr = err
			}
		}
	}

	log.Info().Str("source", s.name).Int("count", len(out)).Msg("card feed fetched")
	return out, firstEr
}

func (s *CardSource) fetchProduct(ctx context.Context, product string) ([]domain.Review, error) {
	var out []domain.Review

	for page := 1; page <= s.maxPages; page++ {
		pageURL, err := s.pageURL(product, page)
		if err != nil {
			return out, err
		}

		var decoded cardPage
		if err := s.client.GetJSON(ctx, s.name, pageURL, nil, &decoded); err != nil {
			return out, fmt.Errorf("product %s page %d: %w", product, page, err)
		}

		items := decoded.Data.Orders.Data
		for _, raw := range items {
			r, err := s.normalize(product, raw)
			if err != nil {
				observability.RecordsSkipped.WithLabelValues(s.name).Inc()
				log.Debug().Str("source", s.name).Err(err).Msg("record skipped")
				continue
			}
			out = append(out, r)
		}

		if lastPage(len(items), s.pageSize) {
			break
		}
	}

	return out, nil
}

func (s *CardSource) pageURL(product string, page int) (string, error) {
	parsed, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %s: %w", s.endpoint, err)
	}
	q := parsed.Query()
	q.Set("nm", product)
	q.Set("page", strconv.Itoa(page))
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func (s *CardSource) normalize(product string, raw cardReview) (domain.Review, error) {
	if raw.ReviewText == "" {
		return domain.Review{}, domain.Skip("empty review text")
	}
	if raw.ReviewID == "" {
		return domain.Review{}, domain.Skip("missing review id for product %s", product)
	}

	occurredAt := time.Now().UTC()
	inferred := true
	if raw.DateCreated != "" {
		if parsed, err := time.Parse(time.RFC3339, raw.DateCreated); err == nil {
			occurredAt = parsed
			inferred = false
		}
	}
	if inferred {
		log.Debug().Str("source", s.name).Str("raw_date", raw.DateCreated).
			Msg("origin date unparseable, using ingestion time")
	}

	return domain.Review{
		Identity:           originIdentity(s.name, product, raw.ReviewID),
		Source:             s.name,
		ProductRef:         product,
		Text:               raw.ReviewText,
		OccurredAt:         occurredAt,
		OccurredAtInferred: inferred,
	}, nil
}
