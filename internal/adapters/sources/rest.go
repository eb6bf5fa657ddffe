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

// RESTSource pulls a bearer-authenticated JSON review endpoint, paginated
// via page/limit query parameters with the shared termination policy.
type RESTSource struct {
	name     string
	endpoint string
	apiKey   string
	pageSize int
	maxPages int
	client   *Client
}

var _ domain.ReviewSource = (*RESTSource)(nil)

func NewRESTSource(name, endpoint, apiKey string, pageSize, maxPages int, client *Client) *RESTSource {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &RESTSource{
		name:     name,
		endpoint: endpoint,
		apiKey:   apiKey,
		pageSize: pageSize,
		maxPages: maxPages,
		client:   client,
	}
}

func (s *RESTSource) Name() string { return s.name }

type restEnvelope struct {
	Reviews []restReview `json:"reviews"`
}

type restReview struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Date string `json:"date"`
}

func (s *RESTSource) Fetch(ctx context.Context) ([]domain.Review, error) {
	var out []domain.Review

	for page := 1; page <= s.maxPages; page++ {
		pageURL, err := s.pageURL(page)
		if err != nil {
			return out, err
		}

		var decoded restEnvelope
		if err := s.client.GetJSON(ctx, s.name, pageURL, BearerAuth(s.apiKey), &decoded); err != nil {
			return out, fmt.Errorf("page %d: %w", page, err)
		}

		for _, raw := range decoded.Reviews {
			r, err := s.normalize(raw)
			if err != nil {
				observability.RecordsSkipped.WithLabelValues(s.name).Inc()
				log.Debug().Str("source", s.name).Err(err).Msg("record skipped")
				continue
			}
			out = append(out, r)
		}

		if lastPage(len(decoded.Reviews), s.pageSize) {
			break
		}
	}

	log.Info().Str("source", s.name).Int("count", len(out)).Msg("rest feed fetched")
	return out, nil
}

func (s *RESTSource) pageURL(page int) (string, error) {
	parsed, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %s: %w", s.endpoint, err)
	}
	q := parsed.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(s.pageSize))
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func (s *RESTSource) normalize(raw restReview) (domain.Review, error) {
	if raw.Text == "" {
		return domain.Review{}, domain.Skip("empty review text")
	}

	identity := contentIdentity(s.name, raw.Text)
	if raw.ID != "" {
		identity = originIdentity(s.name, raw.ID)
	}

	occurredAt := time.Now().UTC()
	inferred := true
	if raw.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, raw.Date); err == nil {
			occurredAt = parsed
			inferred = false
		}
	}
	if inferred {
		log.Debug().Str("source", s.name).Str("raw_date", raw.Date).
			Msg("origin date unparseable, using ingestion time")
	}

	return domain.Review{
		Identity:           identity,
		Source:             s.name,
		Text:               raw.Text,
		OccurredAt:         occurredAt,
		OccurredAtInferred: inferred,
	}, nil
}
