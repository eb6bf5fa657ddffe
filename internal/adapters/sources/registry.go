package sources

import (
	"fmt"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/shared"
)

// Build maps configured sources onto adapter implementations.
func Build(cfgs []shared.SourceConfig, client *Client) ([]domain.ReviewSource, error) {
	out := make([]domain.ReviewSource, 0, len(cfgs))
	for _, cfg := range cfgs {
		switch cfg.Kind {
		case "page":
			out = append(out, NewPageSource(cfg.Name, cfg.URL, client))
		case "card":
			out = append(out, NewCardSource(cfg.Name, cfg.URL, cfg.ProductIDs, cfg.PageSize, cfg.MaxPages, client))
		case "rest":
			out = append(out, NewRESTSource(cfg.Name, cfg.URL, cfg.APIKey, cfg.PageSize, cfg.MaxPages, client))
		default:
			return nil, fmt.Errorf("source %s: unknown kind %q", cfg.Name, cfg.Kind)
		}
	}
	return out, nil
}
