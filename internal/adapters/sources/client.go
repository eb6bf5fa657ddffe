package sources

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reviewpulse/internal/adapters/observability"
)

var (
	ErrNotFound     = errors.New("source: not found")
	ErrUnauthorized = errors.New("source: unauthorized")
	ErrForbidden    = errors.New("source: forbidden")
)

// Client is the shared outbound HTTP client for all source adapters:
// client-side rate limiting, bounded timeout, retries on 429/transient
// 5xx honoring Retry-After.
type Client struct {
	hc *http.Client
	rl *rate.Limiter
}

func NewClient(rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		hc: &http.Client{Timeout: 15 * time.Second},
		rl: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type authHeader struct {
	name  string
	value string
}

// BearerAuth is used by the REST adapter; key-less calls pass nil.
func BearerAuth(key string) *authHeader {
	if key == "" {
		return nil
	}
	return &authHeader{name: "Authorization", value: "Bearer " + key}
}

// GetJSON fetches url and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, service, url string, auth *authHeader, out any) error {
	body, err := c.get(ctx, service, url, auth, "application/json, text/plain, */*")
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	return nil
}

// GetBody fetches url and returns the raw body (HTML pages).
func (c *Client) GetBody(ctx context.Context, service, url string) ([]byte, error) {
	return c.get(ctx, service, url, nil, "text/html,*/*")
}

// get performs a GET with rate limiting and retries, returning the full
// body on success.
func (c *Client) get(ctx context.Context, service, url string, auth *authHeader, accept string) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if auth != nil {
			req.Header.Set(auth.name, auth.value)
		}
		req.Header.Set("Accept", accept)
		req.Header.Set("User-Agent", "reviewpulse/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			observability.ObserveExternal(service, url, 0, time.Since(start))
			return nil, lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			observability.ObserveExternal(service, url, resp.StatusCode, time.Since(start))
			if err != nil {
				return nil, fmt.Errorf("read %s body: %w", service, err)
			}
			return body, nil

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			observability.ObserveExternal(service, url, resp.StatusCode, time.Since(start))
			return nil, nil

		case http.StatusNotFound:
			resp.Body.Close()
			observability.ObserveExternal(service, url, resp.StatusCode, time.Since(start))
			return nil, ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			observability.ObserveExternal(service, url, resp.StatusCode, time.Since(start))
			return nil, ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			observability.ObserveExternal(service, url, resp.StatusCode, time.Since(start))
			return nil, ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%s returned %d", service, resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			observability.ObserveExternal(service, url, resp.StatusCode, time.Since(start))
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			observability.ObserveExternal(service, url, resp.StatusCode, time.Since(start))
			return nil, fmt.Errorf("%s bad status %d: %s", service, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return nil, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up
// to +50% jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
