// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewpulse/internal/app"
	"reviewpulse/internal/domain"
)

// Handlers exposes the read-only surface over stored reviews. The write
// path belongs exclusively to the ingestion cycle.
type Handlers struct {
	Store   domain.ReviewStore
	Reports *app.ReportService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/sources/{source}/reviews", h.listReviews)
	s.mux.Get("/v1/sources/{source}/summary", h.sourceSummary)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

type reviewDTO struct {
	Identity     string    `json:"identity"`
	ProductRef   string    `json:"product_ref,omitempty"`
	Text         string    `json:"text"`
	OccurredAt   time.Time `json:"occurred_at"`
	DateInferred bool      `json:"date_inferred,omitempty"`
	Sentiment    string    `json:"sentiment"`
	DefectSignal bool      `json:"defect_signal"`
}

func toReviewDTOs(reviews []domain.Review) []reviewDTO {
	out := make([]reviewDTO, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, reviewDTO{
			Identity:     rv.Identity,
			ProductRef:   rv.ProductRef,
			Text:         rv.Text,
			OccurredAt:   rv.OccurredAt,
			DateInferred: rv.OccurredAtInferred,
			Sentiment:    string(rv.Sentiment),
			DefectSignal: rv.DefectSignal,
		})
	}
	return out
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	reviews, err := h.Store.ListRecent(r.Context(), source, limit)
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store Unavailable", "could not read reviews")
		return
	}

	writeJSON(w, r, map[string]any{
		"source":  source,
		"reviews": toReviewDTOs(reviews),
	})
}

func (h *Handlers) sourceSummary(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	days := 7
	if ds := r.URL.Query().Get("days"); ds != "" {
		d, err := strconv.Atoi(ds)
		if err != nil || d <= 0 || d > 90 {
			writeProblem(w, http.StatusBadRequest, "Invalid days", "days must be an integer between 1 and 90")
			return
		}
		days = d
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	windows, err := h.Reports.Summarize(r.Context(), []string{source}, start, end)
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store Unavailable", "could not summarize reviews")
		return
	}

	writeJSON(w, r, windows[0])
}
