package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	mysqldrv "github.com/go-sql-driver/mysql"

	"reviewpulse/internal/domain"
)

const duplicateKeyErr = 1062

type Repo struct{ db *sql.DB }

var _ domain.ReviewStore = (*Repo)(nil)

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// InsertIfNew attempts a plain insert. A duplicate identity is success
// with inserted=false; any other failure means the store is unusable for
// this cycle and wraps ErrStoreUnavailable.
func (r *Repo) InsertIfNew(ctx context.Context, rv domain.Review) (bool, error) {
	_, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.Identity,
		rv.Source,
		nullStr(rv.ProductRef),
		rv.Text,
		rv.OccurredAt.UTC(),
		rv.OccurredAtInferred,
		string(rv.Sentiment),
		rv.DefectSignal,
	)
	if err != nil {
		var me *mysqldrv.MySQLError
		if errors.As(err, &me) && me.Number == duplicateKeyErr {
			return false, nil
		}
		return false, fmt.Errorf("%w: insert %s: %v", domain.ErrStoreUnavailable, rv.Identity, err)
	}
	return true, nil
}

// QueryWindow returns reviews with occurred_at in [start, end), oldest
// first. An empty source matches all sources.
func (r *Repo) QueryWindow(ctx context.Context, source string, start, end time.Time) ([]domain.Review, error) {
	b := sq.Select(reviewColumns).
		From("reviews").
		Where(sq.GtOrEq{"occurred_at": start.UTC()}).
		Where(sq.Lt{"occurred_at": end.UTC()}).
		OrderBy("occurred_at ASC", "identity ASC")
	if source != "" {
		b = b.Where(sq.Eq{"source": source})
	}
	return r.queryReviews(ctx, b)
}

func (r *Repo) ListRecent(ctx context.Context, source string, limit int) ([]domain.Review, error) {
	if limit <= 0 {
		limit = 50
	}
	b := sq.Select(reviewColumns).
		From("reviews").
		OrderBy("occurred_at DESC", "identity DESC").
		Limit(uint64(limit))
	if source != "" {
		b = b.Where(sq.Eq{"source": source})
	}
	return r.queryReviews(ctx, b)
}

func (r *Repo) queryReviews(ctx context.Context, b sq.SelectBuilder) ([]domain.Review, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query reviews: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var (
			rv         domain.Review
			productRef sql.NullString
			sentiment  string
		)
		if err := rows.Scan(
			&rv.Identity,
			&rv.Source,
			&productRef,
			&rv.Text,
			&rv.OccurredAt,
			&rv.OccurredAtInferred,
			&sentiment,
			&rv.DefectSignal,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if productRef.Valid {
			rv.ProductRef = productRef.String
		}
		rv.Sentiment = domain.Sentiment(sentiment)
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
