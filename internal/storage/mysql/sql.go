package mysql

// Stored reviews are immutable: plain INSERT, no ON DUPLICATE KEY UPDATE.
// The unique key on identity turns a concurrent or repeated insert into
// error 1062, which the repo reports as already-present.
const insertReviewSQL = `
INSERT INTO reviews
  (identity, source, product_ref, ` + "`text`" + `, occurred_at, occurred_at_inferred, sentiment, defect_signal)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

const reviewColumns = "identity, source, product_ref, `text`, occurred_at, occurred_at_inferred, sentiment, defect_signal"
