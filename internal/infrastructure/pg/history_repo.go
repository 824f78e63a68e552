package pg

import (
	"context"
	"strconv"
	"time"

	"carbonprice-service/internal/application"
	"carbonprice-service/internal/domain"
	"carbonprice-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

// HistoryRepo persists scheduled fetch results. The table is append-only;
// rows are never updated or deleted here.
type HistoryRepo struct{ db *DB }

var _ application.HistoryRepo = (*HistoryRepo)(nil)

func NewHistoryRepo(db *DB) *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) Append(ctx context.Context, rec domain.HistoryRecord) error {
	const ins = `
        INSERT INTO price_history(price, currency, source, quoted_at, change24h)
        VALUES ($1, $2, $3, $4, $5)`
	log := logx.L().With(
		zap.String("repo", "price_history"),
		zap.String("operation", "Append"),
		zap.Float64("price", rec.Price),
		zap.String("source", rec.Source),
	)
	tag, err := r.db.Pool.Exec(ctx, ins, rec.Price, rec.Currency, rec.Source, rec.Timestamp, rec.Change24h)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Info("sql.exec_success", zap.Int64("rows_affected", int64(tag.RowsAffected())))
	return nil
}

func (r *HistoryRepo) List(ctx context.Context, from, to time.Time, source string, limit int) ([]domain.HistoryRecord, error) {
	const base = `
        SELECT id, price, currency, source, quoted_at, change24h, inserted_at
        FROM price_history
        WHERE quoted_at >= $1 AND quoted_at <= $2`

	q := base
	args := []any{from, to}
	if source != "" {
		q += ` AND source = $3`
		args = append(args, source)
	}
	q += ` ORDER BY quoted_at ASC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		logx.L().Error("sql.query_failed",
			zap.String("repo", "price_history"),
			zap.String("operation", "List"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var out []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.Price, &rec.Currency, &rec.Source, &rec.Timestamp, &rec.Change24h, &rec.InsertedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
