package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/absolutely-right/internal/models"
)

// DailyStatsRepository stores one row of counters per day
type DailyStatsRepository struct {
	db *DB
}

// NewDailyStatsRepository creates a new daily stats repository
func NewDailyStatsRepository(db *DB) *DailyStatsRepository {
	return &DailyStatsRepository{db: db}
}

// Upsert stores a row, replacing any counters already stored for that day.
// Uploads are full daily totals, so a re-upload overwrites rather than adds.
func (r *DailyStatsRepository) Upsert(ctx context.Context, row models.DailyRow) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_stats (day, count, right_count, total_messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (day) DO UPDATE SET
			count = EXCLUDED.count,
			right_count = EXCLUDED.right_count,
			total_messages = EXCLUDED.total_messages,
			updated_at = EXCLUDED.updated_at
	`, row.Day, row.Count, row.RightCount, row.TotalMessages, now, now)
	if err != nil {
		return fmt.Errorf("upsert daily stats: %w", err)
	}
	return nil
}

// GetByDay returns the stored row for day, or nil when there is none
func (r *DailyStatsRepository) GetByDay(ctx context.Context, day string) (*models.DailyStats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT to_char(day, 'YYYY-MM-DD'), count, right_count, total_messages, created_at, updated_at
		FROM daily_stats WHERE day = $1
	`, day)
	s := &models.DailyStats{}
	err := row.Scan(&s.Day, &s.Count, &s.RightCount, &s.TotalMessages, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily stats: %w", err)
	}
	return s, nil
}

// History returns stored rows oldest first. A positive days keeps only the
// most recent days rows; zero or less returns the full series.
func (r *DailyStatsRepository) History(ctx context.Context, days int) ([]models.DailyRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, count, right_count, total_messages FROM (
			SELECT to_char(day, 'YYYY-MM-DD') AS day, count, right_count, total_messages
			FROM daily_stats
			ORDER BY daily_stats.day DESC
			LIMIT $1
		) recent
		ORDER BY day ASC
	`, historyLimit(days))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	history := make([]models.DailyRow, 0)
	for rows.Next() {
		var d models.DailyRow
		if err := rows.Scan(&d.Day, &d.Count, &d.RightCount, &d.TotalMessages); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		history = append(history, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return history, nil
}

// historyLimit maps a window to a LIMIT argument. NULL means LIMIT ALL in Postgres.
func historyLimit(days int) sql.NullInt64 {
	if days <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(days), Valid: true}
}
