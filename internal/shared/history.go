package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryEntry represents a single recorded status change.
type HistoryEntry struct {
	ID     int64     `json:"id"`
	Entity string    `json:"entity"`
	RefID  int64     `json:"ref_id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Actor  int64     `json:"actor"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// HistoryRecorder persists status-change history.
type HistoryRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewHistoryRecorder constructs HistoryRecorder.
func NewHistoryRecorder(pool *pgxpool.Pool, logger *slog.Logger) *HistoryRecorder {
	return &HistoryRecorder{pool: pool, logger: logger}
}

// Record writes a history entry to the database.
func (r *HistoryRecorder) Record(ctx context.Context, entry HistoryEntry) error {
	if r == nil || r.pool == nil {
		return nil
	}
	if entry.Entity == "" {
		return errors.New("history entity required")
	}
	if entry.RefID == 0 {
		return errors.New("history ref id required")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO status_history (entity, ref_id, status_from, status_to, actor_id, note, at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, '0001-01-01'::timestamptz), NOW()))`,
		entry.Entity, entry.RefID, entry.From, entry.To, entry.Actor, entry.Note, entry.At)
	if err != nil {
		r.logger.Error("record status history", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns history for an entity/ref ordered oldest first.
func (r *HistoryRecorder) List(ctx context.Context, entity string, refID int64) ([]HistoryEntry, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("history recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, entity, ref_id, status_from, status_to, actor_id, note, at
FROM status_history WHERE entity=$1 AND ref_id=$2 ORDER BY at ASC`, entity, refID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Entity, &e.RefID, &e.From, &e.To, &e.Actor, &e.Note, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
