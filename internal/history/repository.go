package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/mstasiak/ocusage/internal/opencode"
)

const dateLayout = "2006-01-02"

// Snapshot is one persisted daily rollup. At most one row exists per
// date; saving again for the same date replaces the row.
type Snapshot struct {
	Date             time.Time
	InputTokens      int64
	OutputTokens     int64
	ReasoningTokens  int64
	CacheWriteTokens int64
	CacheReadTokens  int64
	TotalCost        float64
	InteractionCount int64
	CreatedAt        time.Time
}

// Repository provides typed snapshot operations over a Store.
type Repository struct {
	store *Store
}

func NewRepository(store *Store) *Repository {
	return &Repository{store: store}
}

// SaveSnapshot upserts the snapshot for date. The date's time-of-day
// component is ignored; only the calendar day keys the row.
func (r *Repository) SaveSnapshot(ctx context.Context, date time.Time, m opencode.Metrics) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO usage_snapshots (
			date, input_tokens, output_tokens, reasoning_tokens,
			cache_write_tokens, cache_read_tokens, total_cost,
			interaction_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		date.Format(dateLayout),
		m.TotalInputTokens,
		m.TotalOutputTokens,
		m.TotalReasoningTokens,
		m.TotalCacheWriteTokens,
		m.TotalCacheReadTokens,
		m.TotalCost,
		m.TotalInteractions,
		r.store.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("history: save snapshot for %s: %w", date.Format(dateLayout), err)
	}
	return nil
}

const snapshotColumns = `date, input_tokens, output_tokens, reasoning_tokens,
	cache_write_tokens, cache_read_tokens, total_cost, interaction_count, created_at`

// GetSnapshot returns the snapshot for date, or nil if none exists.
func (r *Repository) GetSnapshot(ctx context.Context, date time.Time) (*Snapshot, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM usage_snapshots WHERE date = ?`,
		date.Format(dateLayout),
	)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: get snapshot for %s: %w", date.Format(dateLayout), err)
	}
	return &snap, nil
}

// GetRange returns snapshots with start <= date <= end, ascending by
// date. An empty window yields an empty slice, not an error.
func (r *Repository) GetRange(ctx context.Context, start, end time.Time) ([]Snapshot, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM usage_snapshots
		 WHERE date >= ? AND date <= ?
		 ORDER BY date ASC`,
		start.Format(dateLayout), end.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("history: query snapshot range: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}

// GetLatest returns the snapshot with the highest date, or nil on an
// empty table.
func (r *Repository) GetLatest(ctx context.Context) (*Snapshot, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM usage_snapshots ORDER BY date DESC LIMIT 1`,
	)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: get latest snapshot: %w", err)
	}
	return &snap, nil
}

// DeleteOld removes snapshots older than retentionDays, counted back
// from today (UTC), and reports how many rows were removed.
func (r *Repository) DeleteOld(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := r.store.now().UTC().AddDate(0, 0, -retentionDays)
	result, err := r.store.db.ExecContext(ctx,
		`DELETE FROM usage_snapshots WHERE date < ?`,
		cutoff.Format(dateLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("history: delete old snapshots: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: count deleted snapshots: %w", err)
	}
	return deleted, nil
}

// WeekSummary folds the seven days starting at weekStart into a single
// aggregate. Missing days simply contribute nothing.
type WeekSummary struct {
	StartDate             time.Time
	EndDate               time.Time
	TotalInputTokens      int64
	TotalOutputTokens     int64
	TotalReasoningTokens  int64
	TotalCacheWriteTokens int64
	TotalCacheReadTokens  int64
	TotalCost             float64
	TotalInteractions     int64
}

func (r *Repository) GetWeekSummary(ctx context.Context, weekStart time.Time) (WeekSummary, error) {
	weekEnd := weekStart.AddDate(0, 0, 6)
	snapshots, err := r.GetRange(ctx, weekStart, weekEnd)
	if err != nil {
		return WeekSummary{}, err
	}
	return WeekSummary{
		StartDate:             weekStart,
		EndDate:               weekEnd,
		TotalInputTokens:      lo.SumBy(snapshots, func(s Snapshot) int64 { return s.InputTokens }),
		TotalOutputTokens:     lo.SumBy(snapshots, func(s Snapshot) int64 { return s.OutputTokens }),
		TotalReasoningTokens:  lo.SumBy(snapshots, func(s Snapshot) int64 { return s.ReasoningTokens }),
		TotalCacheWriteTokens: lo.SumBy(snapshots, func(s Snapshot) int64 { return s.CacheWriteTokens }),
		TotalCacheReadTokens:  lo.SumBy(snapshots, func(s Snapshot) int64 { return s.CacheReadTokens }),
		TotalCost:             lo.SumBy(snapshots, func(s Snapshot) float64 { return s.TotalCost }),
		TotalInteractions:     lo.SumBy(snapshots, func(s Snapshot) int64 { return s.InteractionCount }),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var (
		snap      Snapshot
		dateStr   string
		createdAt string
	)
	err := row.Scan(
		&dateStr,
		&snap.InputTokens,
		&snap.OutputTokens,
		&snap.ReasoningTokens,
		&snap.CacheWriteTokens,
		&snap.CacheReadTokens,
		&snap.TotalCost,
		&snap.InteractionCount,
		&createdAt,
	)
	if err != nil {
		return Snapshot{}, err
	}

	snap.Date, err = time.Parse(dateLayout, dateStr)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot date %q: %w", dateStr, err)
	}
	snap.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot created_at %q: %w", createdAt, err)
	}
	return snap, nil
}
