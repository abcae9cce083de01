package history

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/mstasiak/ocusage/internal/opencode"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testMetrics(input int64) opencode.Metrics {
	return opencode.Metrics{
		TotalInputTokens:      input,
		TotalOutputTokens:     input / 2,
		TotalReasoningTokens:  5,
		TotalCacheWriteTokens: 2,
		TotalCacheReadTokens:  8,
		TotalCost:             0.5,
		TotalInteractions:     3,
		LastUpdated:           time.Now(),
	}
}

func TestSaveSnapshot_RoundTrip(t *testing.T) {
	repo := NewRepository(openTestStore(t))
	ctx := context.Background()
	date := day(2026, time.August, 20)

	if err := repo.SaveSnapshot(ctx, date, testMetrics(1000)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	snap, err := repo.GetSnapshot(ctx, date)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("snapshot missing")
	}
	if !snap.Date.Equal(date) {
		t.Fatalf("Date = %v, want %v", snap.Date, date)
	}
	if snap.InputTokens != 1000 || snap.OutputTokens != 500 || snap.ReasoningTokens != 5 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.CacheWriteTokens != 2 || snap.CacheReadTokens != 8 {
		t.Fatalf("cache tokens = %+v", snap)
	}
	if math.Abs(snap.TotalCost-0.5) > 1e-9 || snap.InteractionCount != 3 {
		t.Fatalf("cost/interactions = %v/%d", snap.TotalCost, snap.InteractionCount)
	}
	if snap.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not recorded")
	}
}

func TestSaveSnapshot_UpsertKeepsOneRowPerDate(t *testing.T) {
	store := openTestStore(t)
	repo := NewRepository(store)
	ctx := context.Background()
	date := day(2026, time.August, 20)

	if err := repo.SaveSnapshot(ctx, date, testMetrics(100)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, date, testMetrics(999)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM usage_snapshots`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("row count = %d, want 1", count)
	}

	snap, err := repo.GetSnapshot(ctx, date)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap.InputTokens != 999 {
		t.Fatalf("InputTokens = %d, want the replacing row's 999", snap.InputTokens)
	}
}

func TestGetSnapshot_MissingIsNilNotError(t *testing.T) {
	repo := NewRepository(openTestStore(t))

	snap, err := repo.GetSnapshot(context.Background(), day(2026, time.January, 1))
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap != nil {
		t.Fatalf("snap = %+v, want nil", snap)
	}
}

func TestGetRange_InclusiveAndOrdered(t *testing.T) {
	repo := NewRepository(openTestStore(t))
	ctx := context.Background()

	for _, d := range []int{10, 12, 11, 14, 9} {
		if err := repo.SaveSnapshot(ctx, day(2026, time.August, d), testMetrics(int64(d))); err != nil {
			t.Fatalf("save day %d: %v", d, err)
		}
	}

	snaps, err := repo.GetRange(ctx, day(2026, time.August, 10), day(2026, time.August, 12))
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("len = %d, want 3", len(snaps))
	}
	for i, want := range []int{10, 11, 12} {
		if snaps[i].Date.Day() != want {
			t.Fatalf("snaps[%d].Date = %v, want day %d", i, snaps[i].Date, want)
		}
	}
}

func TestGetRange_EmptyWindow(t *testing.T) {
	repo := NewRepository(openTestStore(t))

	snaps, err := repo.GetRange(context.Background(), day(2026, time.January, 1), day(2026, time.January, 31))
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(snaps) != 0 {
		t.Fatalf("len = %d, want 0", len(snaps))
	}
}

func TestGetLatest(t *testing.T) {
	repo := NewRepository(openTestStore(t))
	ctx := context.Background()

	latest, err := repo.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest on empty table: %v", err)
	}
	if latest != nil {
		t.Fatalf("latest = %+v, want nil", latest)
	}

	if err := repo.SaveSnapshot(ctx, day(2026, time.August, 10), testMetrics(1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, day(2026, time.August, 20), testMetrics(2)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, day(2026, time.August, 15), testMetrics(3)); err != nil {
		t.Fatalf("save: %v", err)
	}

	latest, err = repo.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest == nil || latest.Date.Day() != 20 {
		t.Fatalf("latest = %+v, want 2026-08-20", latest)
	}
}

func TestDeleteOld_RemovesOnlyExpiredRows(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.August, 24, 15, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	repo := NewRepository(store)
	ctx := context.Background()

	if err := repo.SaveSnapshot(ctx, day(2026, time.August, 24), testMetrics(1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, day(2026, time.August, 17), testMetrics(2)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, day(2026, time.August, 1), testMetrics(3)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, day(2026, time.July, 1), testMetrics(4)); err != nil {
		t.Fatalf("save: %v", err)
	}

	deleted, err := repo.DeleteOld(ctx, 7)
	if err != nil {
		t.Fatalf("DeleteOld: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	// 2026-08-17 is exactly the cutoff and must survive (date < cutoff).
	snap, err := repo.GetSnapshot(ctx, day(2026, time.August, 17))
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("cutoff-day snapshot was deleted")
	}

	deleted, err = repo.DeleteOld(ctx, 7)
	if err != nil {
		t.Fatalf("second DeleteOld: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("second delete = %d, want 0", deleted)
	}
}

func TestDeleteOld_EmptyTable(t *testing.T) {
	repo := NewRepository(openTestStore(t))

	deleted, err := repo.DeleteOld(context.Background(), 30)
	if err != nil {
		t.Fatalf("DeleteOld: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted = %d, want 0", deleted)
	}
}

func TestGetWeekSummary(t *testing.T) {
	repo := NewRepository(openTestStore(t))
	ctx := context.Background()
	weekStart := day(2026, time.August, 17)

	// Three of seven days present, plus one outside the week.
	for i, input := range []int64{100, 200, 300} {
		if err := repo.SaveSnapshot(ctx, weekStart.AddDate(0, 0, i), testMetrics(input)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := repo.SaveSnapshot(ctx, weekStart.AddDate(0, 0, 7), testMetrics(5000)); err != nil {
		t.Fatalf("save out-of-week: %v", err)
	}

	summary, err := repo.GetWeekSummary(ctx, weekStart)
	if err != nil {
		t.Fatalf("GetWeekSummary: %v", err)
	}
	if summary.TotalInputTokens != 600 {
		t.Fatalf("TotalInputTokens = %d, want 600", summary.TotalInputTokens)
	}
	if summary.TotalInteractions != 9 {
		t.Fatalf("TotalInteractions = %d, want 9", summary.TotalInteractions)
	}
	if !summary.EndDate.Equal(day(2026, time.August, 23)) {
		t.Fatalf("EndDate = %v", summary.EndDate)
	}
}
