package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/raine/marketplace-assistant/internal/availability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetSettings_Empty(t *testing.T) {
	store := newTestStore(t)

	settings, err := store.GetSettings(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), settings.TelegramID)
	assert.Empty(t, settings.Location)
	assert.Empty(t, settings.MeetingLocations)
	assert.True(t, settings.Availability.IsEmpty())
}

func TestSettings_FieldsUpdateIndependently(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetLocation(1, "Seattle, WA"))
	require.NoError(t, store.SetMeetingLocations(1, "Library parking lot"))

	var week availability.Week
	week.Toggle(0, availability.Morning)
	week.SetCustom(5, "after 4pm")
	require.NoError(t, store.SetAvailability(1, week))

	// Overwriting one column keeps the others.
	require.NoError(t, store.SetLocation(1, "Tacoma, WA"))

	settings, err := store.GetSettings(1)
	require.NoError(t, err)
	assert.Equal(t, "Tacoma, WA", settings.Location)
	assert.Equal(t, "Library parking lot", settings.MeetingLocations)
	assert.Equal(t, week, settings.Availability)
	assert.Equal(t, "Monday: Morning; Saturday: Custom: after 4pm", settings.Availability.Summary())

	other, err := store.GetSettings(2)
	require.NoError(t, err)
	assert.Empty(t, other.Location)
}

func TestUsageSummary(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	require.NoError(t, store.RecordUsage(UsageRecord{
		Provider: "xai", Model: "m", InputTokens: 1000, OutputTokens: 200,
		CostUSD: 0.0003, Search: true, ImageCount: 2, OK: true, CreatedAt: now.Add(-time.Minute),
	}))
	require.NoError(t, store.RecordUsage(UsageRecord{
		Provider: "xai", Model: "m", OK: false, CreatedAt: now,
	}))
	require.NoError(t, store.RecordUsage(UsageRecord{
		Provider: "xai", Model: "m", InputTokens: 5, OK: true, CreatedAt: now.Add(-48 * time.Hour),
	}))

	summary, err := store.GetUsageSummary(now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Calls)
	assert.Equal(t, 1, summary.FailedCalls)
	assert.Equal(t, int64(1000), summary.InputTokens)
	assert.Equal(t, int64(200), summary.OutputTokens)
	assert.InDelta(t, 0.0003, summary.CostUSD, 1e-9)

	all, err := store.GetUsageSummary(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Calls)
}

func TestUsageSummary_Empty(t *testing.T) {
	store := newTestStore(t)

	summary, err := store.GetUsageSummary(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, &UsageSummary{}, summary)
}

func TestUsageSummary_WindowBoundary(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, at := range []time.Time{
		base.Add(-time.Second),
		base,
		base.Add(700 * time.Millisecond),
		base.Add(2 * time.Second).In(time.FixedZone("PST", -8*3600)),
	} {
		require.NoError(t, store.RecordUsage(UsageRecord{Provider: "xai", Model: "m", OK: true, CreatedAt: at}))
	}

	summary, err := store.GetUsageSummary(base)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Calls)

	summary, err = store.GetUsageSummary(base.Add(500 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Calls)

	summary, err = store.GetUsageSummary(base.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Calls)
}
