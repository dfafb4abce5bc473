package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/raine/marketplace-assistant/internal/availability"
	_ "modernc.org/sqlite"
)

// Settings are the per-chat defaults offered when a flow asks for them again.
type Settings struct {
	TelegramID       int64
	Location         string
	MeetingLocations string
	Availability     availability.Week
}

// UsageRecord describes one model call. Prompt and response text are never
// stored.
type UsageRecord struct {
	Provider     string
	Model        string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	Search       bool
	ImageCount   int
	OK           bool
	CreatedAt    time.Time
}

// UsageSummary aggregates usage records.
type UsageSummary struct {
	Calls        int
	FailedCalls  int
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// SettingsStore defines the interface for per-chat settings persistence.
type SettingsStore interface {
	GetSettings(telegramID int64) (*Settings, error)
	SetLocation(telegramID int64, location string) error
	SetMeetingLocations(telegramID int64, locations string) error
	SetAvailability(telegramID int64, week availability.Week) error

	RecordUsage(rec UsageRecord) error
	GetUsageSummary(since time.Time) (*UsageSummary, error)

	Close() error
}

// SQLiteStore implements SettingsStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ SettingsStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and creates if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL mode and busy timeout for concurrent chat workers
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	// Only effective once the file exists, which init guarantees.
	_ = os.Chmod(dbPath, 0600)

	return store, nil
}

func (s *SQLiteStore) init() error {
	settingsQuery := `
	CREATE TABLE IF NOT EXISTS seller_settings (
		telegram_id INTEGER PRIMARY KEY,
		location TEXT,
		meeting_locations TEXT,
		availability TEXT
	);
	`
	if _, err := s.db.Exec(settingsQuery); err != nil {
		return fmt.Errorf("failed to create seller_settings table: %w", err)
	}

	usageQuery := `
	CREATE TABLE IF NOT EXISTS api_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		cost_usd REAL NOT NULL DEFAULT 0,
		search INTEGER NOT NULL DEFAULT 0,
		image_count INTEGER NOT NULL DEFAULT 0,
		ok INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(usageQuery); err != nil {
		return fmt.Errorf("failed to create api_usage table: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetSettings returns the stored settings, or empty settings if none exist.
func (s *SQLiteStore) GetSettings(telegramID int64) (*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var location, meetingLocations, availabilityJSON sql.NullString
	err := s.db.QueryRow(
		"SELECT location, meeting_locations, availability FROM seller_settings WHERE telegram_id = ?",
		telegramID,
	).Scan(&location, &meetingLocations, &availabilityJSON)

	settings := &Settings{TelegramID: telegramID}
	if err == sql.ErrNoRows {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	settings.Location = location.String
	settings.MeetingLocations = meetingLocations.String
	if availabilityJSON.String != "" {
		if err := json.Unmarshal([]byte(availabilityJSON.String), &settings.Availability); err != nil {
			return nil, fmt.Errorf("failed to unmarshal availability: %w", err)
		}
	}

	return settings, nil
}

// SetLocation sets the default item location.
func (s *SQLiteStore) SetLocation(telegramID int64, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO seller_settings (telegram_id, location)
		VALUES (?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			location = excluded.location
	`, telegramID, location)
	if err != nil {
		return fmt.Errorf("failed to set location: %w", err)
	}
	return nil
}

// SetMeetingLocations sets the default preferred meetup spots.
func (s *SQLiteStore) SetMeetingLocations(telegramID int64, locations string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO seller_settings (telegram_id, meeting_locations)
		VALUES (?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			meeting_locations = excluded.meeting_locations
	`, telegramID, locations)
	if err != nil {
		return fmt.Errorf("failed to set meeting locations: %w", err)
	}
	return nil
}

// SetAvailability stores the last used availability grid.
func (s *SQLiteStore) SetAvailability(telegramID int64, week availability.Week) error {
	data, err := json.Marshal(week)
	if err != nil {
		return fmt.Errorf("failed to marshal availability: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO seller_settings (telegram_id, availability)
		VALUES (?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			availability = excluded.availability
	`, telegramID, string(data))
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	return nil
}

// RecordUsage appends a usage record.
func (s *SQLiteStore) RecordUsage(rec UsageRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO api_usage (provider, model, input_tokens, output_tokens, cost_usd, search, image_count, ok, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens, rec.CostUSD, rec.Search, rec.ImageCount, rec.OK, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// GetUsageSummary aggregates records created at or after since, at one-second
// resolution.
func (s *SQLiteStore) GetUsageSummary(since time.Time) (*UsageSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary UsageSummary
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN ok THEN 0 ELSE 1 END), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(cost_usd), 0)
		FROM api_usage
		WHERE created_at >= ?
	`, since.Unix()).Scan(&summary.Calls, &summary.FailedCalls, &summary.InputTokens, &summary.OutputTokens, &summary.CostUSD)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage summary: %w", err)
	}

	return &summary, nil
}
