// Package database keeps a SQLite journal of booking events.
// The journal is an audit trail; booking state itself stays in memory.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"appointease/internal/events"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// Journal wraps the SQLite event log.
type Journal struct {
	*sql.DB
	path   string
	logger zerolog.Logger
}

// Entry is one journaled event.
type Entry struct {
	ID            int64     `json:"id"`
	Seq           int64     `json:"seq"`
	EventType     string    `json:"event_type"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	SlotID        string    `json:"slot_id,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	Payload       string    `json:"payload"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewJournal opens the journal database at path and creates tables.
func NewJournal(path string, logger *zerolog.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "journal").Logger()
	}
	l.Info().Str("path", path).Msg("journal initialized")
	return &Journal{DB: db, path: path, logger: l}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS booking_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seq INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			appointment_id TEXT,
			slot_id TEXT,
			user_id TEXT,
			status TEXT,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_events_appointment ON booking_events(appointment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_events_type ON booking_events(event_type, created_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// Record stores a single event.
func (j *Journal) Record(ctx context.Context, e events.Event) error {
	var refs struct {
		AppointmentID string `json:"appointment_id"`
		SlotID        string `json:"slot_id"`
		UserID        string `json:"user_id"`
		Status        string `json:"status"`
	}
	if len(e.Payload) > 0 {
		if err := json.Unmarshal(e.Payload, &refs); err != nil {
			return fmt.Errorf("decode %s payload: %w", e.Type, err)
		}
	}

	_, err := j.ExecContext(ctx, `
		INSERT INTO booking_events (seq, event_type, appointment_id, slot_id, user_id, status, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type, nullable(refs.AppointmentID), nullable(refs.SlotID), nullable(refs.UserID),
		nullable(refs.Status), string(e.Payload), e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Subscribe journals every booking event published on bus.
func (j *Journal) Subscribe(bus *events.EventBus) {
	bus.SubscribeAll(func(e events.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := j.Record(ctx, e); err != nil {
			j.logger.Error().Err(err).Str("event", e.Type).Msg("journal write failed")
			return err
		}
		return nil
	}, events.AllTypes()...)
}

// History returns journaled events for an appointment, oldest first.
func (j *Journal) History(ctx context.Context, appointmentID string) ([]Entry, error) {
	return j.query(ctx, `
		SELECT id, seq, event_type, appointment_id, slot_id, user_id, status, payload, created_at
		FROM booking_events WHERE appointment_id = ? ORDER BY id`, appointmentID)
}

// Recent returns the latest limit events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	return j.query(ctx, `
		SELECT id, seq, event_type, appointment_id, slot_id, user_id, status, payload, created_at
		FROM booking_events ORDER BY id DESC LIMIT ?`, limit)
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := j.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                          Entry
			apptID, slotID, user, stat sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Seq, &e.EventType, &apptID, &slotID, &user, &stat, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.AppointmentID = apptID.String
		e.SlotID = slotID.String
		e.UserID = user.String
		e.Status = stat.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
