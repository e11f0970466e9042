// Package audit provides PostgreSQL-backed storage for enforcement
// outcomes. Each record captures who was acted on, in which chat, what
// matched, and how each remediation step went — the operator-facing trail
// the chat notification deliberately omits.
package audit

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/namegate/namegate/internal/enforce"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store manages enforcement records in PostgreSQL.
type Store struct {
	db *sql.DB
}

// Record is one persisted enforcement outcome.
type Record struct {
	UpdateID         string
	ChatID           int64
	UserID           int64
	Username         string
	MatchedName      string
	Strategy         string
	MessageDeleted   bool
	MemberBanned     bool
	NotificationSent bool
	StepErrors       []StepErrorEntry
	CreatedAt        time.Time
}

// StepErrorEntry is one failed step in the record's JSONB error detail.
type StepErrorEntry struct {
	Step  string `json:"step"`
	Cause string `json:"cause"`
}

// Open connects to Postgres, runs pending migrations, and returns a ready
// store.
func Open(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle without running migrations.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("audit: load migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("audit: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("audit: migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("audit: migrate up: %w", err)
	}
	return nil
}

// RecordEnforcement converts an executor result into a record and inserts
// it. Step errors are flattened to strings so the JSONB column never
// carries unexported error internals.
func (s *Store) RecordEnforcement(ctx context.Context, updateID string, chatID, userID int64, username, strategy string, result enforce.Result) error {
	record := Record{
		UpdateID:         updateID,
		ChatID:           chatID,
		UserID:           userID,
		Username:         username,
		MatchedName:      result.MatchedName,
		Strategy:         strategy,
		MessageDeleted:   result.MessageDeleted,
		MemberBanned:     result.MemberBanned,
		NotificationSent: result.NotificationSent,
	}
	for _, stepErr := range result.Errors {
		record.StepErrors = append(record.StepErrors, StepErrorEntry{
			Step:  string(stepErr.Step),
			Cause: stepErr.Err.Error(),
		})
	}
	return s.Create(ctx, &record)
}

// Create inserts an enforcement record.
func (s *Store) Create(ctx context.Context, record *Record) error {
	var stepErrorsJSON []byte
	if len(record.StepErrors) > 0 {
		var err error
		stepErrorsJSON, err = json.Marshal(record.StepErrors)
		if err != nil {
			return fmt.Errorf("audit: marshal step errors: %w", err)
		}
	}

	const query = `
		INSERT INTO enforcement_log (update_id, chat_id, user_id, username, matched_name, strategy,
		                             message_deleted, member_banned, notification_sent, step_errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		record.UpdateID,
		record.ChatID,
		record.UserID,
		record.Username,
		record.MatchedName,
		record.Strategy,
		record.MessageDeleted,
		record.MemberBanned,
		record.NotificationSent,
		stepErrorsJSON,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// CountFailedBans returns the number of enforcement runs within the window
// whose ban step failed — the signal operators page on, since each one is a
// violating member still present in a chat.
func (s *Store) CountFailedBans(ctx context.Context, window time.Duration) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM enforcement_log
		WHERE member_banned = FALSE
		  AND created_at >= NOW() - $1::interval`

	var count int
	err := s.db.QueryRowContext(ctx, query, window.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("audit: count failed bans: %w", err)
	}
	return count, nil
}

// RecentForChat returns up to limit records for a chat, newest first.
func (s *Store) RecentForChat(ctx context.Context, chatID int64, limit int) ([]Record, error) {
	const query = `
		SELECT update_id, chat_id, user_id, username, matched_name, strategy,
		       message_deleted, member_banned, notification_sent, step_errors, created_at
		FROM enforcement_log
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var stepErrorsJSON []byte
		err := rows.Scan(
			&record.UpdateID,
			&record.ChatID,
			&record.UserID,
			&record.Username,
			&record.MatchedName,
			&record.Strategy,
			&record.MessageDeleted,
			&record.MemberBanned,
			&record.NotificationSent,
			&stepErrorsJSON,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("audit: scan record: %w", err)
		}
		if len(stepErrorsJSON) > 0 {
			if err := json.Unmarshal(stepErrorsJSON, &record.StepErrors); err != nil {
				return nil, fmt.Errorf("audit: decode step errors: %w", err)
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
