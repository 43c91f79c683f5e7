// Package sqlite stores game statistics in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"quiz-duel-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS quiz_statistics (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    username        TEXT NOT NULL,
    quiz_id         INTEGER NOT NULL,
    total_questions INTEGER NOT NULL,
    correct_answers INTEGER NOT NULL,
    completed_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS quiz_statistics_username_idx ON quiz_statistics (username);`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// StatsStore records per-player results in SQLite.
type StatsStore struct {
	sqlDB *sql.DB
}

// Open opens (and creates if needed) a store at path. ":memory:" is accepted for tests.
func Open(path string) (*StatsStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		cleanPath := filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		dsn = cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &StatsStore{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *StatsStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *StatsStore) RecordResult(ctx context.Context, record domain.ResultRecord) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO quiz_statistics (username, quiz_id, total_questions, correct_answers, completed_at) VALUES (?, ?, ?, ?, ?)`,
		record.Username, record.QuizID, record.TotalQuestions, record.CorrectAnswers, toMillis(record.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert quiz statistic: %w", err)
	}
	return nil
}

// ResultsFor lists a user's recorded games, newest first.
func (s *StatsStore) ResultsFor(ctx context.Context, username string) ([]domain.ResultRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT username, quiz_id, total_questions, correct_answers, completed_at
		 FROM quiz_statistics WHERE username = ? ORDER BY completed_at DESC, id DESC`, username)
	if err != nil {
		return nil, fmt.Errorf("select quiz statistics: %w", err)
	}
	defer rows.Close()

	var out []domain.ResultRecord
	for rows.Next() {
		var (
			rec         domain.ResultRecord
			completedAt int64
		)
		if err := rows.Scan(&rec.Username, &rec.QuizID, &rec.TotalQuestions, &rec.CorrectAnswers, &completedAt); err != nil {
			return nil, fmt.Errorf("scan quiz statistic: %w", err)
		}
		rec.CompletedAt = fromMillis(completedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}
