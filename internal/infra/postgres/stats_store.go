package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-duel-service/internal/domain"
)

// QuizStatistic is one finished game of one player.
type QuizStatistic struct {
	bun.BaseModel `bun:"table:quiz_statistics"`

	ID             int64     `bun:"id,pk,autoincrement"`
	Username       string    `bun:"username,notnull"`
	QuizID         int       `bun:"quiz_id,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	CorrectAnswers int       `bun:"correct_answers,notnull"`
	CompletedAt    time.Time `bun:"completed_at,notnull"`
}

// StatsStore persists game results through bun.
type StatsStore struct {
	db *bun.DB
}

func NewStatsStore(db *bun.DB) *StatsStore {
	return &StatsStore{db: db}
}

func (s *StatsStore) RecordResult(ctx context.Context, record domain.ResultRecord) error {
	row := &QuizStatistic{
		Username:       record.Username,
		QuizID:         record.QuizID,
		TotalQuestions: record.TotalQuestions,
		CorrectAnswers: record.CorrectAnswers,
		CompletedAt:    record.CompletedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz statistic: %w", err)
	}
	return nil
}

// ResultsFor lists a user's recorded games, newest first.
func (s *StatsStore) ResultsFor(ctx context.Context, username string) ([]domain.ResultRecord, error) {
	var rows []QuizStatistic
	err := s.db.NewSelect().
		Model(&rows).
		Where("username = ?", username).
		Order("completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select quiz statistics: %w", err)
	}
	out := make([]domain.ResultRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ResultRecord{
			Username:       r.Username,
			QuizID:         r.QuizID,
			TotalQuestions: r.TotalQuestions,
			CorrectAnswers: r.CorrectAnswers,
			CompletedAt:    r.CompletedAt,
		})
	}
	return out, nil
}
