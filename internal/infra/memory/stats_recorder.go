package memory

import (
	"context"
	"log/slog"
	"sync"

	"quiz-duel-service/internal/domain"
)

// StatsRecorder keeps results in memory and logs them. Used when no database is configured.
type StatsRecorder struct {
	logger *slog.Logger

	mu      sync.Mutex
	records []domain.ResultRecord
}

func NewStatsRecorder(logger *slog.Logger) *StatsRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsRecorder{logger: logger}
}

func (r *StatsRecorder) RecordResult(_ context.Context, record domain.ResultRecord) error {
	r.mu.Lock()
	r.records = append(r.records, record)
	r.mu.Unlock()
	r.logger.Info("game result",
		"user", record.Username,
		"quiz", record.QuizID,
		"correct", record.CorrectAnswers,
		"total", record.TotalQuestions,
	)
	return nil
}

// Records returns a copy of everything recorded so far.
func (r *StatsRecorder) Records() []domain.ResultRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ResultRecord, len(r.records))
	copy(out, r.records)
	return out
}
