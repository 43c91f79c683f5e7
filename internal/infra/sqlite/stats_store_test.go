package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-duel-service/internal/domain"
)

func TestStatsStoreRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "nested", "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	first := time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordResult(ctx, domain.ResultRecord{
		Username: "Alice", QuizID: 1, TotalQuestions: 10, CorrectAnswers: 7, CompletedAt: first,
	}))
	require.NoError(t, store.RecordResult(ctx, domain.ResultRecord{
		Username: "Alice", QuizID: 2, TotalQuestions: 5, CorrectAnswers: 5, CompletedAt: first.Add(time.Hour),
	}))
	require.NoError(t, store.RecordResult(ctx, domain.ResultRecord{
		Username: "Bob", QuizID: 1, TotalQuestions: 10, CorrectAnswers: 3, CompletedAt: first,
	}))

	records, err := store.ResultsFor(ctx, "Alice")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].QuizID)
	assert.Equal(t, first, records[1].CompletedAt)
	assert.Equal(t, 7, records[1].CorrectAnswers)
}

func TestStatsStoreInMemory(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordResult(context.Background(), domain.ResultRecord{Username: "Carol", QuizID: 3}))
	records, err := store.ResultsFor(context.Background(), "Carol")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
