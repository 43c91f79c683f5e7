package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-duel-service/internal/domain"
)

// QuizLoader loads a quiz bank (quiz, questions, answers) from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const selectQuizAnswers = `
SELECT q.id, q.text, a.id, a.text, a.is_correct
FROM questions q
JOIN answers a ON a.question_id = q.id
WHERE q.quiz_id = $1
ORDER BY q.id, a.id`

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID int) (domain.Quiz, error) {
	quiz := domain.Quiz{ID: quizID}
	err := l.pool.QueryRow(ctx, `SELECT title FROM quizzes WHERE id=$1`, quizID).Scan(&quiz.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, fmt.Errorf("quiz %d: %w", quizID, domain.ErrQuizNotFound)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx, selectQuizAnswers, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			questionID   int
			questionText string
			answer       domain.Answer
		)
		if err := rows.Scan(&questionID, &questionText, &answer.ID, &answer.Text, &answer.Correct); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		n := len(quiz.Questions)
		if n == 0 || quiz.Questions[n-1].ID != questionID {
			quiz.Questions = append(quiz.Questions, domain.Question{ID: questionID, Text: questionText})
			n++
		}
		quiz.Questions[n-1].Answers = append(quiz.Questions[n-1].Answers, answer)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}

// SeedQuiz inserts a quiz bank in one transaction and returns the stored copy with
// database-assigned ids.
func SeedQuiz(ctx context.Context, pool *pgxpool.Pool, quiz domain.Quiz) (domain.Quiz, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stored := domain.Quiz{Title: quiz.Title}
	if err := tx.QueryRow(ctx, `INSERT INTO quizzes (title) VALUES ($1) RETURNING id`, quiz.Title).Scan(&stored.ID); err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	for _, q := range quiz.Questions {
		sq := domain.Question{Text: q.Text}
		if err := tx.QueryRow(ctx, `INSERT INTO questions (quiz_id, text) VALUES ($1, $2) RETURNING id`, stored.ID, q.Text).Scan(&sq.ID); err != nil {
			return domain.Quiz{}, fmt.Errorf("insert question: %w", err)
		}
		for _, a := range q.Answers {
			sa := domain.Answer{Text: a.Text, Correct: a.Correct}
			if err := tx.QueryRow(ctx, `INSERT INTO answers (question_id, text, is_correct) VALUES ($1, $2, $3) RETURNING id`, sq.ID, a.Text, a.Correct).Scan(&sa.ID); err != nil {
				return domain.Quiz{}, fmt.Errorf("insert answer: %w", err)
			}
			sq.Answers = append(sq.Answers, sa)
		}
		stored.Questions = append(stored.Questions, sq)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Quiz{}, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}
