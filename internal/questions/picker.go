// Package questions builds the question set for a game from a quiz bank: it samples
// distinct questions and mixes correct and incorrect answers per question.
package questions

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quiz-duel-service/internal/domain"
)

// QuizSource returns the full question bank of a quiz.
type QuizSource interface {
	GetQuiz(ctx context.Context, quizID int) (domain.Quiz, error)
}

// Picker implements app.QuestionProvider over a QuizSource.
type Picker struct {
	quizzes QuizSource

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPicker returns a picker drawing from rnd; a nil rnd is seeded from the clock.
func NewPicker(quizzes QuizSource, rnd *rand.Rand) *Picker {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Picker{quizzes: quizzes, rnd: rnd}
}

// FetchQuestions returns count distinct questions in random order, each showing
// answersPerQuestion shuffled answers. It fails rather than return a partial set.
func (p *Picker) FetchQuestions(ctx context.Context, quizID int, mode domain.GameMode, count, answersPerQuestion int) ([]domain.Question, error) {
	if count <= 0 || answersPerQuestion <= 0 {
		return nil, domain.ErrInvalidQuestionRequest
	}
	quiz, err := p.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz %d: %w", quizID, err)
	}

	valid := make([]domain.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if eligible(q, mode, answersPerQuestion) {
			valid = append(valid, q)
		}
	}
	if len(valid) < count {
		return nil, fmt.Errorf("%w: quiz %d needs %d, has %d", domain.ErrNotEnoughQuestions, quizID, count, len(valid))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	order := p.rnd.Perm(len(valid))
	picked := make([]domain.Question, 0, count)
	for _, idx := range order[:count] {
		q := valid[idx]
		var answers []domain.Answer
		if mode == domain.ModeMultipleChoice {
			answers = p.mixMulti(q, answersPerQuestion)
		} else {
			answers = p.mixSingle(q, answersPerQuestion)
		}
		picked = append(picked, domain.Question{ID: q.ID, Text: q.Text, Answers: answers})
	}
	return picked, nil
}

func split(q domain.Question) (correct, incorrect []domain.Answer) {
	for _, a := range q.Answers {
		if a.Correct {
			correct = append(correct, a)
		} else {
			incorrect = append(incorrect, a)
		}
	}
	return correct, incorrect
}

// eligible reports whether q can produce k answers in the given mode.
func eligible(q domain.Question, mode domain.GameMode, k int) bool {
	correct, incorrect := split(q)
	if len(correct) == 0 {
		return false
	}
	if mode == domain.ModeMultipleChoice {
		return len(correct)+len(incorrect) >= k
	}
	return len(incorrect) >= k-1
}

// mixSingle shows exactly one correct answer among k.
func (p *Picker) mixSingle(q domain.Question, k int) []domain.Answer {
	correct, incorrect := split(q)
	answers := make([]domain.Answer, 0, k)
	answers = append(answers, correct[p.rnd.Intn(len(correct))])
	answers = append(answers, p.sample(incorrect, k-1)...)
	p.shuffle(answers)
	return answers
}

// mixMulti shows between max(1, k-incorrect) and min(k, correct) correct answers among k.
func (p *Picker) mixMulti(q domain.Question, k int) []domain.Answer {
	correct, incorrect := split(q)
	maxCorrect := min(k, len(correct))
	minCorrect := min(max(1, k-len(incorrect)), maxCorrect)
	take := minCorrect + p.rnd.Intn(maxCorrect-minCorrect+1)

	answers := make([]domain.Answer, 0, k)
	answers = append(answers, p.sample(correct, take)...)
	answers = append(answers, p.sample(incorrect, k-take)...)
	p.shuffle(answers)
	return answers
}

func (p *Picker) sample(from []domain.Answer, n int) []domain.Answer {
	if n <= 0 {
		return nil
	}
	out := make([]domain.Answer, 0, n)
	for _, idx := range p.rnd.Perm(len(from))[:n] {
		out = append(out, from[idx])
	}
	return out
}

func (p *Picker) shuffle(answers []domain.Answer) {
	p.rnd.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
}
