package app

import (
	"quiz-duel-service/internal/domain"
)

// gradeSingle grades a single-choice submission. A nil answer grades as incorrect with
// an empty record; an answer id that does not belong to the question is rejected.
func gradeSingle(q domain.Question, answerID *int) (domain.PlayerAnswer, bool) {
	record := domain.PlayerAnswer{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		AnswerIDs:    []int{},
		AnswerTexts:  []string{},
	}
	if answerID == nil {
		return record, true
	}
	for _, a := range q.Answers {
		if a.ID == *answerID {
			record.AnswerIDs = []int{a.ID}
			record.AnswerTexts = []string{a.Text}
			record.Correct = a.Correct
			return record, true
		}
	}
	return domain.PlayerAnswer{}, false
}

// gradeMulti grades a multi-choice submission: correct iff the submitted id set equals
// the set of correct answer ids. Repeated ids count once.
func gradeMulti(q domain.Question, answerIDs []int) domain.PlayerAnswer {
	submitted := make(map[int]struct{}, len(answerIDs))
	ids := make([]int, 0, len(answerIDs))
	for _, id := range answerIDs {
		if _, dup := submitted[id]; dup {
			continue
		}
		submitted[id] = struct{}{}
		ids = append(ids, id)
	}

	texts := make([]string, 0, len(ids))
	correctCount := 0
	matched := 0
	for _, a := range q.Answers {
		_, picked := submitted[a.ID]
		if picked {
			texts = append(texts, a.Text)
		}
		if a.Correct {
			correctCount++
			if picked {
				matched++
			}
		}
	}

	return domain.PlayerAnswer{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		AnswerIDs:    ids,
		AnswerTexts:  texts,
		Correct:      len(ids) > 0 && correctCount == len(ids) && matched == correctCount,
	}
}

// grader produces the log entry for the player's current question; ok=false rejects the submission.
type grader func(q domain.Question) (domain.PlayerAnswer, bool)

// submission is the result of applying one answer to a player.
type submission struct {
	record    domain.PlayerAnswer
	score     int
	finished  bool
	nextIndex int
}

// submit grades and records one answer. The question id check, score bump, log append
// and index advance happen under the player lock so duplicate concurrent submissions
// for the same question cannot double-score.
func (p *Player) submit(questions []domain.Question, questionID int, grade grader) (submission, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.index >= len(questions) || questions[p.index].ID != questionID {
		return submission{}, false
	}
	record, ok := grade(questions[p.index])
	if !ok {
		return submission{}, false
	}

	if record.Correct {
		p.score++
	}
	p.answers = append(p.answers, record)
	p.index++
	if p.index == len(questions) {
		p.completed = true
	}
	return submission{
		record:    record,
		score:     p.score,
		finished:  p.completed,
		nextIndex: p.index,
	}, true
}
