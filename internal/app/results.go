package app

import (
	"slices"
	"time"

	"quiz-duel-service/internal/domain"
)

// buildResults assembles the completion aggregate. The caller holds the session lock.
func buildResults(sessionID string, quizID int, questions []domain.Question, players []*Player, now time.Time) domain.Results {
	correctByQuestion := make(map[int][]domain.Answer, len(questions))
	questionResults := make([]domain.QuestionResult, 0, len(questions))
	for _, q := range questions {
		correct := q.CorrectAnswers()
		correctByQuestion[q.ID] = correct
		views := make([]domain.AnswerView, 0, len(correct))
		for _, a := range correct {
			views = append(views, domain.AnswerView{ID: a.ID, Text: a.Text})
		}
		questionResults = append(questionResults, domain.QuestionResult{
			QuestionID:     q.ID,
			QuestionText:   q.Text,
			CorrectAnswers: views,
		})
	}

	playerResults := make([]domain.PlayerResult, 0, len(players))
	for _, p := range players {
		p.mu.Lock()
		answered := make([]domain.AnsweredQuestion, 0, len(p.answers))
		for _, a := range p.answers {
			entry := domain.AnsweredQuestion{
				PlayerAnswer:       a,
				CorrectAnswerIDs:   []int{},
				CorrectAnswerTexts: []string{},
			}
			entry.AnswerIDs = slices.Clone(a.AnswerIDs)
			entry.AnswerTexts = slices.Clone(a.AnswerTexts)
			for _, c := range correctByQuestion[a.QuestionID] {
				entry.CorrectAnswerIDs = append(entry.CorrectAnswerIDs, c.ID)
				entry.CorrectAnswerTexts = append(entry.CorrectAnswerTexts, c.Text)
			}
			answered = append(answered, entry)
		}
		playerResults = append(playerResults, domain.PlayerResult{
			PlayerID: p.playerID,
			Name:     p.name,
			Score:    p.score,
			Answers:  answered,
		})
		p.mu.Unlock()
	}

	return domain.Results{
		SessionID:   sessionID,
		QuizID:      quizID,
		Players:     playerResults,
		Questions:   questionResults,
		CompletedAt: now,
	}
}
