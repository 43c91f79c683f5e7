package questions

import "quiz-duel-service/internal/domain"

// SampleQuizID identifies the built-in demo quiz.
const SampleQuizID = 1

// SampleBank is the built-in demo quiz used when no database is configured.
func SampleBank() map[int]domain.Quiz {
	type row struct {
		text      string
		correct   []string
		incorrect []string
	}
	rows := []row{
		{"What is 2 + 2?", []string{"4"}, []string{"3", "5", "22", "6"}},
		{"Which of these are primary colors of light?", []string{"Red", "Green", "Blue"}, []string{"Yellow", "Purple", "Orange"}},
		{"What is the capital of France?", []string{"Paris"}, []string{"Lyon", "Marseille", "Nice"}},
		{"Which planets are gas giants?", []string{"Jupiter", "Saturn"}, []string{"Mars", "Venus", "Mercury"}},
		{"How many continents are there?", []string{"7"}, []string{"5", "6", "8"}},
		{"Which of these are mammals?", []string{"Whale", "Bat"}, []string{"Shark", "Penguin", "Frog"}},
		{"What is the chemical symbol for gold?", []string{"Au"}, []string{"Ag", "Go", "Gd"}},
		{"Which numbers are prime?", []string{"2", "3", "5"}, []string{"4", "9", "1"}},
		{"Who wrote 'Hamlet'?", []string{"William Shakespeare"}, []string{"Charles Dickens", "Jane Austen", "Mark Twain"}},
		{"Which of these are programming languages?", []string{"Go", "Rust"}, []string{"HTML", "JSON", "YAML"}},
		{"What is the boiling point of water at sea level in Celsius?", []string{"100"}, []string{"90", "80", "120"}},
		{"Which oceans border the United States?", []string{"Atlantic", "Pacific", "Arctic"}, []string{"Indian", "Southern"}},
		{"What is the largest planet in the solar system?", []string{"Jupiter"}, []string{"Saturn", "Neptune", "Earth"}},
		{"Which of these are even numbers?", []string{"8", "12"}, []string{"7", "13", "21"}},
		{"In which year did the Berlin Wall fall?", []string{"1989"}, []string{"1991", "1987", "1979"}},
	}

	quiz := domain.Quiz{ID: SampleQuizID, Title: "General knowledge"}
	answerID := 1
	for i, r := range rows {
		q := domain.Question{ID: i + 1, Text: r.text}
		for _, text := range r.correct {
			q.Answers = append(q.Answers, domain.Answer{ID: answerID, Text: text, Correct: true})
			answerID++
		}
		for _, text := range r.incorrect {
			q.Answers = append(q.Answers, domain.Answer{ID: answerID, Text: text})
			answerID++
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return map[int]domain.Quiz{SampleQuizID: quiz}
}
