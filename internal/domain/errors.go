package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game session is not registered.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotEnoughQuestions is returned when a quiz has fewer valid questions than requested.
	ErrNotEnoughQuestions = errors.New("not enough valid questions")
	// ErrInvalidQuestionRequest rejects non-positive question or answer counts.
	ErrInvalidQuestionRequest = errors.New("question and answer counts must be positive")
	// ErrUnknownGameMode is returned for unrecognized game mode names.
	ErrUnknownGameMode = errors.New("unknown game mode")
)
