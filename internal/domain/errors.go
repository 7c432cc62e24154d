package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a play session id is unknown or has ended.
	ErrSessionNotFound = errors.New("play session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizUnplayable indicates the quiz has no questions.
	ErrQuizUnplayable = errors.New("quiz has no questions")
	// ErrAnswerOutOfRange indicates a submitted answer index is not one of the shown options.
	ErrAnswerOutOfRange = errors.New("answer index out of range")
	// ErrQuestionOutOfRange indicates a review request for a question the session does not have.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrSessionNotCompleted is returned when a result is requested before the last question.
	ErrSessionNotCompleted = errors.New("play session not completed")
	// ErrPlayerNameRequired is returned when a result without a player name is submitted.
	ErrPlayerNameRequired = errors.New("player name required for leaderboard")
	// ErrInvalidConfig indicates a session config failed validation.
	ErrInvalidConfig = errors.New("invalid session config")
)
