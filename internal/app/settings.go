package app

import "quiz-play-service/internal/domain"

// GameSettings are the bounds the settings form enforces before a session starts.
type GameSettings struct {
	DefaultQuestions int
	MinQuestions     int
	DefaultTime      int
	MinTime          int
	MaxTime          int
}

// DefaultGameSettings mirrors the stock settings form.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		DefaultQuestions: 15,
		MinQuestions:     10,
		DefaultTime:      20,
		MinTime:          5,
		MaxTime:          300,
	}
}

// ResolveSettings turns a player's request into the values a session runs with.
// Zero values mean "use the default". The bank size always wins over the minimum.
func (g GameSettings) ResolveSettings(quiz domain.Quiz, cfg domain.SessionConfig) domain.SessionSettings {
	bank := len(quiz.Questions)

	count := cfg.QuestionCount
	if count == 0 {
		count = g.DefaultQuestions
	}
	if count < g.MinQuestions {
		count = g.MinQuestions
	}
	if count > bank {
		count = bank
	}

	seconds := cfg.TimePerQuestion
	if seconds == 0 {
		seconds = quiz.TimePerQuestion
	}
	if seconds == 0 {
		seconds = g.DefaultTime
	}
	if seconds < g.MinTime {
		seconds = g.MinTime
	}
	if g.MaxTime > 0 && seconds > g.MaxTime {
		seconds = g.MaxTime
	}

	return domain.SessionSettings{
		QuestionCount:   count,
		TimePerQuestion: seconds,
		PlayerName:      cfg.PlayerName,
	}
}
