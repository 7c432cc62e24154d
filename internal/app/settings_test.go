package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quiz-play-service/internal/domain"
)

func TestResolveSettings(t *testing.T) {
	g := DefaultGameSettings()
	big := bankQuiz("big", 40, 4)
	big.TimePerQuestion = 30
	small := bankQuiz("small", 12, 4)
	tiny := bankQuiz("tiny", 4, 4)

	tests := []struct {
		name        string
		quiz        domain.Quiz
		cfg         domain.SessionConfig
		wantCount   int
		wantSeconds int
	}{
		{"defaults", big, domain.SessionConfig{}, 15, 30},
		{"defaults small bank", small, domain.SessionConfig{}, 12, 20},
		{"below minimum", big, domain.SessionConfig{QuestionCount: 3}, 10, 30},
		{"above bank", small, domain.SessionConfig{QuestionCount: 15}, 12, 20},
		{"bank below minimum", tiny, domain.SessionConfig{QuestionCount: 10}, 4, 20},
		{"time too short", big, domain.SessionConfig{TimePerQuestion: 2}, 15, 5},
		{"time too long", big, domain.SessionConfig{TimePerQuestion: 900}, 15, 300},
		{"explicit", big, domain.SessionConfig{QuestionCount: 25, TimePerQuestion: 45}, 25, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.ResolveSettings(tt.quiz, tt.cfg)
			assert.Equal(t, tt.wantCount, got.QuestionCount)
			assert.Equal(t, tt.wantSeconds, got.TimePerQuestion)
		})
	}
}
