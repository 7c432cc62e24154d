package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	session := app.NewSession("s-1", sampleQuiz("quiz-1"), domain.SessionSettings{QuestionCount: 1})
	defer session.Close()

	store.Put(session)
	got, ok := store.Get("s-1")
	assert.True(t, ok)
	assert.Same(t, session, got)
	assert.Equal(t, 1, store.Len())

	store.Delete("s-1")
	_, ok = store.Get("s-1")
	assert.False(t, ok)
}
