package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-play-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(sampleQuiz("quiz-1"))}
	repo := NewQuizRepository(loader, time.Minute)

	_, err := repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, 1, loader.loads)

	_, err = repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, 1, loader.loads, "second read is a cache hit")
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(sampleQuiz("quiz-1"))}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, err := repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.loads, "reload after ttl")
}

func TestQuizRepositoryNotFound(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(), time.Minute)

	_, err := repo.GetQuiz(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestQuizRepositoryListWarmsCache(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(sampleQuiz("b"), sampleQuiz("a"))}
	repo := NewQuizRepository(loader, time.Minute)

	quizzes, err := repo.ListQuizzes(context.Background())
	require.NoError(t, err)
	require.Len(t, quizzes, 2)
	assert.Equal(t, "b", quizzes[0].ID, "bank order")
	assert.Equal(t, "a", quizzes[1].ID)

	_, err = repo.GetQuiz(context.Background(), "a")
	require.NoError(t, err)
	_, err = repo.ListQuizzes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, loader.loads)
	assert.Equal(t, 1, loader.lists)
}

func TestQuizRepositoryResultsDoNotAliasCache(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(sampleQuiz("a")), time.Minute)
	ctx := context.Background()

	listed, err := repo.ListQuizzes(ctx)
	require.NoError(t, err)
	listed[0].ID = "changed"
	listed[0].Questions[0].Title = "changed"
	listed[0].Questions[0].Answers[1].Correct = false

	got, err := repo.GetQuiz(ctx, "a")
	require.NoError(t, err)
	got.Questions[0].Answers[0].Text = "changed"

	again, err := repo.ListQuizzes(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleQuiz("a"), again[0])
	cached, err := repo.GetQuiz(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, sampleQuiz("a"), cached)
}

type countingLoader struct {
	QuizLoader
	loads int
	lists int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.loads++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func (l *countingLoader) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	l.lists++
	return l.QuizLoader.ListQuizzes(ctx)
}

func sampleQuiz(id string) domain.Quiz {
	return domain.Quiz{
		ID:   id,
		Name: "Arithmetic",
		Questions: []domain.Question{
			{
				Title: "What is 2 + 2?",
				Answers: []domain.Answer{
					{Text: "3"},
					{Text: "4", Correct: true},
				},
			},
		},
	}
}
