package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/infra/memory"
)

type testEnv struct {
	service  *app.QuizService
	sessions *memory.SessionStore
	clock    *clockwork.FakeClock
}

func newTestEnv(t *testing.T, kv app.KVStore) testEnv {
	t.Helper()
	fake := clockwork.NewFakeClockAt(fixedNow())
	sessions := memory.NewSessionStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(
		singleAnswerQuiz("quiz-1", 12),
		singleAnswerQuiz("empty", 0),
	), time.Minute)
	service := app.NewQuizService(sessions, quizRepo, newStore(kv),
		app.WithSessionOptions(app.WithClock(fake)))
	return testEnv{service: service, sessions: sessions, clock: fake}
}

// singleAnswerQuiz builds questions whose only option is correct, so index 0 always scores.
func singleAnswerQuiz(id string, questions int) domain.Quiz {
	quiz := domain.Quiz{ID: id, Name: "Quiz " + id}
	for i := 0; i < questions; i++ {
		quiz.Questions = append(quiz.Questions, domain.Question{
			Title:   fmt.Sprintf("Q%d", i),
			Answers: []domain.Answer{{Text: "right", Correct: true}},
		})
	}
	return quiz
}

// playThrough answers every question after spending secondsEach on it.
func (e testEnv) playThrough(t *testing.T, sessionID string, secondsEach int) {
	t.Helper()
	ctx := context.Background()
	for {
		view, err := e.service.Snapshot(ctx, sessionID)
		require.NoError(t, err)
		if view.State == domain.StateCompleted {
			return
		}
		require.Equal(t, domain.StateInQuestion, view.State)
		e.clock.Advance(time.Duration(secondsEach) * time.Second)
		_, recorded, err := e.service.SubmitAnswer(ctx, sessionID, 0)
		require.NoError(t, err)
		require.True(t, recorded)
		e.clock.Advance(app.DefaultAdvanceDelay)
		require.Eventually(t, func() bool {
			view, err := e.service.Snapshot(ctx, sessionID)
			return err == nil && view.State != domain.StateAnswered
		}, time.Second, time.Millisecond)
	}
}

func TestStartSessionResolvesSettings(t *testing.T) {
	env := newTestEnv(t, memory.NewKVStore())
	ctx := context.Background()

	session, err := env.service.StartSession(ctx, domain.SessionConfig{QuizID: "quiz-1", PlayerName: "  Alice "})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	assert.Equal(t, 12, session.Settings().QuestionCount)
	assert.Equal(t, "Alice", session.Settings().PlayerName)
	assert.NotEmpty(t, session.ID())

	view, err := env.service.Snapshot(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateInQuestion, view.State)
	assert.Equal(t, 12, view.TotalQuestions)
}

func TestStartSessionRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, memory.NewKVStore())
	ctx := context.Background()

	_, err := env.service.StartSession(ctx, domain.SessionConfig{QuizID: "missing"})
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)

	_, err = env.service.StartSession(ctx, domain.SessionConfig{QuizID: "empty"})
	assert.ErrorIs(t, err, domain.ErrQuizUnplayable)

	_, err = env.service.StartSession(ctx, domain.SessionConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = env.service.StartSession(ctx, domain.SessionConfig{QuizID: "quiz-1", QuestionCount: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	assert.Equal(t, 0, env.sessions.Len(), "failed starts never register a session")
}

func TestRecordResultOnce(t *testing.T) {
	env := newTestEnv(t, memory.NewKVStore())
	ctx := context.Background()

	session, err := env.service.StartSession(ctx, domain.SessionConfig{QuizID: "quiz-1", PlayerName: "Alice"})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	_, err = env.service.RecordResult(ctx, session.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotCompleted)

	env.playThrough(t, session.ID(), 5)

	first, err := env.service.RecordResult(ctx, session.ID())
	require.NoError(t, err)
	assert.True(t, first.Admitted)
	assert.Equal(t, 0, first.Position)
	require.Len(t, first.Entries, 1)
	assert.Equal(t, "12/12", first.Entries[0].Result)
	assert.Equal(t, 60, first.Entries[0].Time)
	assert.Equal(t, 5.0, first.Entries[0].Speed)

	second, err := env.service.RecordResult(ctx, session.ID())
	require.NoError(t, err)
	assert.False(t, second.Admitted)
	assert.True(t, second.Duplicate)
	assert.Equal(t, 0, second.Position)

	board, err := env.service.Leaderboard(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Len(t, board, 1)
}

func TestRecordResultRequiresName(t *testing.T) {
	env := newTestEnv(t, memory.NewKVStore())
	ctx := context.Background()

	session, err := env.service.StartSession(ctx, domain.SessionConfig{QuizID: "quiz-1"})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	env.playThrough(t, session.ID(), 1)

	_, err = env.service.RecordResult(ctx, session.ID())
	assert.ErrorIs(t, err, domain.ErrPlayerNameRequired)
}

func TestRecordResultRetriesAfterStorageFailure(t *testing.T) {
	kv := &flakyKV{KVStore: memory.NewKVStore(), failSets: 1}
	env := newTestEnv(t, kv)
	ctx := context.Background()

	session, err := env.service.StartSession(ctx, domain.SessionConfig{QuizID: "quiz-1", PlayerName: "Alice"})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	env.playThrough(t, session.ID(), 2)

	_, err = env.service.RecordResult(ctx, session.ID())
	require.ErrorIs(t, err, errStorageDown)

	outcome, err := env.service.RecordResult(ctx, session.ID())
	require.NoError(t, err)
	assert.True(t, outcome.Admitted)
}

func TestRestartAllowsAnotherResult(t *testing.T) {
	env := newTestEnv(t, memory.NewKVStore())
	ctx := context.Background()

	session, err := env.service.StartSession(ctx, domain.SessionConfig{QuizID: "quiz-1", PlayerName: "Alice"})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	env.playThrough(t, session.ID(), 3)
	_, err = env.service.RecordResult(ctx, session.ID())
	require.NoError(t, err)

	view, err := env.service.Restart(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateInQuestion, view.State)
	assert.Empty(t, view.Answers)

	env.playThrough(t, session.ID(), 1)
	outcome, err := env.service.RecordResult(ctx, session.ID())
	require.NoError(t, err)
	assert.True(t, outcome.Admitted)
	require.Len(t, outcome.Entries, 2)
	assert.Equal(t, 1.0, outcome.Entries[0].Speed, "faster run ranks first")
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	env := newTestEnv(t, memory.NewKVStore())
	ctx := context.Background()

	session, err := env.service.StartSession(ctx, domain.SessionConfig{QuizID: "quiz-1"})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	ch, cancel, err := env.service.Subscribe(ctx, session.ID())
	require.NoError(t, err)
	defer cancel()

	initial := <-ch
	assert.Equal(t, domain.StateInQuestion, initial.State)

	_, _, err = env.service.SubmitAnswer(ctx, session.ID(), 0)
	require.NoError(t, err)

	update := <-ch
	assert.Equal(t, domain.StateAnswered, update.State)
	assert.Equal(t, "correct", update.Feedback)
}

func TestReviewAndEndSession(t *testing.T) {
	env := newTestEnv(t, memory.NewKVStore())
	ctx := context.Background()

	session, err := env.service.StartSession(ctx, domain.SessionConfig{QuizID: "quiz-1"})
	require.NoError(t, err)

	_, err = env.service.Review(ctx, session.ID(), 3)
	assert.ErrorIs(t, err, domain.ErrSessionNotCompleted)

	env.playThrough(t, session.ID(), 1)
	item, err := env.service.Review(ctx, session.ID(), 3)
	require.NoError(t, err)
	assert.Equal(t, "right", item.CorrectAnswer)

	_, err = env.service.Review(ctx, session.ID(), 12)
	assert.ErrorIs(t, err, domain.ErrQuestionOutOfRange)

	env.service.EndSession(ctx, session.ID())
	_, err = env.service.Snapshot(ctx, session.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, _, err = env.service.SubmitAnswer(ctx, session.ID(), 0)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestListAndGetQuizzes(t *testing.T) {
	env := newTestEnv(t, memory.NewKVStore())
	ctx := context.Background()

	infos, err := env.service.ListQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "quiz-1", infos[0].ID)
	assert.Equal(t, 12, infos[0].QuestionCount)

	info, err := env.service.GetQuiz(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, info.QuestionCount)

	_, err = env.service.Leaderboard(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

// flakyKV fails the first failSets writes.
type flakyKV struct {
	app.KVStore
	failSets int
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSets > 0 {
		f.failSets--
		return errStorageDown
	}
	return f.KVStore.Set(ctx, key, value)
}
