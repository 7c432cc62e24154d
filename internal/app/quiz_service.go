package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"quiz-play-service/internal/domain"
)

// SessionRepository abstracts where live play sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// ServiceOption customizes a QuizService.
type ServiceOption func(*QuizService)

// WithGameSettings sets the settings bounds applied to new sessions.
func WithGameSettings(g GameSettings) ServiceOption {
	return func(s *QuizService) { s.settings = g }
}

// WithSessionOptions passes options to every session the service starts.
func WithSessionOptions(opts ...SessionOption) ServiceOption {
	return func(s *QuizService) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// QuizService contains the play use cases.
type QuizService struct {
	sessions    SessionRepository
	quizzes     QuizRepository
	leaderboard *LeaderboardStore
	settings    GameSettings
	sessionOpts []SessionOption
	validate    *validator.Validate
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, leaderboard *LeaderboardStore, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions:    store,
		quizzes:     quizzes,
		leaderboard: leaderboard,
		settings:    DefaultGameSettings(),
		validate:    validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListQuizzes returns the catalog.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.QuizInfo, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]domain.QuizInfo, 0, len(quizzes))
	for _, q := range quizzes {
		infos = append(infos, q.Info())
	}
	return infos, nil
}

// GetQuiz returns the catalog entry of one quiz.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.QuizInfo, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizInfo{}, err
	}
	return quiz.Info(), nil
}

// StartSession begins a play-through. Unknown or empty quizzes never produce a session.
func (s *QuizService) StartSession(ctx context.Context, cfg domain.SessionConfig) (*Session, error) {
	if err := s.validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidConfig, describeValidation(err))
	}
	cfg.PlayerName = strings.TrimSpace(cfg.PlayerName)

	quiz, err := s.quizzes.GetQuiz(ctx, cfg.QuizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrQuizUnplayable
	}

	settings := s.settings.ResolveSettings(quiz, cfg)
	session := NewSession(uuid.NewString(), quiz, settings, s.sessionOpts...)
	s.sessions.Put(session)

	log.WithFields(log.Fields{
		"session":   session.ID(),
		"quiz":      quiz.ID,
		"questions": settings.QuestionCount,
		"timer":     quiz.UseTimer,
	}).Info("play session started")
	return session, nil
}

// SubmitAnswer records an answer for the current question of a session.
func (s *QuizService) SubmitAnswer(_ context.Context, sessionID string, answerIndex int) (domain.SessionView, bool, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, false, domain.ErrSessionNotFound
	}
	_, recorded, err := session.SubmitAnswer(answerIndex)
	if err != nil {
		return domain.SessionView{}, false, err
	}
	return session.Snapshot(), recorded, nil
}

// Restart starts a fresh play-through with the same settings.
func (s *QuizService) Restart(_ context.Context, sessionID string) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	return session.Restart(), nil
}

// Snapshot returns the current view of a session.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Subscribe returns a channel that receives session views.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionView, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Review returns the correct answer of one question of the session.
func (s *QuizService) Review(_ context.Context, sessionID string, questionIndex int) (domain.ReviewItem, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ReviewItem{}, domain.ErrSessionNotFound
	}
	return session.Review(questionIndex)
}

// RecordResult hands a completed play-through to the quiz leaderboard. The summary is
// submitted at most once; later calls report the current board as a duplicate.
func (s *QuizService) RecordResult(ctx context.Context, sessionID string) (domain.SubmitOutcome, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SubmitOutcome{}, domain.ErrSessionNotFound
	}
	name := session.Settings().PlayerName
	if name == "" {
		return domain.SubmitOutcome{}, domain.ErrPlayerNameRequired
	}
	quizID := session.Quiz().ID

	summary, claimed := session.ClaimSummary()
	if !claimed {
		done, ok := session.Summary()
		if !ok {
			return domain.SubmitOutcome{}, domain.ErrSessionNotCompleted
		}
		entries, err := s.leaderboard.Ranked(ctx, quizID)
		if err != nil {
			return domain.SubmitOutcome{}, err
		}
		return domain.SubmitOutcome{
			QuizID:    quizID,
			Entries:   entries,
			Duplicate: true,
			Position:  positionOf(entries, submission(name, done)),
		}, nil
	}

	outcome, err := s.leaderboard.Submit(ctx, quizID, submission(name, summary))
	if err != nil {
		session.releaseClaim()
		return domain.SubmitOutcome{}, err
	}
	return outcome, nil
}

// Leaderboard returns the ranked leaderboard of a quiz.
func (s *QuizService) Leaderboard(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.leaderboard.Ranked(ctx, quizID)
}

// EndSession tears a session down and forgets it.
func (s *QuizService) EndSession(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
}

func submission(name string, summary domain.SessionSummary) domain.ResultSubmission {
	return domain.ResultSubmission{
		Name:           name,
		CorrectCount:   summary.CorrectCount,
		TotalQuestions: summary.TotalQuestions,
		TimeSeconds:    summary.TotalTimeSeconds,
	}
}

func positionOf(entries []domain.LeaderboardEntry, sub domain.ResultSubmission) int {
	return indexOf(entries, domain.LeaderboardEntry{
		Name:   sub.Name,
		Speed:  Speed(sub.CorrectCount, sub.TimeSeconds),
		Result: fmt.Sprintf("%d/%d", sub.CorrectCount, sub.TotalQuestions),
		Time:   sub.TimeSeconds,
	})
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, ", ")
}
