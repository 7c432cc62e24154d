package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"quiz-play-service/internal/domain"
)

// DefaultLeaderboardCapacity is how many entries a quiz leaderboard keeps.
const DefaultLeaderboardCapacity = 20

// speedTolerance is how close two speeds must be for results to count as the same.
const speedTolerance = 0.01

// isoMillis matches the ISO-8601 timestamps already stored in leaderboards.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// KVStore persists leaderboard documents (leaderboard storage: file, Redis, Postgres, memory).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// LeaderboardOption customizes a LeaderboardStore.
type LeaderboardOption func(*LeaderboardStore)

// WithCapacity overrides the number of retained entries.
func WithCapacity(n int) LeaderboardOption {
	return func(s *LeaderboardStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithLeaderboardClock sets the timestamp source for new entries.
func WithLeaderboardClock(c clockwork.Clock) LeaderboardOption {
	return func(s *LeaderboardStore) { s.clock = c }
}

// LeaderboardStore ranks finished sessions per quiz, fastest per correct answer first.
type LeaderboardStore struct {
	kv       KVStore
	capacity int
	clock    clockwork.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLeaderboardStore(kv KVStore, opts ...LeaderboardOption) *LeaderboardStore {
	s := &LeaderboardStore{
		kv:       kv,
		capacity: DefaultLeaderboardCapacity,
		clock:    clockwork.NewRealClock(),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LeaderboardKey is the storage key of a quiz leaderboard.
func LeaderboardKey(quizID string) string {
	return "leaderboard_" + quizID
}

// Speed is seconds per correct answer; +Inf without correct answers.
func Speed(correctCount, timeSeconds int) float64 {
	if correctCount == 0 {
		return math.Inf(1)
	}
	return float64(timeSeconds) / float64(correctCount)
}

// Ranked returns the stored leaderboard of a quiz.
func (s *LeaderboardStore) Ranked(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error) {
	return s.load(ctx, quizID)
}

// Submit offers a finished session to the quiz leaderboard.
func (s *LeaderboardStore) Submit(ctx context.Context, quizID string, result domain.ResultSubmission) (domain.SubmitOutcome, error) {
	lock := s.quizLock(quizID)
	lock.Lock()
	defer lock.Unlock()

	entries, err := s.load(ctx, quizID)
	if err != nil {
		return domain.SubmitOutcome{}, err
	}

	entry := domain.LeaderboardEntry{
		Name:           result.Name,
		Speed:          Speed(result.CorrectCount, result.TimeSeconds),
		Result:         fmt.Sprintf("%d/%d", result.CorrectCount, result.TotalQuestions),
		CorrectCount:   result.CorrectCount,
		TotalQuestions: result.TotalQuestions,
		Time:           result.TimeSeconds,
		Date:           s.clock.Now().UTC().Format(isoMillis),
	}
	outcome := domain.SubmitOutcome{QuizID: quizID, Entries: entries, Position: -1}

	if indexOf(entries, entry) >= 0 {
		outcome.Duplicate = true
		outcome.Position = indexOf(entries, entry)
		return outcome, nil
	}
	// Results without a correct answer have no finite speed and are never kept.
	if math.IsInf(entry.Speed, 1) {
		return outcome, nil
	}
	if len(entries) >= s.capacity && entry.Speed >= entries[len(entries)-1].Speed {
		return outcome, nil
	}

	entries = append(entries, entry)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Speed < entries[j].Speed })
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}
	if err := s.save(ctx, quizID, entries); err != nil {
		return domain.SubmitOutcome{}, err
	}

	outcome.Entries = entries
	outcome.Admitted = true
	outcome.Position = indexOf(entries, entry)
	log.WithFields(log.Fields{
		"quiz":     quizID,
		"name":     entry.Name,
		"result":   entry.Result,
		"position": outcome.Position,
	}).Info("leaderboard entry admitted")
	return outcome, nil
}

func (s *LeaderboardStore) load(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error) {
	raw, ok, err := s.kv.Get(ctx, LeaderboardKey(quizID))
	if err != nil {
		return nil, fmt.Errorf("load leaderboard %s: %w", quizID, err)
	}
	if !ok || len(raw) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	var stored []storedEntry
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.WithField("quiz", quizID).WithError(err).Warn("discarding unreadable leaderboard")
		return []domain.LeaderboardEntry{}, nil
	}

	entries := make([]domain.LeaderboardEntry, 0, len(stored))
	for _, e := range stored {
		if e.Speed == nil || math.IsInf(*e.Speed, 0) || math.IsNaN(*e.Speed) || e.Result == "" || e.Name == "" {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			Name:           e.Name,
			Speed:          *e.Speed,
			Result:         e.Result,
			CorrectCount:   e.CorrectCount,
			TotalQuestions: e.TotalQuestions,
			Time:           e.Time,
			Date:           e.Date,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Speed < entries[j].Speed })
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}
	return entries, nil
}

func (s *LeaderboardStore) save(ctx context.Context, quizID string, entries []domain.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal leaderboard %s: %w", quizID, err)
	}
	if err := s.kv.Set(ctx, LeaderboardKey(quizID), data); err != nil {
		return fmt.Errorf("save leaderboard %s: %w", quizID, err)
	}
	return nil
}

func (s *LeaderboardStore) quizLock(quizID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[quizID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[quizID] = lock
	}
	return lock
}

// storedEntry tolerates missing or null speeds in persisted boards.
type storedEntry struct {
	Name           string   `json:"name"`
	Speed          *float64 `json:"speed"`
	Result         string   `json:"result"`
	CorrectCount   int      `json:"correctCount"`
	TotalQuestions int      `json:"totalQuestions"`
	Time           int      `json:"time"`
	Date           string   `json:"date"`
}

// sameResult reports whether two entries describe the same finished session.
func sameResult(a, b domain.LeaderboardEntry) bool {
	return a.Name == b.Name &&
		math.Abs(a.Speed-b.Speed) < speedTolerance &&
		a.Result == b.Result &&
		a.Time == b.Time
}

func indexOf(entries []domain.LeaderboardEntry, entry domain.LeaderboardEntry) int {
	for i, e := range entries {
		if sameResult(e, entry) {
			return i
		}
	}
	return -1
}

// FormatTime renders seconds as "1m 5s" or "45s".
func FormatTime(seconds int) string {
	mins, secs := seconds/60, seconds%60
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatSpeed renders a speed with two decimals, or a dash when it is not finite.
func FormatSpeed(speed float64) string {
	if math.IsInf(speed, 0) || math.IsNaN(speed) {
		return "—"
	}
	return fmt.Sprintf("%.2f", speed)
}
