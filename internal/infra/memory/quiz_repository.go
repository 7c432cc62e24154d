package memory

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-play-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (quiz bank file, Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

const catalogKey = "\x00catalog"

// QuizRepository caches quizzes with TTL to avoid repeated bank reads.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu      sync.RWMutex
	cache   map[string]cachedQuiz
	catalog cachedCatalog
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

type cachedCatalog struct {
	quizzes   []domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[string]cachedQuiz),
	}
}

// GetQuiz returns a copy of the quiz; callers may modify it freely.
func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(quizID); ok {
		return quiz.Clone(), nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		if quiz, ok := r.cached(quizID); ok {
			return quiz, nil
		}
		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.store(quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz).Clone(), nil
}

// ListQuizzes returns a copy of the catalog in bank order. Listing also warms the
// per-quiz cache.
func (r *QuizRepository) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	r.mu.RLock()
	if r.catalog.expiresAt.After(r.clock()) {
		quizzes := cloneAll(r.catalog.quizzes)
		r.mu.RUnlock()
		return quizzes, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		quizzes, err := r.loader.ListQuizzes(ctx)
		if err != nil {
			return nil, err
		}
		for _, q := range quizzes {
			r.store(q)
		}
		r.mu.Lock()
		r.catalog = cachedCatalog{quizzes: quizzes, expiresAt: r.clock().Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return quizzes, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneAll(result.([]domain.Quiz)), nil
}

func cloneAll(quizzes []domain.Quiz) []domain.Quiz {
	out := make([]domain.Quiz, len(quizzes))
	for i, q := range quizzes {
		out[i] = q.Clone()
	}
	return out
}

func (r *QuizRepository) cached(quizID string) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[quizID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) store(quiz domain.Quiz) {
	r.mu.Lock()
	r.cache[quiz.ID] = cachedQuiz{quiz: quiz, expiresAt: r.clock().Add(r.ttlWithJitter())}
	r.mu.Unlock()
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int64N(jitterMax+1))
}

// StaticQuizLoader serves a fixed, ordered set of quizzes (tests, demos, already-parsed banks).
type StaticQuizLoader struct {
	order   []string
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes ...domain.Quiz) *StaticQuizLoader {
	l := &StaticQuizLoader{quizzes: make(map[string]domain.Quiz, len(quizzes))}
	for _, q := range quizzes {
		if _, dup := l.quizzes[q.ID]; !dup {
			l.order = append(l.order, q.ID)
		}
		l.quizzes[q.ID] = q
	}
	return l
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *StaticQuizLoader) ListQuizzes(context.Context) ([]domain.Quiz, error) {
	out := make([]domain.Quiz, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.quizzes[id])
	}
	return out, nil
}
