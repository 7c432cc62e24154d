package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"quiz-play-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (quiz bank file, Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// QuizRepository caches quizzes in Redis and falls back to a loader on cache miss.
// A quiz is stored as JSON:    SET quiz:{quizID} {json} EX ttl
// The catalog is stored as:    SET quiz:catalog  [json...] EX ttl
// Cache failures never fail a read; the loader is authoritative.
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	if r.fromCache(ctx, quizKey(quizID), &quiz) {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		var quiz domain.Quiz
		if r.fromCache(ctx, quizKey(quizID), &quiz) {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.toCache(ctx, quizKey(quizID), quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	if r.fromCache(ctx, catalogKey, &quizzes) {
		return quizzes, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		quizzes, err := r.loader.ListQuizzes(ctx)
		if err != nil {
			return nil, err
		}
		pipe := r.client.Pipeline()
		ttl := r.ttlWithJitter()
		for _, q := range quizzes {
			if data, err := json.Marshal(q); err == nil {
				pipe.Set(ctx, quizKey(q.ID), data, ttl)
			}
		}
		if data, err := json.Marshal(quizzes); err == nil {
			pipe.Set(ctx, catalogKey, data, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			log.WithError(err).Warn("caching quiz catalog failed")
		}
		return quizzes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Quiz), nil
}

// Invalidate drops a cached quiz and the catalog, e.g. after an import.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) error {
	return r.client.Del(ctx, quizKey(quizID), catalogKey).Err()
}

func (r *QuizRepository) fromCache(ctx context.Context, key string, dst any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithField("key", key).WithError(err).Warn("quiz cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.WithField("key", key).WithError(err).Warn("quiz cache entry unreadable")
		return false
	}
	return true
}

func (r *QuizRepository) toCache(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttlWithJitter()).Err(); err != nil {
		log.WithField("key", key).WithError(err).Warn("quiz cache write failed")
	}
}

const catalogKey = "quiz:catalog"

func quizKey(quizID string) string {
	return "quiz:" + quizID
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int64N(jitterMax+1))
}
