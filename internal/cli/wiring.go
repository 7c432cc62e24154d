package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/config"
	"quiz-play-service/internal/infra/file"
	"quiz-play-service/internal/infra/memory"
	"quiz-play-service/internal/infra/postgres"
	infraredis "quiz-play-service/internal/infra/redis"
)

// backends holds the connections opened for one command; close releases them.
type backends struct {
	redis   *redis.Client
	pool    *pgxpool.Pool
	closers []func()
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.closers = append(b.closers, pool.Close)
	}
	return b, nil
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// quizLoader prefers Postgres, then the bank file.
func (b *backends) quizLoader(cfg config.Config) (memory.QuizLoader, error) {
	switch {
	case b.pool != nil:
		return postgres.NewQuizLoader(b.pool), nil
	case cfg.Quiz.Bank != "":
		return file.NewQuizLoader(cfg.Quiz.Bank), nil
	default:
		return nil, fmt.Errorf("no quiz source: set postgres.url or quiz.bank")
	}
}

func (b *backends) quizRepository(cfg config.Config) (app.QuizRepository, error) {
	loader, err := b.quizLoader(cfg)
	if err != nil {
		return nil, err
	}
	ttl := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if b.redis != nil {
		return infraredis.NewQuizRepository(b.redis, loader, ttl), nil
	}
	return memory.NewQuizRepository(loader, ttl), nil
}

func (b *backends) sessionStore(cfg config.Config) app.SessionRepository {
	if b.redis != nil {
		return infraredis.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}
	return memory.NewSessionStore()
}

func (b *backends) leaderboardKV(cfg config.Config) (app.KVStore, error) {
	switch cfg.Leaderboard.Backend {
	case "file":
		kv, err := file.NewKVStore(cfg.Leaderboard.Dir)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "redis":
		return infraredis.NewKVStore(b.redis), nil
	case "postgres":
		kv, err := postgres.OpenKVStore(cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("open leaderboard store: %w", err)
		}
		b.closers = append(b.closers, func() { _ = kv.Close() })
		return kv, nil
	default:
		log.Warn("leaderboard backend is memory, results are lost on restart")
		return memory.NewKVStore(), nil
	}
}

func (b *backends) leaderboard(cfg config.Config) (*app.LeaderboardStore, error) {
	kv, err := b.leaderboardKV(cfg)
	if err != nil {
		return nil, err
	}
	return app.NewLeaderboardStore(kv, app.WithCapacity(cfg.Leaderboard.Capacity)), nil
}

// gameSettings overlays configured bounds on the defaults.
func gameSettings(cfg config.Config) app.GameSettings {
	g := app.DefaultGameSettings()
	if v := cfg.Game.DefaultQuestions; v > 0 {
		g.DefaultQuestions = v
	}
	if v := cfg.Game.MinQuestions; v > 0 {
		g.MinQuestions = v
	}
	if v := cfg.Game.DefaultTime; v > 0 {
		g.DefaultTime = v
	}
	if v := cfg.Game.MinTime; v > 0 {
		g.MinTime = v
	}
	if v := cfg.Game.MaxTime; v > 0 {
		g.MaxTime = v
	}
	return g
}

func (b *backends) quizService(cfg config.Config) (*app.QuizService, error) {
	quizzes, err := b.quizRepository(cfg)
	if err != nil {
		return nil, err
	}
	leaderboard, err := b.leaderboard(cfg)
	if err != nil {
		return nil, err
	}
	delay := config.TTLDuration(cfg.Game.AdvanceDelay, app.DefaultAdvanceDelay)
	return app.NewQuizService(b.sessionStore(cfg), quizzes, leaderboard,
		app.WithGameSettings(gameSettings(cfg)),
		app.WithSessionOptions(app.WithAdvanceDelay(delay)),
	), nil
}
