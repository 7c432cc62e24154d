package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-play-service/internal/domain"
)

// QuizWriter imports quiz banks into the quizzes table.
type QuizWriter struct {
	pool *pgxpool.Pool
}

func NewQuizWriter(pool *pgxpool.Pool) *QuizWriter {
	return &QuizWriter{pool: pool}
}

// UpsertQuizzes stores quizzes in one transaction; the slice order becomes the catalog order.
func (w *QuizWriter) UpsertQuizzes(ctx context.Context, quizzes []domain.Quiz) error {
	return w.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for i, q := range quizzes {
			data, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("marshal quiz %s: %w", q.ID, err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO quizzes (id, position, data, updated_at)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (id)
				DO UPDATE SET position = EXCLUDED.position, data = EXCLUDED.data, updated_at = now()
			`, q.ID, i, data)
			if err != nil {
				return fmt.Errorf("upsert quiz %s: %w", q.ID, err)
			}
		}
		return nil
	})
}
