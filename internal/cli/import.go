package cli

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quiz-play-service/internal/infra/file"
	"quiz-play-service/internal/infra/postgres"
	infraredis "quiz-play-service/internal/infra/redis"
)

// NewImportCmd loads a quiz bank file into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var bankPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON or YAML quiz bank into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if bankPath == "" {
				bankPath = cfg.Quiz.Bank
			}
			if bankPath == "" {
				return fmt.Errorf("no quiz bank: pass --file or set quiz.bank")
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			quizzes, err := file.ReadBank(bankPath)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}

			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			if err := postgres.NewQuizWriter(b.pool).UpsertQuizzes(ctx, quizzes); err != nil {
				return err
			}
			if b.redis != nil {
				cache := infraredis.NewQuizRepository(b.redis, nil, 0)
				for _, q := range quizzes {
					if err := cache.Invalidate(ctx, q.ID); err != nil {
						log.WithField("quiz", q.ID).WithError(err).Warn("cache invalidation failed")
					}
				}
			}
			log.WithFields(log.Fields{"file": bankPath, "quizzes": len(quizzes)}).Info("quiz bank imported")
			return nil
		},
	}
	cmd.Flags().StringVar(&bankPath, "file", "", "quiz bank to import (defaults to quiz.bank)")
	return cmd
}
