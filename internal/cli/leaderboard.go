package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
)

// NewLeaderboardCmd prints the stored leaderboard of a quiz.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var quizID string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the leaderboard of a quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			store, err := b.leaderboard(cfg)
			if err != nil {
				return err
			}
			entries, err := store.Ranked(ctx, quizID)
			if err != nil {
				return err
			}
			return printLeaderboard(cmd.OutOrStdout(), quizID, entries)
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}

func printLeaderboard(out io.Writer, quizID string, entries []domain.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintf(out, "no results for %s yet\n", quizID)
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tRESULT\tTIME\tSPEED\tDATE")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, e.Name, e.Result, app.FormatTime(e.Time), app.FormatSpeed(e.Speed), e.Date)
	}
	return w.Flush()
}
