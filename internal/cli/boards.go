package cli

import (
	"fmt"
	"text/tabwriter"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/domain"
	"exceltoquiz/internal/infra/postgres"
	"github.com/spf13/cobra"
)

// NewLeaderboardCmd prints a quiz leaderboard, or the global one when no
// quiz id is given.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var (
		period string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "leaderboard [quiz-id]",
		Short: "Show a quiz or global leaderboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			boards := app.NewLeaderboardService(d.client)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				board, err := boards.Quiz(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(out, board)
				}
				fmt.Fprintf(out, "%s\n%d participants, average %.0f%%, best %d%%\n\n",
					board.Quiz.Title, board.Stats.TotalParticipants, board.Stats.AverageScore, board.Stats.HighestScore)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "#\tNAME\tSCORE\tCORRECT\tTIME")
				for i, e := range board.Entries {
					fmt.Fprintf(tw, "%d\t%s\t%d%%\t%d/%d\t%dm\n", i+1, e.ParticipantName, e.Score, e.CorrectAnswers, e.TotalQuestions, e.TimeTaken)
				}
				return tw.Flush()
			}

			p, err := app.ParsePeriod(period)
			if err != nil {
				return err
			}
			board, err := boards.Global(cmd.Context(), p)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, board)
			}
			fmt.Fprintf(out, "%d quizzes, %d participants, average %d%%\n\n",
				board.Stats.TotalQuizzes, board.Stats.TotalParticipants, board.Stats.AverageScore)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tQUIZ\tSCORE\tTIME")
			for _, e := range board.Entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d%%\t%dm\n", e.Rank, e.ParticipantName, e.QuizTitle, e.Score, e.TimeTaken)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&period, "period", string(app.PeriodAll), "today, week, month or all (global only)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// NewContactCmd sends a support message.
func NewContactCmd(configPath *string) *cobra.Command {
	var msg domain.ContactMessage
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the maintainers",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			reply, err := app.NewContactService(d.client).Send(cmd.Context(), msg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
	cmd.Flags().StringVar(&msg.Name, "name", "", "your name")
	cmd.Flags().StringVar(&msg.Email, "email", "", "your email")
	cmd.Flags().StringVar(&msg.Subject, "subject", "", "subject")
	cmd.Flags().StringVar(&msg.Message, "message", "", "message (500 characters max)")
	return cmd
}

// NewHistoryCmd lists finished sessions from the local journal.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var (
		quizID string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently finished quiz sessions from the local journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			if d.cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			s, err := openStores(cmd.Context(), d.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := postgres.NewResultJournal(s.pool).Recent(cmd.Context(), quizID, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FINISHED\tQUIZ\tNAME\tSCORE\tSUBMITTED\tNOTE")
			for _, e := range entries {
				note := e.Warning
				if e.TimedOut && note == "" {
					note = "time up"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%t\t%s\n",
					e.FinishedAt.Local().Format("2006-01-02 15:04"), e.Result.QuizID, e.Result.ParticipantName,
					e.Result.Score, e.Submitted, note)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "only sessions of this quiz")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of sessions")
	return cmd
}
