package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/config"
	"exceltoquiz/internal/domain"
	"github.com/spf13/cobra"
)

// NewTakeCmd runs a published quiz in the terminal.
func NewTakeCmd(configPath *string) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "take <quiz-id>",
		Short: "Take a published quiz in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			s, err := openStores(cmd.Context(), d.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			tick := config.TTLDuration(d.cfg.Session.Tick, app.DefaultTickInterval)
			return runTake(cmd.Context(), d.takeService(s, tick), args[0], name, email, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "your name as shown on the leaderboard")
	cmd.Flags().StringVar(&email, "email", "", "optional email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// runTake drives one session from line-based input until results are shown.
// Closing the input finishes the quiz.
func runTake(ctx context.Context, svc *app.TakeService, quizID, name, email string, in io.Reader, out io.Writer) error {
	snap, err := svc.Open(ctx, quizID)
	if err != nil {
		return err
	}
	sessionID := snap.ID
	defer svc.Close(sessionID)

	updates, cancel, err := svc.Subscribe(ctx, sessionID)
	if err != nil {
		return err
	}
	defer cancel()

	fmt.Fprintf(out, "%s: %d questions, %s on the clock\n", snap.QuizTitle, snap.Total, snap.Clock)
	snap, err = svc.Start(ctx, sessionID, name, email)
	if err != nil {
		return err
	}
	renderQuestion(out, snap)

	done := make(chan struct{})
	defer close(done)
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-done:
				return
			}
		}
	}()

	warned := map[int]bool{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if snap.Phase == app.PhaseResultsShown {
				outcome, err := svc.Outcome(sessionID)
				if err != nil {
					return err
				}
				renderOutcome(out, outcome)
				return nil
			}
			if snap.State == app.StateInProgress && (snap.Remaining == 60 || snap.Remaining == 10) && !warned[snap.Remaining] {
				warned[snap.Remaining] = true
				fmt.Fprintf(out, "\n%s left\n", snap.Clock)
			}

		case line, ok := <-lines:
			if !ok {
				lines = nil
				line = "f"
			}
			if line == "q" {
				return nil
			}
			next, err := handleLine(ctx, svc, sessionID, line)
			if err != nil {
				fmt.Fprintln(out, domain.UserMessage(err))
				continue
			}
			if next.State == app.StateInProgress {
				renderQuestion(out, next)
			}
		}
	}
}

func handleLine(ctx context.Context, svc *app.TakeService, sessionID, line string) (app.Snapshot, error) {
	switch strings.ToLower(line) {
	case "", "s":
		return svc.Snapshot(ctx, sessionID)
	case "n":
		return svc.Next(ctx, sessionID)
	case "p":
		return svc.Previous(ctx, sessionID)
	case "f":
		if _, err := svc.Finish(ctx, sessionID); err != nil {
			return app.Snapshot{}, err
		}
		return svc.Snapshot(ctx, sessionID)
	}
	option, err := strconv.Atoi(line)
	if err != nil {
		return app.Snapshot{}, domain.NewError(domain.KindValidation, "take", "Enter an option number, n, p, f or q.", domain.ErrInvalidInput)
	}
	return svc.Select(ctx, sessionID, option)
}

func renderQuestion(out io.Writer, snap app.Snapshot) {
	fmt.Fprintf(out, "\nQuestion %d of %d  [%s]\n", snap.Index+1, snap.Total, snap.Clock)
	if snap.Unavailable || snap.Question == nil {
		fmt.Fprintln(out, "Question not available")
	} else {
		fmt.Fprintln(out, snap.Question.Text)
		for i, opt := range snap.Question.Options {
			mark := " "
			if snap.Answers[snap.Index] == i+1 {
				mark = "*"
			}
			fmt.Fprintf(out, " %s %d) %s\n", mark, i+1, opt)
		}
	}
	fmt.Fprint(out, "> ")
}

func renderOutcome(out io.Writer, o app.Outcome) {
	if o.TimedOut {
		fmt.Fprintln(out, "\nTime's up!")
	}
	fmt.Fprintf(out, "\n%s scored %d%% (%d of %d correct) in %d min\n%s\n",
		o.Result.ParticipantName, o.Result.Score, o.Result.CorrectAnswers, o.Result.TotalQuestions, o.Result.TimeTaken, o.Message)
	if o.Warning != "" {
		fmt.Fprintln(out, o.Warning)
	}
	for _, r := range o.Review {
		mark := "x"
		if r.Correct {
			mark = "✓"
		}
		fmt.Fprintf(out, "%s %d. %s: %s", mark, r.Number, r.Question, r.YourAnswer)
		if r.RightAnswer != "" {
			fmt.Fprintf(out, " (answer: %s)", r.RightAnswer)
		}
		fmt.Fprintln(out)
	}
}
