package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/domain"
	"github.com/spf13/cobra"
)

// NewUploadCmd parses a spreadsheet and creates a quiz from it.
func NewUploadCmd(configPath *string) *cobra.Command {
	var (
		draft    domain.QuizDraft
		language string
		publish  bool
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Create a quiz from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			s, err := openStores(ctx, d.cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			authors := d.authorService(s)

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			upload, err := authors.Preview(f, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			for _, w := range upload.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: question %d: %s\n", w.Index+1, w.Message)
			}

			lang, err := domain.ParseLanguage(language)
			if err != nil {
				return err
			}
			draft.Language = lang
			draft.FileName = upload.FileName
			draft.FileSize = upload.FileSize
			draft.Questions = upload.Questions

			id, err := authors.Create(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created quiz %s with %d questions\n", id, len(upload.Questions))
			if !publish {
				return nil
			}
			link, err := authors.Publish(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published: %s\n", link)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Title, "title", "", "quiz title")
	cmd.Flags().StringVar(&draft.Description, "description", "", "quiz description")
	cmd.Flags().IntVar(&draft.TimeLimit, "time-limit", domain.DefaultTimeLimit, "time limit in minutes (5-120)")
	cmd.Flags().IntVar(&draft.QuestionsPerQuiz, "questions", domain.DefaultQuestionsPerQuiz, "questions per quiz (5-50)")
	cmd.Flags().StringVar(&language, "language", string(domain.LanguageAuto), "quiz language: auto, en, bn, hi or mixed")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish right after creating")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// NewPublishCmd publishes a quiz and prints its share link.
func NewPublishCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <quiz-id>",
		Short: "Publish a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			link, err := app.NewAuthorService(d.client, nil).Publish(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
}

// NewDeleteCmd removes a quiz.
func NewDeleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <quiz-id>",
		Short: "Delete a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			s, err := openStores(ctx, d.cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := d.authorService(s).Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

// NewQuizzesCmd lists the signed-in user's quizzes.
func NewQuizzesCmd(configPath *string) *cobra.Command {
	var (
		filter app.Filter
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "List your quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			page, err := app.NewAuthorService(d.client, nil).List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), page)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tLANGUAGE\tQUESTIONS\tSTATUS")
			for _, q := range page.Quizzes {
				status := "draft"
				if q.IsPublished {
					status = "published"
				}
				count := q.QuestionsCount
				if count == 0 {
					count = len(q.Questions)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", q.ID, q.Title, q.Language.Label(), count, status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d quizzes)\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Search, "search", "", "match title or description")
	cmd.Flags().StringVar(&filter.Language, "language", "all", "language tag or all")
	cmd.Flags().IntVar(&filter.Page, "page", 1, "page number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// NewDraftCmd prints the locally stored draft a quiz was created from.
func NewDraftCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "draft <quiz-id>",
		Short: "Show the stored draft of a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			if d.cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			s, err := openStores(ctx, d.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			draft, err := d.authorService(s).Draft(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), draft)
		},
	}
}
