package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI; commands stop when ctx is cancelled.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "exceltoquiz",
		Short:        "Turn spreadsheets into timed quizzes and run them",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides server.port)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")

	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewTemplateCmd())
	cmd.AddCommand(NewLoginCmd(&configPath))
	cmd.AddCommand(NewLogoutCmd(&configPath))
	cmd.AddCommand(NewUploadCmd(&configPath))
	cmd.AddCommand(NewPublishCmd(&configPath))
	cmd.AddCommand(NewDeleteCmd(&configPath))
	cmd.AddCommand(NewDraftCmd(&configPath))
	cmd.AddCommand(NewQuizzesCmd(&configPath))
	cmd.AddCommand(NewLeaderboardCmd(&configPath))
	cmd.AddCommand(NewTakeCmd(&configPath))
	cmd.AddCommand(NewContactCmd(&configPath))
	cmd.AddCommand(NewHistoryCmd(&configPath))
	return cmd
}
