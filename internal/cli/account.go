package cli

import (
	"fmt"

	"exceltoquiz/internal/auth"
	"github.com/spf13/cobra"
)

// NewLoginCmd stores a session issued by the hosted sign-in.
func NewLoginCmd(configPath *string) *cobra.Command {
	var token, refresh, email, name string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token for authenticated commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			session, err := d.provider.Login(token, refresh, auth.User{Email: email, Name: name})
			if err != nil {
				return err
			}
			who := session.User.Email
			if who == "" {
				who = session.User.ID
			}
			if session.ExpiresAt.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", who)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s until %s\n", who, session.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (JWT)")
	cmd.Flags().StringVar(&refresh, "refresh", "", "refresh token")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

// NewLogoutCmd forgets the stored session.
func NewLogoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(*configPath)
			if err != nil {
				return err
			}
			if err := d.provider.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}
