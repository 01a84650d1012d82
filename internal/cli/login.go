package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/sheetify/internal/pipeline"
)

func newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in locally",
		Long: "Store a local demo sign-in. No credentials are sent to the server; " +
			"the stored token is a placeholder.",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return fmt.Errorf("email cannot be empty")
			}

			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			sess, err := pipeline.LoadSession(ctx, st)
			if err != nil {
				return err
			}
			ctrl := pipeline.NewController(client, sess, logger)
			rec, err := ctrl.SignIn(ctx, st, email, time.Now())
			if err != nil {
				return err
			}
			if err := pipeline.SaveSession(ctx, st, ctrl.Session()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, successStyle.Render("Signed in locally as "+rec.Email))
			fmt.Fprintln(out, dimStyle.Render("Token: "+rec.Token))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.MarkFlagRequired("email")
	return cmd
}
