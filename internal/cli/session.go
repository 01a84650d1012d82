package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/sheetify/internal/pipeline"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the saved pipeline session",
	}
	cmd.AddCommand(newSessionShowCmd(), newSessionResetCmd())
	return cmd
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved form values of every step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			out := cmd.OutOrStdout()
			for _, spec := range pipeline.Steps() {
				title := spec.Title
				if sess.Errored[spec.Step] {
					title += " " + errorStyle.Render("(failed)")
				}
				fmt.Fprintf(out, "%s %s\n", titleStyle.Render(string(spec.Step)), dimStyle.Render(title))
				for _, fs := range spec.Fields {
					v := sess.Get(fs.Field)
					if v == "" {
						v = dimStyle.Render("-")
					}
					fmt.Fprintf(out, "  %-26s %s\n", fs.Field, v)
				}
			}
			return nil
		},
	}
}

func newSessionResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget every saved form value and output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := pipeline.ResetSession(ctx, st); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared")
			return nil
		},
	}
}
