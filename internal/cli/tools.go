package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/sheetify/internal/workspace"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List, generate and inspect tools",
	}
	cmd.AddCommand(newToolsListCmd(), newToolsCreateCmd(), newToolsShowCmd())
	return cmd
}

// loadWorkspace creates a synchronizer and performs its initial fetch.
func loadWorkspace(ctx context.Context) (*workspace.Synchronizer, error) {
	ws := workspace.NewSynchronizer(client, logger)
	return ws, ws.FetchTools(ctx)
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tools, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd.Context())
			view := workspace.Render(ws.Snapshot(), time.Now())
			out := cmd.OutOrStdout()
			printList(out, view)
			printStatus(out, view.Status)
			if err != nil {
				return fmt.Errorf("list tools: %w", err)
			}
			return nil
		},
	}
}

func newToolsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <prompt...>",
		Short: "Generate a tool from a plain-language prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := loadWorkspace(ctx)
			if err != nil {
				printStatus(cmd.OutOrStdout(), ws.Snapshot().Status)
				return fmt.Errorf("list tools: %w", err)
			}

			createErr := ws.CreateTool(ctx, strings.Join(args, " "))
			view := workspace.Render(ws.Snapshot(), time.Now())
			out := cmd.OutOrStdout()
			if createErr == nil {
				printList(out, view)
				printDetail(out, view.Detail)
			}
			printStatus(out, view.Status)
			if createErr != nil {
				return fmt.Errorf("create tool: %w", createErr)
			}
			return nil
		},
	}
}

func newToolsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a tool's prompt, blueprint, memory and storage",
		Long:  "Show one tool. Without an id the first listed tool is shown.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd.Context())
			if err != nil {
				printStatus(cmd.OutOrStdout(), ws.Snapshot().Status)
				return fmt.Errorf("list tools: %w", err)
			}

			if len(args) == 1 {
				id := args[0]
				found := false
				for _, t := range ws.Snapshot().Tools {
					if t.ID == id {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("tool %q not found", id)
				}
				ws.SelectTool(id)
			}

			printDetail(cmd.OutOrStdout(), workspace.Render(ws.Snapshot(), time.Now()).Detail)
			return nil
		},
	}
}

func printList(w io.Writer, v workspace.View) {
	for _, it := range v.Items {
		switch {
		case it.Placeholder:
			fmt.Fprintln(w, dimStyle.Render(it.Name))
		case it.Active:
			fmt.Fprintf(w, "%s %s\n", selectedStyle.Render("* "+it.Name), dimStyle.Render(it.ID))
		default:
			fmt.Fprintf(w, "  %s %s\n", it.Name, dimStyle.Render(it.ID))
		}
	}
}

func printDetail(w io.Writer, d workspace.DetailView) {
	if !d.Visible {
		fmt.Fprintln(w, dimStyle.Render(d.Placeholder))
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(d.Name))
	fmt.Fprintf(w, "ID:      %s\n", d.ID)
	fmt.Fprintf(w, "Prompt:  %s\n", d.Prompt)
	created := d.Created
	if d.CreatedAgo != "" {
		created += " (" + d.CreatedAgo + ")"
	}
	fmt.Fprintf(w, "Created: %s\n", created)
	for _, pane := range []struct{ title, body string }{
		{"Blueprint", d.Blueprint},
		{"Memory", d.Memory},
		{"Storage", d.Storage},
	} {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(pane.title))
		fmt.Fprintln(w, pane.body)
	}
}

func printStatus(w io.Writer, s workspace.Status) {
	if s.Message == "" {
		return
	}
	fmt.Fprintln(w, toneStyle(s.Tone).Render(s.Message))
}
