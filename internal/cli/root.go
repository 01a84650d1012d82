package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/me/sheetify/internal/api"
	"github.com/me/sheetify/internal/config"
	"github.com/me/sheetify/internal/logging"
	"github.com/me/sheetify/internal/store"
)

var (
	flagServer    string
	flagConfig    string
	flagDB        string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg    config.ClientConfig
	logger *slog.Logger
	client *api.Client
)

// NewRootCmd creates the root cobra command for the sheetify CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sheetify",
		Short: "Sheetify: turn spreadsheets into runnable tools",
		Long: "Sheetify uploads workbooks, maps them, generates and runs jobs, and " +
			"manages the tools generated from plain-language prompts.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			applyFlags(cmd, &loaded)
			cfg = loaded

			logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
			client = api.NewClient(cfg.Server, logger)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", "", "Sheetify API URL (or SHEETIFY_SERVER env)")
	root.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath(), "Config file")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "Local state database (or SHEETIFY_DB env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newUploadCmd(),
		newFinaliseCmd(),
		newMappingCmd(),
		newJobCmd(),
		newRunCmd(),
		newStatusCmd(),
		newArtefactsCmd(),
		newTemplateCmd(),
		newSessionCmd(),
		newToolsCmd(),
		newServeCmd(),
	)

	return root
}

// applyFlags overlays explicitly set flags on the loaded config.
func applyFlags(cmd *cobra.Command, c *config.ClientConfig) {
	flags := cmd.Flags()
	if flags.Changed("server") {
		c.Server = flagServer
	}
	if flags.Changed("db") {
		c.DBPath = flagDB
	}
	if flags.Changed("log-level") {
		c.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		c.LogFormat = flagLogFormat
	}
	if flagDebug {
		c.LogLevel = "debug"
	}
}

func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	return store.Open(ctx, cfg.DBPath, logger)
}
