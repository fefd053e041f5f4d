package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat-server/internal/app"
	"github.com/vovakirdan/roomchat-server/internal/catalog"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/log"
)

type rootOptions struct {
	configPath string
	overrides  config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "roomchat",
		Short:         "Realtime room chat server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (default: ./config.yaml or $ROOMCHAT_CONFIG_DEFAULT_PATH)")

	serve := newServeCmd(opts)
	root.AddCommand(serve, newRoomsCmd(opts))
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(opts, config.Load, true)
			if err != nil {
				return err
			}

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().Str("addr", cfg.Addr).Msg("starting roomchat server")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.overrides.DatabasePath, "db", "", "sqlite database path")
	flags.StringVar(&opts.overrides.UploadDir, "upload-dir", "", "directory for uploaded images")
	flags.DurationVar(&opts.overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&opts.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	return cmd
}

func newRoomsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "Print the room catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(opts, config.Peek, false)
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), cfg.Rooms)
			return nil
		},
	}
}

type configLoader func(*zerolog.Logger, string) (config.Config, string, error)

// loadConfig resolves configuration through load and builds the process logger.
// Read-only commands pass config.Peek so no default file is written.
func loadConfig(opts *rootOptions, load configLoader, verbose bool) (config.Config, *zerolog.Logger, error) {
	bootLog := zerolog.Nop()
	if verbose {
		bootLog = *log.New("info", "console")
	}

	cfg, path, err := load(&bootLog, opts.configPath)
	if err != nil {
		return cfg, nil, err
	}
	cfg.UpdateFrom(opts.overrides)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	if verbose {
		logger.Debug().Str("config", path).Msg("configuration loaded")
	}
	return cfg, logger, nil
}

func printCatalog(w io.Writer, cat catalog.Catalog) {
	for _, category := range cat {
		fmt.Fprintln(w, category.Title)
		for _, group := range category.Groups {
			fmt.Fprintf(w, "  %s\n", group.Title)
			for _, room := range group.Rooms {
				fmt.Fprintf(w, "    - %s\n", room.Name)
			}
		}
	}
}
