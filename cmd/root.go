package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"actionlog/internal/config"
	"actionlog/internal/logging"
	"actionlog/internal/store"

	"github.com/spf13/cobra"
)

var (
	projectDir string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "actionlog",
	Short: "Record, replay and manage host automation commands",
	Long: `actionlog keeps a log of automation commands captured from a host application,
replays them one at a time, copies them as ready-to-paste snippets, and manages
the log in bulk: clear, import and export either the whole state or a subset.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveProjectDir()
		if err != nil {
			return err
		}
		cfg, err = config.Load(filepath.Join(dir, store.DirName, config.FileName))
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		logger = logging.New(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", "", "project directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveProjectDir() (string, error) {
	if projectDir != "" {
		return filepath.Abs(projectDir)
	}
	return os.Getwd()
}

func openStore() (*store.Store, error) {
	dir, err := resolveProjectDir()
	if err != nil {
		return nil, err
	}

	dataDir := filepath.Join(dir, store.DirName)
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("not initialized — run 'actionlog init' first")
	}

	return store.New(dir)
}
