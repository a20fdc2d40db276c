// Command ghtower mirrors local YAML project boards onto GitHub Projects
// and back.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/githubtower/ghtower/internal/config"
	"github.com/githubtower/ghtower/internal/ui"
)

var version = "dev"

var (
	configDir string
	verbose   bool
	noColor   bool

	// cfg and logOutput are set before any command runs.
	cfg       *config.Config
	logOutput io.Writer = os.Stderr
	logFile   *lumberjack.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ghtower",
	Short: "Manage GitHub Projects from local YAML files",
	Long: `ghtower keeps a local YAML description of a project board (project,
columns, cards) and mirrors it onto GitHub Projects and back.

Local projects live in ~/.githubtower/projects/<name>/. Classic projects of
user accounts are synced through the REST API; organization projects
(Projects v2) are read through the GraphQL API.

The token is read from GITHUB_TOKEN or GH_TOKEN, also from a .env file in
the current directory or in the config directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.Init(noColor)

		loaded, err := config.Load(configDir)
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogging()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "projects", Title: "Local projects:"},
		&cobra.Group{ID: "sync", Title: "Syncing with GitHub:"},
		&cobra.Group{ID: "maint", Title: "Maintenance:"},
	)

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default: ~/.githubtower)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also write the log to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// setupLogging points logOutput at the rotating log file, teed to stderr
// with --verbose. A log file that cannot be opened falls back to stderr.
func setupLogging() {
	if cfg.Log.File == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot create log directory: %v\n", err)
		return
	}

	logFile = &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	if verbose {
		logOutput = io.MultiWriter(logFile, os.Stderr)
	} else {
		logOutput = logFile
	}
}

// newLogger returns a logger writing to the log output with prefix.
func newLogger(prefix string) *log.Logger {
	return log.New(logOutput, prefix, log.LstdFlags)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
