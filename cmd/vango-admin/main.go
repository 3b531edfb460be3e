// Command vango-admin runs the admin console in front of a backend API.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vango-admin/internal/config"
	"github.com/vango-dev/vango-admin/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var dir string

	rootCmd := &cobra.Command{
		Use:   "vango-admin",
		Short: "Server-driven admin console",
		Long: `vango-admin serves an admin console for a REST backend.

Pages are routes resolved on the server. Links swap the page body in
place, guards check sign-in and permissions, and lists page, search and
batch-delete through the backend API.

Configuration comes from admin.json in the config directory, a .env file
next to it, and VANGO_ADMIN_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&dir, "config", "c", ".", "Directory holding admin.json and .env")

	load := func() (*config.Config, error) { return config.LoadOrEnv(dir) }

	rootCmd.AddCommand(
		serveCmd(load),
		routesCmd(load),
		checkCmd(load),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from the log settings.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// info prints an indented info line.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
