package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "credintel"
	version = "v0.3.0"
)

var (
	configPath string
	logger     zerolog.Logger
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	logger = newLogger()

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Company credit scoring and rating pipeline",
		Version: version,
		Long: `credintel scores company creditworthiness from financial statements,
price history and macro data, classifies issuers into rating buckets,
and expands buckets into fine ratings with per-feature explanations.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to YAML config file")

	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newAssessCmd())
	rootCmd.AddCommand(newMonitorCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// newLogger writes human-readable console output on a TTY and JSON
// otherwise, so piped output stays machine-parseable.
func newLogger() zerolog.Logger {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
