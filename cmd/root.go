package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/app"
	"github.com/abhisek/tutorly/internal/config"
	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tutorly",
	Short: "Adaptive AI tutor for students",
	Long: "Tutorly answers students' questions, tracks their progress and streaks,\n" +
		"and shows teachers where each student is struggling.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TUTORLY_DB env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Load environment from this file instead of ./.env")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(weakCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then TUTORLY_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// loadConfig reads --env-file (or ./.env) and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openApp loads configuration and opens the database with every service
// wired. Callers must Close the returned app.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	log, err := logger.New(logger.Options{
		Mode:     cfg.LogMode,
		Level:    cfg.LogLevel,
		Redact:   cfg.LogRedaction,
		HashSalt: cfg.LogHashSalt,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.Open(cmd.Context(), cfg, dbPath, log, app.Options{})
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

// closeApp flushes the logger and closes the app.
func closeApp(a *app.App) {
	a.Close()
	a.Log.Sync()
}
