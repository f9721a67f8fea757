package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/clientmailer/clientmailer/internal/config"
	"github.com/clientmailer/clientmailer/internal/database"
	"github.com/clientmailer/clientmailer/internal/logger"
)

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool for the clientmailer template store",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all pending migrations",
	RunE:  runUp,
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Rollback the last migration",
	RunE:  runDown,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE:  runStatus,
}

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new migration file pair",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "directory holding the migration files")
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(createCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getMigrator() (*migrate.Migrate, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(migrationsDir), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	log := logger.New("info", "text")
	log.Info().Str("dir", migrationsDir).Msg("running migrations...")

	m, err := getMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info().Msg("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	log := logger.New("info", "text")
	log.Info().Msg("rolling back last migration...")

	m, err := getMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	log.Info().Msg("rollback completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	m, err := getMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations have been applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d\nDirty: %v\n", version, dirty)
	return nil
}

var migrationFileRe = regexp.MustCompile(`^(\d+)_.*\.(up|down)\.sql$`)

func runCreate(cmd *cobra.Command, args []string) error {
	version, err := nextVersion(migrationsDir)
	if err != nil {
		return err
	}

	upFile := filepath.Join(migrationsDir, fmt.Sprintf("%06d_%s.up.sql", version, args[0]))
	downFile := filepath.Join(migrationsDir, fmt.Sprintf("%06d_%s.down.sql", version, args[0]))

	if err := os.WriteFile(upFile, []byte("-- Add migration SQL here\n"), 0644); err != nil {
		return fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := os.WriteFile(downFile, []byte("-- Add rollback SQL here\n"), 0644); err != nil {
		return fmt.Errorf("failed to create down migration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created migration files:\n  %s\n  %s\n", upFile, downFile)
	return nil
}

// nextVersion returns one past the highest version found in dir, creating dir if needed.
func nextVersion(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create migrations directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	highest := 0
	for _, entry := range entries {
		match := migrationFileRe.FindStringSubmatch(entry.Name())
		if entry.IsDir() || match == nil {
			continue
		}
		if v, err := strconv.Atoi(match[1]); err == nil && v > highest {
			highest = v
		}
	}
	return highest + 1, nil
}
