package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/flock/backend/internal/infrastructure/config"
	"github.com/flock/backend/internal/infrastructure/logger"
	"github.com/flock/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

// cliOptions carries the persistent flags shared by every subcommand
type cliOptions struct {
	path     string
	logLevel string
	out      io.Writer
	now      func() time.Time
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &cliOptions{out: out, now: time.Now}

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the consolidation database schema",
		Long: `Apply, roll back and author PostgreSQL schema migrations.

Without --path the migrations embedded in the binary are used for
up/down/steps/goto/version/force, and ./migrations for create/list.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.path, "path", "", "migrations directory (default: embedded)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.withMigrator(func(m *migration.Migrator) error { return m.Up() })
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every applied migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.withMigrator(func(m *migration.Migrator) error { return m.Down() })
			},
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations, or roll back when N is negative",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("steps must be a non-zero integer, got %q", args[0])
				}
				return opts.withMigrator(func(m *migration.Migrator) error { return m.Steps(n) })
			},
		},
		&cobra.Command{
			Use:   "goto VERSION",
			Short: "Migrate up or down to VERSION",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return opts.withMigrator(func(m *migration.Migrator) error { return m.GoTo(uint(v)) })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.withMigrator(func(m *migration.Migrator) error {
					v, dirty, err := m.Version()
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(opts.out, "version: %d dirty: %t\n", v, dirty)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations, clearing the dirty flag",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return opts.withMigrator(func(m *migration.Migrator) error { return m.Force(v) })
			},
		},
		&cobra.Command{
			Use:   "create NAME [DESCRIPTION]",
			Short: "Write a new up/down migration pair",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				description := ""
				if len(args) > 1 {
					description = args[1]
				}
				mf, err := migration.CreateMigration(opts.dir(), args[0], description, opts.now())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(opts.out, "created %s\ncreated %s\n", mf.UpPath, mf.DownPath)
				return err
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List migration files on disk",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				migrations, err := migration.ListMigrations(opts.dir())
				if err != nil {
					return err
				}
				if len(migrations) == 0 {
					_, err = fmt.Fprintln(opts.out, "no migrations found")
					return err
				}
				for _, m := range migrations {
					down := "no down"
					if m.HasDown {
						down = "has down"
					}
					if _, err := fmt.Fprintf(opts.out, "%06d  %-40s  %s\n", m.Version, m.Name, down); err != nil {
						return err
					}
				}
				return nil
			},
		},
	)
	return root
}

// dir is where create and list operate
func (o *cliOptions) dir() string {
	if o.path == "" {
		return defaultMigrationsDir
	}
	return o.path
}

// withMigrator opens the configured postgres database and runs fn
func (o *cliOptions) withMigrator(fn func(*migration.Migrator) error) error {
	log, err := logger.New(logger.Options{Level: o.logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return errors.New("SQL migrations target postgres only; sqlite schemas are auto-migrated by the server")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, o.path, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return fn(m)
}
