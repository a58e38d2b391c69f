package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"caisse/internal/backend"
	"caisse/internal/config"
	"caisse/internal/core"
	"caisse/internal/log"
	"caisse/internal/storage"
)

var version = "dev"

// app carries what the subcommands share once the root has loaded config.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	userID int64
}

// NewRootCommand builds the caisse-cli command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "caisse-cli",
		Short: "Administrative commands for the caisse bookkeeping service",
		Long: `caisse-cli runs maintenance and reporting tasks against the same
database the caisse server uses.

Configuration comes from the environment (and .env when present), exactly
as for the server: DATA_BACKEND, SQLITE_DB_PATH, OPENAI_API_KEY, ...`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := LoadConfig(log.ComponentCLI)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			if !cmd.Flags().Changed("user") {
				a.userID = cfg.DefaultUserID
			}
			return nil
		},
	}
	root.PersistentFlags().Int64Var(&a.userID, "user", 0, "User id to report on (default DEFAULT_USER_ID)")

	root.AddCommand(
		a.migrateCommand(),
		a.summaryCommand(),
		a.adviceCommand(),
		a.trendsCommand(),
	)
	return root
}

func (a *app) migrateCommand() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Example: `  # Migrate the database named by SQLITE_DB_PATH
  caisse-cli migrate

  # Migrate another file
  caisse-cli migrate --db ./data/copy.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				dbPath = a.cfg.SQLiteDBPath
			}
			v, err := storage.RunMigrations(dbPath)
			if err != nil {
				return err
			}
			a.logger.Info("Migrations applied", "db_path", dbPath, "version", v)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database file (default SQLITE_DB_PATH)")
	return cmd
}

func (a *app) summaryCommand() *cobra.Command {
	var month, year int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the financial summary of a month as JSON",
		Example: `  # Current month
  caisse-cli summary

  # March 2024
  caisse-cli summary --month 3 --year 2024`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := periodFlags(month, year)
			if err != nil {
				return err
			}
			return a.withBackend(cmd, func(result *backend.Backend) (any, error) {
				return NewAggregator(a.cfg, result, a.logger).FinancialSummary(cmd.Context(), a.userID, period)
			})
		},
	}
	cmd.Flags().IntVar(&month, "month", 0, "Month, 1-12 (requires --year)")
	cmd.Flags().IntVar(&year, "year", 0, "Year (requires --month)")
	return cmd
}

func (a *app) adviceCommand() *cobra.Command {
	var withData bool
	cmd := &cobra.Command{
		Use:   "advice <question>",
		Short: "Ask the financial advisor a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := core.AdviceRequest{Question: strings.Join(args, " "), IncludeFinancialData: withData}
			req.Normalize()
			if req.Question == "" {
				return errors.New("question required")
			}
			return a.withBackend(cmd, func(result *backend.Backend) (any, error) {
				adv := NewAdvisor(a.cfg, NewAggregator(a.cfg, result, a.logger), a.logger)
				if adv == nil {
					return nil, core.ErrAdviceUnavailable
				}
				user, ok, err := result.Store.GetUser(cmd.Context(), a.userID)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, fmt.Errorf("user %d: %w", a.userID, core.ErrNotFound)
				}
				return adv.Advice(cmd.Context(), user, req)
			})
		},
	}
	cmd.Flags().BoolVar(&withData, "with-data", true, "Attach the current financial figures")
	return cmd
}

func (a *app) trendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "trends",
		Short: "Analyze revenue and expense trends",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(cmd, func(result *backend.Backend) (any, error) {
				adv := NewAdvisor(a.cfg, NewAggregator(a.cfg, result, a.logger), a.logger)
				if adv == nil {
					return nil, core.ErrAdviceUnavailable
				}
				return adv.AnalyzeTrends(cmd.Context(), a.userID)
			})
		},
	}
}

// withBackend opens the store, runs fn and prints its result as indented JSON.
func (a *app) withBackend(cmd *cobra.Command, fn func(*backend.Backend) (any, error)) error {
	result, err := OpenBackend(cmd.Context(), a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Close(); err != nil {
			a.logger.Warn("Failed to close backend", "error", err)
		}
	}()

	v, err := fn(result)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func periodFlags(month, year int) (*core.Period, error) {
	if month == 0 && year == 0 {
		return nil, nil
	}
	if month == 0 || year == 0 {
		return nil, errors.New("--month and --year must be given together")
	}
	p, err := core.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
