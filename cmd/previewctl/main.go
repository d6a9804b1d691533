// Command previewctl runs generation and maintenance operations from the
// shell against the same configuration the server uses.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/app"
	"github.com/MartialAndCo/berinia-bot/internal/config"
	"github.com/MartialAndCo/berinia-bot/internal/jobs"
	"github.com/MartialAndCo/berinia-bot/internal/logging"
	"github.com/MartialAndCo/berinia-bot/internal/pipeline"
	"github.com/MartialAndCo/berinia-bot/internal/store/postgres"
)

var (
	loadConfig = config.Load
	newLogger  = logging.New
	buildApp   = app.Build
	openDB     = postgres.Open
	migrateDB  = postgres.Migrate
	now        = time.Now
)

func main() {
	if err := rootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(out io.Writer) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:           "previewctl",
		Short:         "Operate the preview generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Deadline for the whole command")

	withApp := func(fn func(ctx context.Context, a *app.App) (any, error)) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, _ []string) error {
			application, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()
			result, err := fn(ctx, application)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), result)
		}
	}

	cmd.AddCommand(generateCmd(withApp))
	cmd.AddCommand(&cobra.Command{
		Use:   "expire",
		Short: "Deactivate projects older than the retention window",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App) (any, error) {
			return a.Sweep.Run(ctx, now())
		}),
	})
	cmd.AddCommand(missionsCmd(withApp))
	cmd.AddCommand(migrateCmd())
	return cmd
}

type appRunner func(fn func(ctx context.Context, a *app.App) (any, error)) func(*cobra.Command, []string) error

func generateCmd(withApp appRunner) *cobra.Command {
	var (
		url     string
		leadID  string
		baseURL string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a preview for a website",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App) (any, error) {
			if baseURL == "" {
				baseURL = a.Config.PublicBaseURL
			}
			return a.Pipeline.Generate(ctx, pipeline.Request{URL: url, LeadID: leadID, BaseURL: baseURL})
		}),
	}
	cmd.Flags().StringVar(&url, "url", "", "Website to build the agent from")
	cmd.Flags().StringVar(&leadID, "lead", "", "Lead to link the project to")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Origin used to build the preview link")
	return cmd
}

func missionsCmd(withApp appRunner) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "missions",
		Short: "Inspect and trigger scraping missions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all missions",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App) (any, error) {
			return a.Store.ListMissions(ctx)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "trigger",
		Short: "Start a crawl job for every active mission",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App) (any, error) {
			return a.Trigger.TriggerAll(ctx)
		}),
	})
	runs := &cobra.Command{
		Use:   "runs",
		Short: "Show recent crawl runs",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App) (any, error) {
			return a.Runs.RecentRuns(ctx, limit), nil
		}),
	}
	runs.Flags().IntVar(&limit, "limit", jobs.DefaultRunLimit, "Number of runs to show")
	cmd.AddCommand(runs)
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			db, err := openDB(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = db.Close() }()
			if err := migrateDB(db, logger); err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), "migrations applied")
			return err
		},
	}
}

func loadEnv() (config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func setup() (*app.App, error) {
	cfg, logger, err := loadEnv()
	if err != nil {
		return nil, err
	}
	return buildApp(cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
