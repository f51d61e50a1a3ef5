package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmehdipour/crm-tools/cmd/worker"
	"github.com/jmehdipour/crm-tools/internal/config"
	"github.com/jmehdipour/crm-tools/internal/db"
	"github.com/jmehdipour/crm-tools/internal/logger"
	"github.com/jmehdipour/crm-tools/internal/query"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:           "crm",
		Short:         "CRM tool layer for LLM agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(worker.NewWorkerCmd())
}

// setup loads config, initializes the logger and opens the database with
// the schema in place. Callers close the returned DB.
func setup() (config.Config, *sqlx.DB, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)

	conn, err := db.NewSQLiteConnection(cfg.Database.Path, db.SQLiteOpts{
		BusyTimeout: cfg.Database.BusyTimeout,
		PingTimeout: cfg.Database.PingTimeout,
	})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("sqlite connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.EnsureSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return config.Config{}, nil, err
	}
	return cfg, conn, nil
}

func gatePolicy(cfg config.Config) query.Policy {
	p := query.DefaultPolicy()
	if cfg.Query.DefaultLimit > 0 {
		p.DefaultLimit = cfg.Query.DefaultLimit
	}
	return p
}
