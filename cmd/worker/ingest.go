package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/crm-tools/internal/config"
	"github.com/jmehdipour/crm-tools/internal/db"
	"github.com/jmehdipour/crm-tools/internal/kafka"
	"github.com/jmehdipour/crm-tools/internal/logger"
	"github.com/jmehdipour/crm-tools/internal/metrics"
	"github.com/jmehdipour/crm-tools/internal/query"
	"github.com/jmehdipour/crm-tools/internal/service/crm"
	"github.com/jmehdipour/crm-tools/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Consume inbound message envelopes from Kafka and log them",
	RunE:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	// 1) config + logger
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)
	log := logger.Log

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) SQLite
	dbx, err := db.NewSQLiteConnection(cfg.Database.Path, db.SQLiteOpts{
		BusyTimeout: cfg.Database.BusyTimeout,
		PingTimeout: cfg.Database.PingTimeout,
	})
	if err != nil {
		return fmt.Errorf("sqlite connect: %w", err)
	}
	defer dbx.Close()

	// 3) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.EnsureSchema(ctx, dbx); err != nil {
		return err
	}

	policy := query.DefaultPolicy()
	if cfg.Query.DefaultLimit > 0 {
		policy.DefaultLimit = cfg.Query.DefaultLimit
	}
	svc := crm.NewFromDB(dbx, policy, log)

	// 4) kafka consumer
	consumer, err := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		GroupID:        cfg.Kafka.GroupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer consumer.Close()

	w := worker.NewIngest(consumer, svc, log)

	log.Info("ingest worker started",
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", cfg.Kafka.GroupID),
		zap.Strings("brokers", cfg.Kafka.Brokers))

	return w.Run(ctx)
}
