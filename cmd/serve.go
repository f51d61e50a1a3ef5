package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/crm-tools/internal/db"
	httpSrv "github.com/jmehdipour/crm-tools/internal/http"
	"github.com/jmehdipour/crm-tools/internal/logger"
	"github.com/jmehdipour/crm-tools/internal/service/crm"
	"github.com/jmehdipour/crm-tools/internal/tools"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP tool server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, sqlDB, err := setup()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		log := logger.Log

		redisClient, err := db.NewRedisClient(db.RedisOpts{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		if redisClient != nil {
			defer func() { _ = redisClient.Close() }()
		} else {
			log.Info("redis not configured, rate limiting disabled")
		}

		svc := crm.NewFromDB(sqlDB, gatePolicy(cfg), log)
		reg, err := tools.NewRegistry(svc, log)
		if err != nil {
			return fmt.Errorf("build tool registry: %w", err)
		}

		server := httpSrv.NewServer(cfg, reg, redisClient, log)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil {
				log.Error("http server exited", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
