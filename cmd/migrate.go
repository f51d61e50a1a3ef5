package cmd

import (
	"github.com/jmehdipour/crm-tools/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the CRM tables and indexes if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, sqlDB, err := setup()
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		logger.Log.Info("schema ready", zap.String("path", cfg.Database.Path))
		return nil
	},
}
