package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmehdipour/crm-tools/internal/config"
	"github.com/jmehdipour/crm-tools/internal/logger"
	"github.com/jmehdipour/crm-tools/internal/tools"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print tool declarations as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)

		// declarations do not touch the store
		reg, err := tools.NewRegistry(nil, logger.Log)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reg.Declarations())
	},
}
