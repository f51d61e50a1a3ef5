package cmd

import (
	"encoding/json"
	"os"

	"github.com/jmehdipour/crm-tools/internal/logger"
	"github.com/jmehdipour/crm-tools/internal/query"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <table> <sql>",
	Short: "Run a read-only SELECT through the query gate and print rows as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, sqlDB, err := setup()
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		gate := query.NewGate(sqlDB, gatePolicy(cfg), logger.Log)
		rows, err := gate.Execute(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	},
}
