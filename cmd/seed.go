package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/crm-tools/internal/logger"
	"github.com/jmehdipour/crm-tools/internal/model"
	"github.com/jmehdipour/crm-tools/internal/service/crm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo customers and messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, sqlDB, err := setup()
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		svc := crm.NewFromDB(sqlDB, gatePolicy(cfg), logger.Log)
		logger.Log.Info("seeding demo customers")
		if err := seed(cmd.Context(), svc); err != nil {
			return err
		}
		logger.Log.Info("seed completed")
		return nil
	},
}

type demoCustomer struct {
	name     string
	email    string
	messages []demoMessage
}

type demoMessage struct {
	direction model.Direction
	content   string
}

var demoCustomers = []demoCustomer{
	{
		name:  "Ada Lovelace",
		email: "ada@example.com",
		messages: []demoMessage{
			{model.DirectionInbound, "Hi, my invoice for March looks wrong."},
			{model.DirectionOutbound, "Thanks Ada, we are looking into it."},
		},
	},
	{
		name:  "Alan Turing",
		email: "alan@example.com",
		messages: []demoMessage{
			{model.DirectionInbound, "Can I upgrade my plan mid-cycle?"},
		},
	},
	{
		name:  "Grace Hopper",
		email: "grace@example.com",
	},
	{
		name:  "Edsger Dijkstra",
		email: "edsger@example.com",
		messages: []demoMessage{
			{model.DirectionOutbound, "Your subscription renews next week."},
			{model.DirectionInbound, "Please cancel the renewal."},
			{model.DirectionOutbound, "Done, the renewal is cancelled."},
		},
	},
	{
		name:  "Barbara Liskov",
		email: "barbara@example.com",
	},
}

// seed is idempotent by email: messages are only logged for customers this
// run created.
func seed(ctx context.Context, svc *crm.Service) error {
	for _, dc := range demoCustomers {
		c, created, err := svc.EnsureCustomer(ctx, dc.email, dc.name)
		if err != nil {
			return fmt.Errorf("seed customer %s: %w", dc.email, err)
		}
		if !created {
			logger.Log.Debug("customer already present", zap.String("email", dc.email))
			continue
		}
		for _, m := range dc.messages {
			if _, err := svc.LogMessage(ctx, c.ID, m.direction.String(), m.content); err != nil {
				return fmt.Errorf("seed message for %s: %w", dc.email, err)
			}
		}
	}
	return nil
}
