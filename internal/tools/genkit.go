package tools

import (
	"encoding/json"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// RegisterGenkit defines every registry tool on g. Calls go through
// Registry.Invoke, so the model always gets the envelope and never a Go error
// it cannot read.
func RegisterGenkit(g *genkit.Genkit, reg *Registry) []ai.ToolRef {
	return []ai.ToolRef{
		defineGenkitTool[AddCustomerInput](g, reg, AddCustomer),
		defineGenkitTool[CustomerIDInput](g, reg, GetCustomerByID),
		defineGenkitTool[EmailInput](g, reg, GetCustomerByEmail),
		defineGenkitTool[LogMessageInput](g, reg, LogMessage),
		defineGenkitTool[CustomerIDInput](g, reg, GetMessagesForCustomer),
		defineGenkitTool[NoInput](g, reg, GetCustomersWithNoMessages),
		defineGenkitTool[ThresholdInput](g, reg, GetCustomersWithLastMessageBefore),
		defineGenkitTool[QueryTableInput](g, reg, QueryTable),
	}
}

func defineGenkitTool[In any](g *genkit.Genkit, reg *Registry, name string) ai.Tool {
	return genkit.DefineTool(g, name, reg.tools[name].Description,
		func(ctx *ai.ToolContext, input In) (Result, error) {
			raw, err := json.Marshal(input)
			if err != nil {
				return Result{}, err
			}
			return reg.Invoke(ctx, name, raw), nil
		},
	)
}
