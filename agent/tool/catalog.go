package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
)

// Executor runs a named tool call on behalf of one agent.
type Executor func(ctx context.Context, tool string, args map[string]any) (string, error)

// BuildForDomain returns the tool infos to bind to a model and the executor
// that serves their calls. An agent only ever sees its own Genie tool.
func BuildForDomain(t *GenieTool) ([]*schema.ToolInfo, Executor) {
	return []*schema.ToolInfo{t.Info()}, NewExecutor(t)
}

func NewExecutor(t *GenieTool) Executor {
	fallback := DefaultExecutor(t.Domain())
	return func(ctx context.Context, tool string, args map[string]any) (string, error) {
		if tool == t.Name() {
			return t.Execute(ctx, args)
		}
		return fallback(ctx, tool, args)
	}
}

func DefaultExecutor(domain contractx.Domain) Executor {
	return func(ctx context.Context, tool string, _ map[string]any) (string, error) {
		return "", fmt.Errorf("%w: tool=%s is unavailable for agent=%s", contractx.ErrSchemaViolation, tool, domain)
	}
}

// ToolName is the function name exposed to models, e.g. "query_sales_genie".
func ToolName(d contractx.Domain) string {
	return "query_" + string(d) + "_genie"
}

func toolDescription(d contractx.Domain) string {
	switch d {
	case contractx.DomainSales:
		return "Ask the Sales Analytics Genie space a question about sales, revenue, products, regions."
	case contractx.DomainCustomer:
		return "Ask the Customer Insights Genie space a question about customers, segments, churn, LTV, regions."
	default:
		return "Ask the " + d.Title() + " Genie space a question."
	}
}
