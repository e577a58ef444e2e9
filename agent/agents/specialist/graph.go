package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
)

// compileChatGraph builds prompt -> model. The system prompt is static; all
// per-call data goes through {input} so it may contain braces.
func compileChatGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add %s prompt node: %w", graphName, err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add %s model node: %w", graphName, err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add %s edge start->prompt: %w", graphName, err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add %s edge prompt->model: %w", graphName, err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add %s edge model->end: %w", graphName, err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}

type observation struct {
	Tool     string `json:"tool"`
	Question string `json:"question"`
	Result   string `json:"result"`
}

type specialistGraphState struct {
	Task         contractx.Task
	Content      string
	Observations []observation
}

func compileSpecialistRuntimeGraph(
	ctx context.Context,
	domain contractx.Domain,
	actFlow func(context.Context, contractx.Task) (*specialistGraphState, error),
	finalizeFlow func(context.Context, *specialistGraphState) (string, error),
) (compose.Runnable[contractx.Task, string], error) {
	graph := compose.NewGraph[contractx.Task, string]()

	if err := graph.AddLambdaNode("validate_task",
		compose.InvokableLambda(func(ctx context.Context, task contractx.Task) (contractx.Task, error) {
			if task.Domain != domain {
				return contractx.Task{}, fmt.Errorf("%w: task for domain=%s sent to %s agent", contractx.ErrValidation, task.Domain, domain)
			}
			if strings.TrimSpace(task.Description) == "" {
				return contractx.Task{}, fmt.Errorf("%w: task description is required", contractx.ErrValidation)
			}
			return task, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add specialist runtime validate node: %w", err)
	}

	if err := graph.AddLambdaNode("act", compose.InvokableLambda(actFlow)); err != nil {
		return nil, fmt.Errorf("add specialist runtime act node: %w", err)
	}

	if err := graph.AddLambdaNode("answer_direct",
		compose.InvokableLambda(func(ctx context.Context, in *specialistGraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: specialist graph state is nil", contractx.ErrValidation)
			}
			if in.Content == "" {
				return "", fmt.Errorf("%w: model returned neither tool calls nor content", contractx.ErrSchemaViolation)
			}
			return in.Content, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add specialist runtime answer node: %w", err)
	}

	if err := graph.AddLambdaNode("finalize", compose.InvokableLambda(finalizeFlow)); err != nil {
		return nil, fmt.Errorf("add specialist runtime finalize node: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *specialistGraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: specialist graph state is nil", contractx.ErrValidation)
			}
			if len(in.Observations) == 0 {
				return "answer_direct", nil
			}
			return "finalize", nil
		},
		map[string]bool{
			"answer_direct": true,
			"finalize":      true,
		},
	)

	if err := graph.AddEdge(compose.START, "validate_task"); err != nil {
		return nil, fmt.Errorf("add specialist runtime edge start->validate: %w", err)
	}
	if err := graph.AddEdge("validate_task", "act"); err != nil {
		return nil, fmt.Errorf("add specialist runtime edge validate->act: %w", err)
	}
	if err := graph.AddBranch("act", branch); err != nil {
		return nil, fmt.Errorf("add specialist runtime branch: %w", err)
	}
	if err := graph.AddEdge("answer_direct", compose.END); err != nil {
		return nil, fmt.Errorf("add specialist runtime edge answer->end: %w", err)
	}
	if err := graph.AddEdge("finalize", compose.END); err != nil {
		return nil, fmt.Errorf("add specialist runtime edge finalize->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("specialist."+string(domain)+".runtime_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile specialist runtime graph: %w", err)
	}
	return runner, nil
}
