package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	toolx "github.com/tanpawarit/Chative-Genie-Analytics/agent/tool"
)

// directSpecialist calls its Genie tool with the task question and nothing else.
type directSpecialist struct {
	tool *toolx.GenieTool
}

var _ contractx.Specialist = (*directSpecialist)(nil)

func newDirectSpecialist(tool *toolx.GenieTool) (*directSpecialist, error) {
	if tool == nil {
		return nil, fmt.Errorf("%w: genie tool is required", contractx.ErrValidation)
	}
	return &directSpecialist{tool: tool}, nil
}

func (s *directSpecialist) Domain() contractx.Domain {
	return s.tool.Domain()
}

func (s *directSpecialist) Invoke(ctx context.Context, task contractx.Task) (string, error) {
	if task.Domain != s.tool.Domain() {
		return "", fmt.Errorf("%w: task for domain=%s sent to %s agent", contractx.ErrValidation, task.Domain, s.tool.Domain())
	}
	return s.tool.Execute(ctx, map[string]any{toolx.ArgQuestion: task.Question})
}

// llmSpecialist lets a chat model decide how to phrase the Genie call and
// then writes the final fragment from the tool output.
type llmSpecialist struct {
	domain         contractx.Domain
	toolRunner     compose.Runnable[map[string]any, *schema.Message]
	finalizeRunner compose.Runnable[map[string]any, *schema.Message]
	runtimeRunner  compose.Runnable[contractx.Task, string]
	executor       toolx.Executor
}

var _ contractx.Specialist = (*llmSpecialist)(nil)

func newLLMSpecialist(
	ctx context.Context,
	tool *toolx.GenieTool,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
) (*llmSpecialist, error) {
	if tool == nil {
		return nil, fmt.Errorf("%w: genie tool is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: system prompt for domain=%s", contractx.ErrPromptMissing, tool.Domain())
	}
	domain := tool.Domain()

	infos, executor := toolx.BuildForDomain(tool)
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for specialist=%s: %v", contractx.ErrModelInvoke, domain, err)
	}
	toolRunner, err := compileChatGraph(ctx, toolModel, systemPrompt, "specialist."+string(domain)+".tool_planning_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile tool planning graph: %v", contractx.ErrModelInvoke, err)
	}
	finalizeRunner, err := compileChatGraph(ctx, chatModel, systemPrompt, "specialist."+string(domain)+".finalize_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile finalize graph: %v", contractx.ErrModelInvoke, err)
	}

	spec := &llmSpecialist{
		domain:         domain,
		toolRunner:     toolRunner,
		finalizeRunner: finalizeRunner,
		executor:       executor,
	}

	runtimeRunner, err := compileSpecialistRuntimeGraph(ctx, domain, spec.runAct, spec.runFinalize)
	if err != nil {
		return nil, fmt.Errorf("%w: compile specialist runtime graph: %v", contractx.ErrModelInvoke, err)
	}
	spec.runtimeRunner = runtimeRunner

	return spec, nil
}

func (s *llmSpecialist) Domain() contractx.Domain {
	return s.domain
}

func (s *llmSpecialist) Invoke(ctx context.Context, task contractx.Task) (string, error) {
	out, err := s.runtimeRunner.Invoke(ctx, task)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (s *llmSpecialist) runAct(ctx context.Context, task contractx.Task) (*specialistGraphState, error) {
	payload := map[string]any{
		"mode":            "act",
		"task":            task.Description,
		"expected_output": task.ExpectedOutput,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal tool planning payload: %v", contractx.ErrValidation, err)
	}

	msg, err := s.toolRunner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tool planning invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: empty tool planning response", contractx.ErrSchemaViolation)
	}

	state := &specialistGraphState{
		Task:    task,
		Content: strings.TrimSpace(msg.Content),
	}

	logger := zerolog.Ctx(ctx)
	for _, call := range msg.ToolCalls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}
		args, err := toolx.ParseArgs(call.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("tool=%s: %w", name, err)
		}
		question, err := toolx.QuestionFromArgs(args)
		if err != nil {
			return nil, fmt.Errorf("tool=%s: %w", name, err)
		}

		logger.Debug().Str("domain", string(s.domain)).Str("tool", name).Str("question", question).Msg("specialist tool call")

		// Backend errors are returned as-is so callers can inspect them.
		result, err := s.executor(ctx, name, args)
		if err != nil {
			return nil, err
		}
		state.Observations = append(state.Observations, observation{
			Tool:     name,
			Question: question,
			Result:   result,
		})
	}

	return state, nil
}

func (s *llmSpecialist) runFinalize(ctx context.Context, state *specialistGraphState) (string, error) {
	if state == nil {
		return "", fmt.Errorf("%w: specialist graph state is nil", contractx.ErrValidation)
	}

	payload := map[string]any{
		"mode":            "finalize",
		"question":        state.Task.Question,
		"expected_output": state.Task.ExpectedOutput,
		"tool_results":    state.Observations,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal finalize payload: %v", contractx.ErrValidation, err)
	}

	msg, err := s.finalizeRunner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return "", fmt.Errorf("%w: finalize invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: finalize message is empty", contractx.ErrSchemaViolation)
	}
	return strings.TrimSpace(msg.Content), nil
}
