package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	"github.com/tanpawarit/Chative-Genie-Analytics/pkg/genie"
	"github.com/tanpawarit/Chative-Genie-Analytics/pkg/metrics"
)

const (
	ArgQuestion = "question"

	// NoResponseText is returned when a Genie answer has no extractable text.
	NoResponseText = "No response extracted. Check space setup."
)

// QueryClient is the part of the Genie client a tool needs.
type QueryClient interface {
	StartConversationAndWait(ctx context.Context, spaceID string, content string) (*genie.Message, error)
}

var _ QueryClient = (*genie.Client)(nil)

// GenieTool is one Genie space bound to one domain.
type GenieTool struct {
	domain  contractx.Domain
	spaceID string
	client  QueryClient
}

func NewGenieTool(domain contractx.Domain, spaceID string, client QueryClient) (*GenieTool, error) {
	if _, err := contractx.VocabularyFor(domain); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spaceID) == "" {
		return nil, fmt.Errorf("%w: genie space id is required for domain=%s", contractx.ErrValidation, domain)
	}
	if client == nil {
		return nil, fmt.Errorf("%w: genie client is required for domain=%s", contractx.ErrValidation, domain)
	}
	return &GenieTool{
		domain:  domain,
		spaceID: strings.TrimSpace(spaceID),
		client:  client,
	}, nil
}

func (t *GenieTool) Domain() contractx.Domain {
	return t.domain
}

func (t *GenieTool) SpaceID() string {
	return t.spaceID
}

func (t *GenieTool) Name() string {
	return ToolName(t.domain)
}

func (t *GenieTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: toolDescription(t.domain),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			ArgQuestion: {Type: schema.String, Desc: "The question, as a plain string", Required: true},
		}),
	}
}

// Ask sends question to the bound space and returns the extracted text.
func (t *GenieTool) Ask(ctx context.Context, question string) (string, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("domain", string(t.domain)).
		Str("space_id", t.spaceID).
		Logger()

	start := time.Now()
	msg, err := t.client.StartConversationAndWait(ctx, t.spaceID, question)
	metrics.ObserveBackend(string(t.domain), err, time.Since(start))
	if err != nil {
		logger.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("genie query failed")
		return "", fmt.Errorf("query %s genie: %w", t.domain, err)
	}

	text, ok := extractText(msg)
	if !ok {
		metrics.ExtractionFallbacks.WithLabelValues(string(t.domain)).Inc()
		logger.Warn().Str("message_id", msg.ID).Msg("genie answer has no extractable text")
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Int("chars", len(text)).Msg("genie query completed")
	return text, nil
}

// Execute runs a tool call whose arguments follow the question protocol.
func (t *GenieTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	question, err := QuestionFromArgs(args)
	if err != nil {
		return "", err
	}
	return t.Ask(ctx, question)
}

// QuestionFromArgs accepts exactly {"question": "<string>"}.
func QuestionFromArgs(args map[string]any) (string, error) {
	if len(args) != 1 {
		keys := make([]string, 0, len(args))
		for k := range args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: tool args must contain only %q, got %v", contractx.ErrSchemaViolation, ArgQuestion, keys)
	}
	raw, ok := args[ArgQuestion]
	if !ok {
		return "", fmt.Errorf("%w: tool args must contain %q", contractx.ErrSchemaViolation, ArgQuestion)
	}
	question, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a plain string, got %T", contractx.ErrSchemaViolation, ArgQuestion, raw)
	}
	return question, nil
}

// ParseArgs decodes raw tool-call arguments.
func ParseArgs(raw string) (map[string]any, error) {
	args := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: invalid tool args: %v", contractx.ErrSchemaViolation, err)
	}
	return args, nil
}

// ExtractText flattens a Genie answer into display text.
func ExtractText(msg *genie.Message) string {
	text, _ := extractText(msg)
	return text
}

func extractText(msg *genie.Message) (string, bool) {
	if msg == nil {
		return NoResponseText, false
	}

	var b strings.Builder
	if msg.Content != "" {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	for _, att := range msg.Attachments {
		if att.Kind() != "text" || att.Text == nil {
			continue
		}
		b.WriteString(att.Text.Content)
		b.WriteString("\n")
	}

	text := strings.TrimRightFunc(b.String(), unicode.IsSpace)
	if text == "" {
		return NoResponseText, false
	}
	return text, true
}
