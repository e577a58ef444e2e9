package specialist

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	llmx "github.com/tanpawarit/Chative-Genie-Analytics/agent/llm"
	promptx "github.com/tanpawarit/Chative-Genie-Analytics/agent/prompt"
	toolx "github.com/tanpawarit/Chative-Genie-Analytics/agent/tool"
)

type Mode string

const (
	ModeDirect Mode = "direct"
	ModeLLM    Mode = "llm"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeDirect:
		return ModeDirect, nil
	case ModeLLM:
		return ModeLLM, nil
	default:
		return "", fmt.Errorf("%w: unknown agent mode %q", contractx.ErrValidation, s)
	}
}

type registryImpl struct {
	sales    contractx.Specialist
	customer contractx.Specialist
}

func (r *registryImpl) Sales() contractx.Specialist {
	return r.sales
}

func (r *registryImpl) Customer() contractx.Specialist {
	return r.customer
}

func (r *registryImpl) For(d contractx.Domain) (contractx.Specialist, error) {
	switch d {
	case contractx.DomainSales:
		return r.sales, nil
	case contractx.DomainCustomer:
		return r.customer, nil
	default:
		return nil, contractx.UnknownDomain(string(d))
	}
}

// NewRegistry pairs two prebuilt specialists, checking each serves the
// domain it is registered under.
func NewRegistry(sales, customer contractx.Specialist) (contractx.Registry, error) {
	if sales == nil || sales.Domain() != contractx.DomainSales {
		return nil, fmt.Errorf("%w: sales slot needs a sales specialist", contractx.ErrValidation)
	}
	if customer == nil || customer.Domain() != contractx.DomainCustomer {
		return nil, fmt.Errorf("%w: customer slot needs a customer specialist", contractx.ErrValidation)
	}
	return &registryImpl{sales: sales, customer: customer}, nil
}

func NewDirectRegistry(sales, customer *toolx.GenieTool) (contractx.Registry, error) {
	salesSpec, err := newDirectSpecialist(sales)
	if err != nil {
		return nil, err
	}
	customerSpec, err := newDirectSpecialist(customer)
	if err != nil {
		return nil, err
	}
	return NewRegistry(salesSpec, customerSpec)
}

func NewLLMRegistry(ctx context.Context, cfg llmx.Config, sales, customer *toolx.GenieTool) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sales == nil || customer == nil {
		return nil, fmt.Errorf("%w: both genie tools are required", contractx.ErrValidation)
	}

	prompts := promptx.LoadPromptSet()

	build := func(tool *toolx.GenieTool) (contractx.Specialist, error) {
		domain := tool.Domain()
		modelCfg := cfg.OpenRouterFor(domain)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, domain, err)
		}
		persona, err := prompts.Persona(domain)
		if err != nil {
			return nil, err
		}
		return newLLMSpecialist(ctx, tool, chatModel, persona)
	}

	salesSpec, err := build(sales)
	if err != nil {
		return nil, err
	}
	customerSpec, err := build(customer)
	if err != nil {
		return nil, err
	}
	return NewRegistry(salesSpec, customerSpec)
}
