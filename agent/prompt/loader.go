package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
)

var (
	//go:embed template/sales.txt
	salesRaw string

	//go:embed template/customer.txt
	customerRaw string

	//go:embed template/genie_instruction.txt
	genieInstructionRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Sales    string
	Customer string

	// GenieInstruction is appended to every task description as-is; it is
	// not trimmed.
	GenieInstruction string
}

// LoadPromptSet returns a PromptSet with trimmed persona prompts.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Sales:            strings.TrimSpace(salesRaw),
		Customer:         strings.TrimSpace(customerRaw),
		GenieInstruction: genieInstructionRaw,
	}
}

// GenieInstruction returns the tool-argument protocol text.
func GenieInstruction() string {
	return genieInstructionRaw
}

// Persona returns the system prompt for a domain agent.
func (p PromptSet) Persona(d contractx.Domain) (string, error) {
	var out string
	switch d {
	case contractx.DomainSales:
		out = p.Sales
	case contractx.DomainCustomer:
		out = p.Customer
	default:
		return "", contractx.UnknownDomain(string(d))
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: persona for domain=%s", contractx.ErrPromptMissing, d)
	}
	return out, nil
}
