package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
)

func TestOpenRouterForOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:              " key ",
		Model:               "openai/gpt-4o-mini",
		Temperature:         0.2,
		MaxCompletionToken:  512,
		SalesModel:          "anthropic/claude-3.5-haiku",
		SalesTemperature:    0,
		CustomerTemperature: -1,
	}

	sales := cfg.OpenRouterFor(contractx.DomainSales)
	if sales.Model != "anthropic/claude-3.5-haiku" {
		t.Fatalf("sales model = %q", sales.Model)
	}
	if sales.Temperature != 0 {
		t.Fatalf("sales temperature = %v, want 0", sales.Temperature)
	}
	if sales.APIKey != "key" {
		t.Fatalf("api key not trimmed: %q", sales.APIKey)
	}

	customer := cfg.OpenRouterFor(contractx.DomainCustomer)
	if customer.Model != "openai/gpt-4o-mini" {
		t.Fatalf("customer model = %q", customer.Model)
	}
	if customer.Temperature != 0.2 {
		t.Fatalf("customer temperature = %v, want default", customer.Temperature)
	}
	if customer.MaxCompletionToken == nil || *customer.MaxCompletionToken != 512 {
		t.Fatalf("unexpected max tokens: %v", customer.MaxCompletionToken)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation without api key, got %v", err)
	}
	if err := (Config{APIKey: "k"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation without model, got %v", err)
	}
	if err := (Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
