package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestVocabularyForReturnsCopy(t *testing.T) {
	t.Parallel()

	v, err := VocabularyFor(DomainSales)
	if err != nil {
		t.Fatalf("VocabularyFor() error = %v", err)
	}
	v.Keywords[0] = "mutated"

	again, _ := VocabularyFor(DomainSales)
	if again.Keywords[0] != "date" {
		t.Fatalf("vocabulary was mutated through accessor: %v", again.Keywords)
	}
}

func TestVocabulariesOrder(t *testing.T) {
	t.Parallel()

	vs := Vocabularies()
	if len(vs) != 2 {
		t.Fatalf("expected 2 vocabularies, got %d", len(vs))
	}
	if vs[0].Domain != DomainSales || vs[1].Domain != DomainCustomer {
		t.Fatalf("unexpected order: %s, %s", vs[0].Domain, vs[1].Domain)
	}
}

func TestParseDomain(t *testing.T) {
	t.Parallel()

	d, err := ParseDomain(" Customer ")
	if err != nil {
		t.Fatalf("ParseDomain() error = %v", err)
	}
	if d != DomainCustomer {
		t.Fatalf("ParseDomain() = %s, want customer", d)
	}
	if _, err := ParseDomain("support"); !errors.Is(err, ErrUnknownDomain) {
		t.Fatalf("expected ErrUnknownDomain, got %v", err)
	}
}

func TestDomainTitle(t *testing.T) {
	t.Parallel()

	if got := DomainSales.Title(); got != "Sales" {
		t.Fatalf("Title() = %q, want Sales", got)
	}
}

func TestBackendErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("route: %w", &BackendError{Domain: DomainCustomer, Err: context.Canceled})

	if !errors.Is(err, ErrBackend) {
		t.Fatal("expected errors.Is(err, ErrBackend)")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	var be *BackendError
	if !errors.As(err, &be) || be.Domain != DomainCustomer {
		t.Fatalf("errors.As() got %+v", be)
	}
}

func TestPlanLabel(t *testing.T) {
	t.Parallel()

	p := Plan{
		Tasks:    []Task{{Domain: DomainSales}, {Domain: DomainCustomer}},
		Fallback: true,
	}
	if got := p.Label(); got != "sales+customer:fallback" {
		t.Fatalf("Label() = %q", got)
	}
}
