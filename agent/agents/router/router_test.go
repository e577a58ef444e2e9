package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	specialistx "github.com/tanpawarit/Chative-Genie-Analytics/agent/agents/specialist"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	toolx "github.com/tanpawarit/Chative-Genie-Analytics/agent/tool"
	"github.com/tanpawarit/Chative-Genie-Analytics/pkg/genie"
)

type fakeSpecialist struct {
	domain contractx.Domain
	text   string
	err    error
	calls  int
	tasks  []contractx.Task
}

func (f *fakeSpecialist) Domain() contractx.Domain {
	return f.domain
}

func (f *fakeSpecialist) Invoke(ctx context.Context, task contractx.Task) (string, error) {
	f.calls++
	f.tasks = append(f.tasks, task)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeRegistry struct {
	sales    *fakeSpecialist
	customer *fakeSpecialist
}

func (r *fakeRegistry) Sales() contractx.Specialist {
	return r.sales
}

func (r *fakeRegistry) Customer() contractx.Specialist {
	return r.customer
}

func (r *fakeRegistry) For(d contractx.Domain) (contractx.Specialist, error) {
	switch d {
	case contractx.DomainSales:
		return r.sales, nil
	case contractx.DomainCustomer:
		return r.customer, nil
	default:
		return nil, contractx.UnknownDomain(string(d))
	}
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		sales:    &fakeSpecialist{domain: contractx.DomainSales, text: "Sales: West leads."},
		customer: &fakeSpecialist{domain: contractx.DomainCustomer, text: "Customers: SMB churns most."},
	}
}

func mustRouter(t *testing.T, reg contractx.Registry, opts ...Option) *Router {
	t.Helper()
	r, err := New(reg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestRouteSalesKeywordOnly(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	r := mustRouter(t, reg)

	answer, err := r.Route(context.Background(), "Show me revenue by product category")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if answer.Text != "Sales: West leads." {
		t.Fatalf("unexpected answer: %q", answer.Text)
	}
	if answer.Fallback {
		t.Fatal("expected direct routing")
	}
	if reg.sales.calls != 1 || reg.customer.calls != 0 {
		t.Fatalf("unexpected calls sales=%d customer=%d", reg.sales.calls, reg.customer.calls)
	}
}

func TestRouteSegmentChurnGoesToCustomerOnly(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	r := mustRouter(t, reg)

	answer, err := r.Route(context.Background(), "Which segment has highest churn?")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if answer.Text != "Customers: SMB churns most." {
		t.Fatalf("unexpected answer: %q", answer.Text)
	}
	if reg.sales.calls != 0 || reg.customer.calls != 1 {
		t.Fatalf("unexpected calls sales=%d customer=%d", reg.sales.calls, reg.customer.calls)
	}
}

func TestRouteRegionGoesToBothInOrder(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"region", "What were Q3 sales by region?"} {
		reg := newFakeRegistry()
		r := mustRouter(t, reg)

		answer, err := r.Route(context.Background(), q)
		if err != nil {
			t.Fatalf("Route(%q) error = %v", q, err)
		}
		want := "Sales: West leads.\n\nCustomers: SMB churns most."
		if answer.Text != want {
			t.Fatalf("Route(%q) = %q, want %q", q, answer.Text, want)
		}
		if answer.Fallback {
			t.Fatalf("Route(%q) must not be a fallback", q)
		}
		if len(answer.Fragments) != 2 || answer.Fragments[0].Domain != contractx.DomainSales {
			t.Fatalf("unexpected fragments: %+v", answer.Fragments)
		}
	}
}

func TestRouteFallbackAsksBoth(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"hello", "", "   "} {
		reg := newFakeRegistry()
		r := mustRouter(t, reg)

		answer, err := r.Route(context.Background(), q)
		if err != nil {
			t.Fatalf("Route(%q) error = %v", q, err)
		}
		if !answer.Fallback {
			t.Fatalf("Route(%q) must be a fallback", q)
		}
		if reg.sales.calls != 1 || reg.customer.calls != 1 {
			t.Fatalf("Route(%q) calls sales=%d customer=%d", q, reg.sales.calls, reg.customer.calls)
		}
		if !reg.sales.tasks[0].Fallback || !reg.customer.tasks[0].Fallback {
			t.Fatalf("Route(%q) tasks must be framed as fallback", q)
		}
	}
}

func TestRouteIsIdempotent(t *testing.T) {
	t.Parallel()

	r := mustRouter(t, newFakeRegistry())

	first, err := r.Route(context.Background(), "revenue by segment")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	second, err := r.Route(context.Background(), "revenue by segment")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if first.Text != second.Text {
		t.Fatalf("answers differ: %q vs %q", first.Text, second.Text)
	}
}

func TestRouteCustomerFailureDiscardsSalesAnswer(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	reg.customer.err = errors.New("customer space unavailable")
	r := mustRouter(t, reg)

	answer, err := r.Route(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if answer.Text != "" || len(answer.Fragments) != 0 {
		t.Fatalf("partial answer must be discarded, got %+v", answer)
	}
	if reg.sales.calls != 1 {
		t.Fatalf("sales must have run first, calls=%d", reg.sales.calls)
	}

	var be *contractx.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BackendError, got %T", err)
	}
	if be.Domain != contractx.DomainCustomer {
		t.Fatalf("unexpected failing domain: %s", be.Domain)
	}
	if !errors.Is(err, contractx.ErrBackend) {
		t.Fatal("expected errors.Is(err, ErrBackend)")
	}
}

func TestRouteParallel(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	r := mustRouter(t, reg, WithParallel(true))

	answer, err := r.Route(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if answer.Text != "Sales: West leads.\n\nCustomers: SMB churns most." {
		t.Fatalf("unexpected answer: %q", answer.Text)
	}
}

type emptyGenie struct{}

func (emptyGenie) StartConversationAndWait(context.Context, string, string) (*genie.Message, error) {
	return &genie.Message{ID: "m1", Status: genie.StatusCompleted}, nil
}

func TestRouteExtractionFallbackIsAnAnswer(t *testing.T) {
	t.Parallel()

	salesTool, err := toolx.NewGenieTool(contractx.DomainSales, "space-sales", emptyGenie{})
	if err != nil {
		t.Fatalf("NewGenieTool() error = %v", err)
	}
	customerTool, err := toolx.NewGenieTool(contractx.DomainCustomer, "space-customer", emptyGenie{})
	if err != nil {
		t.Fatalf("NewGenieTool() error = %v", err)
	}
	reg, err := specialistx.NewDirectRegistry(salesTool, customerTool)
	if err != nil {
		t.Fatalf("NewDirectRegistry() error = %v", err)
	}

	answer, err := mustRouter(t, reg).Route(context.Background(), "revenue")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if answer.Text != toolx.NoResponseText {
		t.Fatalf("unexpected answer: %q", answer.Text)
	}
}

func TestBuildPlanMatchesRoute(t *testing.T) {
	t.Parallel()

	for q, want := range map[string]string{
		"revenue by date":       "sales",
		"lifetime_value":        "customer",
		"regional segment data": "sales+customer",
		"hi there":              "sales+customer:fallback",
	} {
		if got := BuildPlan(q).Label(); got != want {
			t.Fatalf("BuildPlan(%q).Label() = %q, want %q", q, got, want)
		}
	}
}

func TestNewRequiresRegistry(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil registry")
	}
}

func ExampleBuildPlan() {
	plan := BuildPlan("Which segment has highest churn?")
	for _, task := range plan.Tasks {
		fmt.Println(task.Domain, task.ExpectedOutput)
	}
	// Output: customer Detailed customer insights based on the query
}
