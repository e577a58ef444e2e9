package contract

import "strings"

type Domain string

const (
	DomainSales    Domain = "sales"
	DomainCustomer Domain = "customer"
)

// Domains returns every known domain in routing order.
func Domains() []Domain {
	return []Domain{DomainSales, DomainCustomer}
}

func ParseDomain(s string) (Domain, error) {
	switch d := Domain(strings.ToLower(strings.TrimSpace(s))); d {
	case DomainSales, DomainCustomer:
		return d, nil
	default:
		return "", UnknownDomain(s)
	}
}

// Title is the capitalised name used in task framing, e.g. "Sales".
func (d Domain) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Task is a single delegation to one domain agent.
type Task struct {
	Domain         Domain `json:"domain"`
	Question       string `json:"question"`
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output"`
	Fallback       bool   `json:"fallback"`
}

// Plan is the ordered list of tasks produced for a question. It always holds
// at least one task.
type Plan struct {
	Tasks    []Task `json:"tasks"`
	Fallback bool   `json:"fallback"`
}

func (p Plan) Domains() []Domain {
	out := make([]Domain, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		out = append(out, t.Domain)
	}
	return out
}

// Label is a short tag for logs and metrics, e.g. "sales+customer".
func (p Plan) Label() string {
	parts := make([]string, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		parts = append(parts, string(t.Domain))
	}
	label := strings.Join(parts, "+")
	if p.Fallback {
		label += ":fallback"
	}
	return label
}

type Fragment struct {
	Domain Domain `json:"domain"`
	Text   string `json:"text"`
}

type Answer struct {
	Text      string     `json:"text"`
	Fragments []Fragment `json:"fragments"`
	Fallback  bool       `json:"fallback"`
}

func (a Answer) Domains() []Domain {
	out := make([]Domain, 0, len(a.Fragments))
	for _, f := range a.Fragments {
		out = append(out, f.Domain)
	}
	return out
}
