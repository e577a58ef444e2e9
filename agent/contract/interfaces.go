package contract

import "context"

// Specialist answers a task for exactly one domain.
type Specialist interface {
	Domain() Domain
	Invoke(ctx context.Context, task Task) (string, error)
}

type Registry interface {
	Sales() Specialist
	Customer() Specialist
	For(d Domain) (Specialist, error)
}
