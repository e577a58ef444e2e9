package contract

import (
	"errors"
	"fmt"
)

var (
	ErrBackend         = errors.New("domain backend failed")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrUnknownDomain   = errors.New("unknown domain")
)

func UnknownDomain(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownDomain, name)
}

// BackendError reports which domain agent failed while answering a plan.
type BackendError struct {
	Domain Domain
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s agent: %v", e.Domain, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}
