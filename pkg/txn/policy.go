package txn

import (
	"slices"

	"github.com/nikmy/txprop/pkg/errors"
)

// Category names a class of expected business outcomes,
// e.g. "payment" for an insufficient balance.
type Category string

// Categorized errors are expected business outcomes. Work done
// before such an error is committed unless the policy says otherwise.
// Every other error is systemic and rolls the transaction back.
type Categorized interface {
	error
	Category() Category
}

// Business marks err as an expected business outcome of the given category.
func Business(err error, category Category) error {
	if err == nil {
		return nil
	}
	return &businessError{err: err, category: category}
}

func IsBusiness(err error) bool {
	var c Categorized
	return errors.As(err, &c)
}

type businessError struct {
	err      error
	category Category
}

func (e *businessError) Error() string {
	return e.err.Error()
}

func (e *businessError) Unwrap() error {
	return e.err
}

func (e *businessError) Category() Category {
	return e.category
}

// Policy chooses the outcome of a unit of work from the error it returned.
// The zero value commits on nil and business errors and rolls back on anything else.
type Policy struct {
	// RollbackOn lists business categories that still force a rollback.
	RollbackOn []Category `yaml:"rollback_on"`

	// RollbackOnErrors does the same for particular errors, matched with errors.Is.
	RollbackOnErrors []error `yaml:"-"`
}

func (p Policy) Outcome(err error) Outcome {
	if err == nil {
		return Commit
	}

	var c Categorized
	if !errors.As(err, &c) {
		return Rollback
	}

	if slices.Contains(p.RollbackOn, c.Category()) {
		return Rollback
	}

	for _, target := range p.RollbackOnErrors {
		if errors.Is(err, target) {
			return Rollback
		}
	}

	return Commit
}

// With returns a copy of p that additionally rolls back on the given categories.
func (p Policy) With(categories ...Category) Policy {
	p.RollbackOn = append(slices.Clip(p.RollbackOn), categories...)
	return p
}

// WithErrors returns a copy of p that additionally rolls back on the given errors.
func (p Policy) WithErrors(targets ...error) Policy {
	p.RollbackOnErrors = append(slices.Clip(p.RollbackOnErrors), targets...)
	return p
}
