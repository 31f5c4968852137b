package errors

import (
	"strconv"
	"strings"
)

// MultipleErrors collects the errors of a stage that keeps going after the first
// failure, so one run reports every bad directive at once.
type MultipleErrors struct {
	Errors []KnockoffError
}

func (e *MultipleErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}

	var b strings.Builder
	b.WriteString("multiple errors (" + strconv.Itoa(len(e.Errors)) + " total):")
	for i, err := range e.Errors {
		b.WriteString("\n  " + strconv.Itoa(i+1) + ". " + err.Error())
	}
	return b.String()
}

// Unwrap exposes every collected error to Is and As
func (e *MultipleErrors) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		errs = append(errs, err)
	}
	return errs
}

// Add appends err
func (e *MultipleErrors) Add(err KnockoffError) {
	e.Errors = append(e.Errors, err)
}

// ErrOrNil returns nil for a nil or empty collection
func (e *MultipleErrors) ErrOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// AddToMultiple appends err to *multiple, allocating the collection on first use
func AddToMultiple(multiple **MultipleErrors, err KnockoffError) {
	if *multiple == nil {
		*multiple = &MultipleErrors{}
	}
	(*multiple).Add(err)
}
