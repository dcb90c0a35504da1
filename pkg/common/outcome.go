package common

import (
	"errors"
	"fmt"
)

// OutcomeKind tags a resolution outcome.
type OutcomeKind int

const (
	OutcomeAbsent OutcomeKind = iota
	OutcomeFound
	OutcomeExternalFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeAbsent:
		return "absent"
	case OutcomeExternalFailure:
		return "external_failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one resolution attempt: Found carries a record,
// Absent means the source has nothing for the request, ExternalFailure
// carries the error of the call that failed. The zero value is Absent.
type Outcome[T any] struct {
	Kind   OutcomeKind
	Record T
	Err    error
}

func Found[T any](record T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeFound, Record: record}
}

func Absent[T any]() Outcome[T] {
	return Outcome[T]{Kind: OutcomeAbsent}
}

func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeExternalFailure, Err: err}
}

// IsFound reports whether the outcome carries a record.
func (o Outcome[T]) IsFound() bool {
	return o.Kind == OutcomeFound
}

// ExternalError marks a failed call to an external collaborator (primary
// store, triple-store or external API). It is swallowed at the call site and
// surfaces as missing data, never as a failed request.
type ExternalError struct {
	Source string
	Err    error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

// External wraps err as an ExternalError for source. A nil err stays nil.
func External(source string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalError{Source: source, Err: err}
}

// IsExternal reports whether err is, or wraps, an ExternalError.
func IsExternal(err error) bool {
	var ext *ExternalError
	return errors.As(err, &ext)
}
