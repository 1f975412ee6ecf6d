// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound marks lookups for wagon types or projects that do not
// exist. Wrapped by repositories with the missing key.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEntry marks an append for a (project, date) that already
// has a committed entry and was not flagged as a replacement.
var ErrDuplicateEntry = errors.New("ledger entry already exists for this date")

// ErrInvalidConfig marks a wagon-type config rejected by validation.
var ErrInvalidConfig = errors.New("invalid wagon type config")

// InvalidQuantityError reports a negative or non-integer quantity at
// the ingestion boundary. Bad input is rejected, never coerced to zero.
type InvalidQuantityError struct {
	Field string
	Value int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for %q", e.Value, e.Field)
}

// UnknownPartReferenceError reports a stage usage entry that names a
// part absent from the config's parts list.
type UnknownPartReferenceError struct {
	Stage string
	Part  string
}

func (e *UnknownPartReferenceError) Error() string {
	return fmt.Sprintf("stage %q references unknown part %q", e.Stage, e.Part)
}

// UnknownStageError reports a ledger entry that completed a stage the
// wagon type's config does not define. Projection halts on this rather
// than silently skipping the consumption.
type UnknownStageError struct {
	Stage string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %q", e.Stage)
}

// NegativeBalanceError reports every part a candidate entry would
// drive below zero, so one corrective resubmission is possible.
type NegativeBalanceError struct {
	Parts []string
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("entry would drive parts negative: %s", strings.Join(e.Parts, ", "))
}
