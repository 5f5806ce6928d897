/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBatchTooLarge indicates a batch holds more candidates than allowed.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")

	// ErrNoFeasibleDate indicates the search window held no day satisfying
	// capacity and gap constraints for a candidate.
	ErrNoFeasibleDate = errors.New("no feasible date within horizon")

	// ErrInvariantViolation indicates the engine produced an inconsistent
	// schedule. It is a programming defect, never a user-facing condition.
	ErrInvariantViolation = errors.New("scheduling invariant violated")

	// ErrInvalidConfig indicates scheduler parameters are unusable.
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

// ReasonNoFeasibleDate is the rejection reason recorded for matches that could not be placed.
var ReasonNoFeasibleDate = ErrNoFeasibleDate.Error()

// Problem is one defect found in a submitted batch. Index is the candidate's
// position in the submitted batch, or -1 for batch-level problems.
type Problem struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Index < 0 {
		return fmt.Sprintf("%s: %s", p.Field, p.Message)
	}
	return fmt.Sprintf("candidate %d: %s: %s", p.Index, p.Field, p.Message)
}

// ValidationError rejects a whole batch before any scheduling state is touched.
type ValidationError struct {
	Problems []Problem
	// Cause is set for problems that have a sentinel, e.g. ErrBatchTooLarge.
	Cause error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvariantError reports the violations found after a run. It unwraps to ErrInvariantViolation.
type InvariantError struct {
	Violations []Violation
}

func (e *InvariantError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Rule, v.Message))
	}
	return fmt.Sprintf("%s: %s", ErrInvariantViolation, strings.Join(parts, "; "))
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}
