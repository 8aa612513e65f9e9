/*
errors.go - Centralized error types for the vacation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context; the HTTP layer
  maps them to status codes with errors.Is / errors.As.

ERROR CATEGORIES:
  1. InvalidInput        - Bad or missing dates, days, references
  2. InsufficientBalance - Debit allocation left a remainder
  3. InvalidTransition   - Request status change not allowed
  4. NotEligible         - Tenure below the minimum
  5. NotFound            - Unknown employee or request

USAGE:
  if errors.Is(err, generic.ErrInsufficientBalance) {
      var balErr *generic.InsufficientBalanceError
      errors.As(err, &balErr)
      fmt.Println(balErr.Available)
  }

SEE ALSO:
  - allocation.go: Produces the remainder behind InsufficientBalance
  - request.go: Produces InvalidTransition
  - api/handlers.go: Maps errors to HTTP responses
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed dates, day counts or references.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientBalance is returned when a debit exceeds available days.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidTransition is returned when a request cannot move to the target status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotEligible is returned when the employee has not reached minimum tenure.
	ErrNotEligible = errors.New("not eligible for vacation")

	// ErrNotFound is returned when a referenced employee or request doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the actor may not act on the target.
	ErrForbidden = errors.New("forbidden")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	Available Amount
	Requested Amount
	Shortfall Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %v, requested %v, shortfall %v",
		e.Available.Value, e.Requested.Value, e.Shortfall.Value)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// InvalidTransitionError explains the current state of a request.
type InvalidTransitionError struct {
	From RequestStatus
	To   RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move request from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// NotEligibleError reports when the employee becomes eligible.
type NotEligibleError struct {
	MonthsEmployed int
	MinimumMonths  int
	EligibleAt     TimePoint
	DaysRemaining  int
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("not eligible: %d of %d months employed, eligible on %s (%d days)",
		e.MonthsEmployed, e.MinimumMonths, e.EligibleAt, e.DaysRemaining)
}

func (e *NotEligibleError) Unwrap() error {
	return ErrNotEligible
}

// NotFoundError identifies the missing entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewInsufficientBalance builds the error from an unsatisfied allocation.
func NewInsufficientBalance(available, requested Amount) *InsufficientBalanceError {
	return &InsufficientBalanceError{
		Available: available,
		Requested: requested,
		Shortfall: requested.Sub(available).NonNegative(),
	}
}

// NewNotEligible computes the eligibility date from hire date and minimum tenure.
func NewNotEligible(hire, asOf TimePoint, minMonths int) *NotEligibleError {
	eligibleAt := hire.AddMonths(minMonths)
	remaining := DaysBetween(asOf, eligibleAt)
	if remaining < 0 {
		remaining = 0
	}
	return &NotEligibleError{
		MonthsEmployed: MonthsBetween(hire, asOf),
		MinimumMonths:  minMonths,
		EligibleAt:     eligibleAt,
		DaysRemaining:  remaining,
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrNotEligible)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error is a status conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
