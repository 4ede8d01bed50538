package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrNotFound is returned when a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when a caller cannot be authenticated
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrForbidden is returned when an authenticated caller does not own the resource
type ErrForbidden struct {
	Message string
}

func (e *ErrForbidden) Error() string {
	return e.Message
}

// ErrValidation is returned for input rejected before any write
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrInvalidStateTransition is returned when a status change is not allowed
type ErrInvalidStateTransition struct {
	From string
	To   string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

var (
	// ErrManualRefundRequired means the order was not paid through the supported gateway
	ErrManualRefundRequired = stderrors.New("order was not paid via razorpay; refund must be processed manually")

	// ErrGateway wraps failures reported by the payment gateway
	ErrGateway = stderrors.New("payment gateway error")

	// ErrNoNotification means the current status has no customer email
	ErrNoNotification = stderrors.New("no notification defined for current status")

	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = stderrors.New("duplicate record")
)

// IsNotFound reports whether err is or wraps an ErrNotFound
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return stderrors.As(err, &nf)
}

// Is and As are re-exported so callers importing this package need not alias the standard one.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
