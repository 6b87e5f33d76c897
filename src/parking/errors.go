package parking

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrInvalidEntryGate     = errors.New("invalid entry gate ID")
	ErrNoCandidates         = errors.New("no available slots to choose from")
	ErrNegativeDuration     = errors.New("exit time cannot be before entry time")
	ErrLotInactive          = errors.New("parking lot is not available")
	ErrAlreadyParked        = errors.New("vehicle already parked")
	ErrNoSlotAvailable      = errors.New("no available slot")
	ErrAllocationContention = errors.New("unable to allocate slot after maximum retries")
	ErrTicketInactive       = errors.New("ticket is already inactive")
	ErrAlreadySettled       = errors.New("payment already successful for this ticket")
	ErrSlotReleaseFailed    = errors.New("failed to free parking slot after successful payment")
)

// Kind buckets every error the core can return, for translation at the edges.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindPayment
)

// PaymentError marks a settlement attempt that was durably recorded as failed.
// The ticket stays active and the slot stays claimed, so the caller can retry.
type PaymentError struct {
	Reason string
	Err    error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Reason, e.Err.Error())
	}
	return e.Reason
}

func (e *PaymentError) Unwrap() error { return e.Err }

type validationError struct{ err error }

func (e validationError) Error() string { return e.err.Error() }
func (e validationError) Unwrap() error { return e.err }

// Invalid marks err as a client-fault validation error.
func Invalid(err error) error { return validationError{err} }

func Classify(err error) Kind {
	var pe *PaymentError
	var ve validationError
	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &pe):
		return KindPayment
	case errors.As(err, &ve),
		errors.Is(err, ErrInvalidEntryGate),
		errors.Is(err, ErrNoCandidates),
		errors.Is(err, ErrNegativeDuration):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyParked),
		errors.Is(err, ErrNoSlotAvailable),
		errors.Is(err, ErrAllocationContention),
		errors.Is(err, ErrTicketInactive),
		errors.Is(err, ErrAlreadySettled),
		errors.Is(err, ErrLotInactive):
		return KindConflict
	}
	return KindInternal
}
