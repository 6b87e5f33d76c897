package parking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pms/src/models"
	"pms/src/types"
)

const exitSuccessMessage = "Vehicle successfully exited. Payment processed and slot freed."

type ExitResult struct {
	Payment *models.Payment `json:"payment"`
	Receipt *models.Receipt `json:"receipt"`
	Message string          `json:"message"`
}

// Settler is the payment-gated release step. A failed attempt is durably
// recorded and leaves the ticket active and the slot claimed; only a
// validated, gateway-approved payment closes the ticket and frees the slot,
// all inside one atomic unit.
type Settler struct {
	stores   Stores
	rates    RateLookup
	gateway  PaymentGateway
	numberer ReceiptNumberer

	// now is swappable for tests.
	now func() time.Time
}

func NewSettler(stores Stores, rates RateLookup, gateway PaymentGateway, numberer ReceiptNumberer) *Settler {
	return &Settler{
		stores:   stores,
		rates:    rates,
		gateway:  gateway,
		numberer: numberer,
		now:      time.Now,
	}
}

func (s *Settler) Settle(ctx context.Context, ticketID uint, amount float64) (*ExitResult, error) {
	ticket, err := s.stores.Tickets().FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.Active {
		return nil, ErrTicketInactive
	}

	exitTime := s.now()
	durationMinutes, err := DurationMinutes(ticket.EntryTime, exitTime)
	if err != nil {
		return nil, err
	}

	if ticket.Vehicle == nil {
		// The stores resolve tickets with their vehicle attached; a hole
		// here means the data is inconsistent, not that the rate is CAR.
		return nil, fmt.Errorf("ticket %d has no vehicle attached", ticket.ID)
	}
	hourlyRate := s.rates.RateFor(ticket.Vehicle.Type)
	calculatedAmount := ChargeAmount(durationMinutes, hourlyRate)

	if !AmountMatches(amount, calculatedAmount) {
		reason := fmt.Sprintf("Payment amount mismatch. Expected: %.2f, Received: %.2f", calculatedAmount, amount)
		s.recordFailure(ctx, ticket.ID, amount, exitTime, reason)
		return nil, &PaymentError{Reason: reason}
	}

	gatewayRef, err := s.gateway.Charge(ctx, amount, ticket)
	if err != nil {
		reason := "Payment gateway processing failed"
		s.recordFailure(ctx, ticket.ID, amount, exitTime, fmt.Sprintf("%s: %s", reason, err.Error()))
		return nil, &PaymentError{Reason: reason, Err: err}
	}

	var payment *models.Payment
	var receipt *models.Receipt
	err = s.stores.Atomic(ctx, func(st Stores) error {
		closed, err := st.Tickets().Close(ctx, ticket.ID, exitTime)
		if err != nil {
			return err
		}
		if !closed {
			// A concurrent settlement won the race.
			return ErrTicketInactive
		}

		payment = &models.Payment{
			TicketID:   ticket.ID,
			Amount:     amount,
			Timestamp:  exitTime,
			Status:     types.PAYMENT_PAID,
			GatewayRef: &gatewayRef,
		}
		if err := st.Payments().Create(ctx, payment); err != nil {
			return err
		}

		number, err := s.numberer.Next(ctx)
		if err != nil {
			return err
		}
		receipt = &models.Receipt{
			ReceiptNumber:   number,
			TicketID:        ticket.ID,
			Amount:          calculatedAmount,
			HourlyRate:      hourlyRate,
			DurationMinutes: durationMinutes,
			GeneratedAt:     exitTime,
		}
		if err := st.Receipts().Create(ctx, receipt); err != nil {
			return err
		}

		released, err := st.Slots().TryRelease(ctx, ticket.SlotID)
		if err != nil {
			return err
		}
		if !released {
			// Should be unreachable under the single-writer-per-ticket
			// discipline; surfacing it beats silently losing a slot.
			return fmt.Errorf("%w: slot %d", ErrSlotReleaseFailed, ticket.SlotID)
		}
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, ticket.ID, amount, exitTime, fmt.Sprintf("Payment processing exception: %s", err.Error()))
		return nil, err
	}

	ticket.ExitTime = &exitTime
	ticket.Active = false
	return &ExitResult{Payment: payment, Receipt: receipt, Message: exitSuccessMessage}, nil
}

// RetrySettle re-runs a settlement for a ticket whose prior attempts failed.
func (s *Settler) RetrySettle(ctx context.Context, ticketID uint, amount float64) (*ExitResult, error) {
	paid, err := s.stores.Payments().HasPaid(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, ErrAlreadySettled
	}
	return s.Settle(ctx, ticketID, amount)
}

func (s *Settler) recordFailure(ctx context.Context, ticketID uint, amount float64, at time.Time, reason string) {
	failed := &models.Payment{
		TicketID:      ticketID,
		Amount:        amount,
		Timestamp:     at,
		Status:        types.PAYMENT_FAILED,
		FailureReason: &reason,
	}
	if err := s.stores.Payments().Create(ctx, failed); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Error recording failed payment for ticket %d: %s\n", ticketID, err.Error())
	}
}
