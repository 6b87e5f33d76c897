package parking_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pms/src/models"
	"pms/src/parking"
	"pms/src/stores/memory"
	"pms/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqNumberer struct {
	n atomic.Int64
}

func (s *seqNumberer) Next(context.Context) (string, error) {
	return fmt.Sprintf("RCP-%08d", s.n.Add(1)), nil
}

type settleHarness struct {
	stores    *memory.Stores
	gate      models.EntryGate
	allocator *parking.Allocator
	settler   *parking.Settler
}

func newSettleHarness(t *testing.T, gateway parking.PaymentGateway) *settleHarness {
	t.Helper()
	m, gate := seedLot(t)
	return &settleHarness{
		stores:    m,
		gate:      gate,
		allocator: newAllocator(m),
		settler:   parking.NewSettler(m, parking.RateTable{}, gateway, &seqNumberer{}),
	}
}

func (h *settleHarness) park(t *testing.T, plateNo, vehicleType string) *models.Ticket {
	t.Helper()
	h.stores.AddSlot(models.ParkingSlot{SlotType: types.VehicleType(vehicleType), Available: true, ParkingLotID: h.gate.ParkingLotID})
	ticket, err := h.allocator.Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     plateNo,
		VehicleType: vehicleType,
		EntryGateID: h.gate.ID,
	})
	require.NoError(t, err)
	return ticket
}

func TestSettleHappyPath(t *testing.T) {
	h := newSettleHarness(t, parking.NewSimulatedGateway(0, 0))
	ticket := h.park(t, "KA-05-0001", "CAR")

	result, err := h.settler.Settle(context.Background(), ticket.ID, 2.0)
	require.NoError(t, err)
	require.NotNil(t, result.Payment)
	require.NotNil(t, result.Receipt)
	assert.NotEmpty(t, result.Message)

	assert.Equal(t, types.PAYMENT_PAID, result.Payment.Status)
	assert.NotNil(t, result.Payment.GatewayRef)
	assert.True(t, strings.HasPrefix(result.Receipt.ReceiptNumber, "RCP-"))
	assert.Equal(t, 2.0, result.Receipt.Amount)
	assert.Equal(t, 2.0, result.Receipt.HourlyRate)
	assert.Equal(t, int64(0), result.Receipt.DurationMinutes)

	stored, ok := h.stores.Ticket(ticket.ID)
	require.True(t, ok)
	assert.False(t, stored.Active)
	require.NotNil(t, stored.ExitTime)

	slot, ok := h.stores.Slot(ticket.SlotID)
	require.True(t, ok)
	assert.True(t, slot.Available)

	paid, err := h.stores.Payments().HasPaid(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, paid)
}

func TestSettleTruckRate(t *testing.T) {
	h := newSettleHarness(t, parking.NewSimulatedGateway(0, 0))
	ticket := h.park(t, "TR-01-9999", "TRUCK")

	result, err := h.settler.Settle(context.Background(), ticket.ID, 5.0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, result.Receipt.Amount)
	assert.Equal(t, 5.0, result.Receipt.HourlyRate)
}

func TestSettleAmountMismatchKeepsSlotClaimed(t *testing.T) {
	h := newSettleHarness(t, parking.NewSimulatedGateway(0, 0))
	ticket := h.park(t, "KA-05-0002", "CAR")

	_, err := h.settler.Settle(context.Background(), ticket.ID, 3.5)
	require.Error(t, err)
	assert.Equal(t, parking.KindPayment, parking.Classify(err))
	assert.Contains(t, err.Error(), "Expected: 2.00, Received: 3.50")

	stored, _ := h.stores.Ticket(ticket.ID)
	assert.True(t, stored.Active)
	slot, _ := h.stores.Slot(ticket.SlotID)
	assert.False(t, slot.Available)

	payments, err := h.stores.Payments().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, types.PAYMENT_FAILED, payments[0].Status)
	require.NotNil(t, payments[0].FailureReason)
	assert.Contains(t, *payments[0].FailureReason, "mismatch")
}

func TestSettleGatewayDeclineKeepsSlotClaimed(t *testing.T) {
	h := newSettleHarness(t, parking.NewSimulatedGateway(1, 0))
	ticket := h.park(t, "KA-05-0003", "CAR")

	_, err := h.settler.Settle(context.Background(), ticket.ID, 2.0)
	require.ErrorIs(t, err, parking.ErrGatewayDeclined)
	assert.Equal(t, parking.KindPayment, parking.Classify(err))

	stored, _ := h.stores.Ticket(ticket.ID)
	assert.True(t, stored.Active)
	slot, _ := h.stores.Slot(ticket.SlotID)
	assert.False(t, slot.Available)

	payments, err := h.stores.Payments().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, types.PAYMENT_FAILED, payments[0].Status)
}

func TestSettleTwiceRejectsSecondAttempt(t *testing.T) {
	h := newSettleHarness(t, parking.NewSimulatedGateway(0, 0))
	ticket := h.park(t, "KA-05-0004", "CAR")

	_, err := h.settler.Settle(context.Background(), ticket.ID, 2.0)
	require.NoError(t, err)

	_, err = h.settler.Settle(context.Background(), ticket.ID, 2.0)
	require.ErrorIs(t, err, parking.ErrTicketInactive)
	assert.Equal(t, parking.KindConflict, parking.Classify(err))

	// The rejected attempt must not re-claim the freed slot.
	slot, ok := h.stores.Slot(ticket.SlotID)
	require.True(t, ok)
	assert.True(t, slot.Available)
	assert.Len(t, h.stores.AllReceipts(), 1)
}

func TestSettleRejectsTicketWithoutVehicle(t *testing.T) {
	h := newSettleHarness(t, parking.NewSimulatedGateway(0, 0))
	ticket := &models.Ticket{VehicleID: 999, SlotID: 1, EntryTime: time.Now(), Active: true}
	require.NoError(t, h.stores.Tickets().Create(context.Background(), ticket))

	_, err := h.settler.Settle(context.Background(), ticket.ID, 2.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vehicle attached")
	assert.Equal(t, parking.KindInternal, parking.Classify(err))
}

func TestSettleUnknownTicket(t *testing.T) {
	h := newSettleHarness(t, parking.NewSimulatedGateway(0, 0))

	_, err := h.settler.Settle(context.Background(), 42, 2.0)
	require.ErrorIs(t, err, parking.ErrNotFound)
	assert.Equal(t, parking.KindNotFound, parking.Classify(err))
}

func TestRetrySettleAfterFailureSucceeds(t *testing.T) {
	h := newSettleHarness(t, parking.NewSimulatedGateway(0, 0))
	ticket := h.park(t, "KA-05-0005", "CAR")

	_, err := h.settler.Settle(context.Background(), ticket.ID, 9.0)
	require.Error(t, err)

	result, err := h.settler.RetrySettle(context.Background(), ticket.ID, 2.0)
	require.NoError(t, err)
	assert.Equal(t, types.PAYMENT_PAID, result.Payment.Status)

	payments, err := h.stores.Payments().ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, types.PAYMENT_FAILED, payments[0].Status)
	assert.Equal(t, types.PAYMENT_PAID, payments[1].Status)
}

func TestRetrySettleRejectsPaidTicket(t *testing.T) {
	h := newSettleHarness(t, parking.NewSimulatedGateway(0, 0))
	ticket := h.park(t, "KA-05-0006", "CAR")

	_, err := h.settler.Settle(context.Background(), ticket.ID, 2.0)
	require.NoError(t, err)

	_, err = h.settler.RetrySettle(context.Background(), ticket.ID, 2.0)
	require.ErrorIs(t, err, parking.ErrAlreadySettled)
	assert.Equal(t, parking.KindConflict, parking.Classify(err))
}
