package parking

import (
	"context"
	"time"

	"pms/src/models"
	"pms/src/types"
)

// The stores are the narrow seams between the core and persistence. Absent
// rows surface as ErrNotFound. TryClaim and TryRelease are conditional
// single-row updates; they are the only writers of a slot's Available flag
// and the actual correctness boundary of the protocol.

type SlotStore interface {
	ListAvailable(ctx context.Context, lotID uint, slotType types.VehicleType) ([]models.ParkingSlot, error)
	CountAvailable(ctx context.Context, lotID uint, slotType types.VehicleType) (int64, error)
	// TryClaim reports whether this call transitioned the slot from
	// available to unavailable.
	TryClaim(ctx context.Context, slotID uint) (bool, error)
	// TryRelease reports whether this call transitioned the slot from
	// unavailable back to available.
	TryRelease(ctx context.Context, slotID uint) (bool, error)
}

type TicketStore interface {
	FindByID(ctx context.Context, id uint) (*models.Ticket, error)
	FindActiveByVehicle(ctx context.Context, vehicleID uint) (*models.Ticket, error)
	Create(ctx context.Context, ticket *models.Ticket) error
	// Close deactivates the ticket and stamps the exit time, only if it is
	// still active; mirrors the conditional claim discipline.
	Close(ctx context.Context, id uint, exitTime time.Time) (bool, error)
}

type VehicleStore interface {
	FindByPlate(ctx context.Context, plateNo string) (*models.Vehicle, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	ListByTicket(ctx context.Context, ticketID uint) ([]models.Payment, error)
	HasPaid(ctx context.Context, ticketID uint) (bool, error)
}

type ReceiptStore interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	FindByTicket(ctx context.Context, ticketID uint) (*models.Receipt, error)
}

type GateStore interface {
	// FindByID resolves the gate together with its owning lot.
	FindByID(ctx context.Context, id uint) (*models.EntryGate, error)
}

// Stores aggregates the collaborator stores. Atomic runs fn against a store
// set whose writes become visible all together or not at all.
type Stores interface {
	Slots() SlotStore
	Tickets() TicketStore
	Vehicles() VehicleStore
	Payments() PaymentStore
	Receipts() ReceiptStore
	Gates() GateStore
	Atomic(ctx context.Context, fn func(Stores) error) error
}

// RateLookup resolves the hourly rate for a vehicle type.
type RateLookup interface {
	RateFor(slotType types.VehicleType) float64
}

// RateTable is a static RateLookup with per-type defaults for unset entries.
type RateTable map[types.VehicleType]float64

func (t RateTable) RateFor(slotType types.VehicleType) float64 {
	if rate, ok := t[slotType]; ok && rate > 0 {
		return rate
	}
	return slotType.DefaultHourlyRate()
}

// PaymentGateway is the abstract external payment step. Charge returns a
// gateway reference on success; a decline is an error unrelated to the amount.
type PaymentGateway interface {
	Charge(ctx context.Context, amount float64, ticket *models.Ticket) (string, error)
}

// ReceiptNumberer produces unique receipt numbers.
type ReceiptNumberer interface {
	Next(ctx context.Context) (string, error)
}
