package parking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pms/src/config"
	"pms/src/models"
	"pms/src/types"
)

// errSlotContended aborts the claim transaction when the picked slot was
// taken by a concurrent caller between the snapshot read and the claim.
var errSlotContended = errors.New("slot claimed concurrently")

type AllocateRequest struct {
	PlateNo     string
	VehicleType string
	OwnerID     string
	EntryGateID uint
	// LotID is optional; when set, the gate must belong to that lot.
	LotID uint
	// Strategy overrides the allocator default for this call.
	Strategy types.AllocationStrategy
}

// Allocator implements the claim protocol: snapshot read of the candidates,
// policy pick, conditional claim, bounded retry with backoff on contention.
// The snapshot read is advisory; only the conditional claim decides.
type Allocator struct {
	stores     Stores
	Strategy   types.AllocationStrategy
	MaxRetries int
	Backoff    time.Duration
}

func NewAllocator(stores Stores, defaultStrategy types.AllocationStrategy) *Allocator {
	return &Allocator{
		stores:     stores,
		Strategy:   defaultStrategy,
		MaxRetries: config.ALLOCATION_MAX_RETRIES,
		Backoff:    config.ALLOCATION_BACKOFF,
	}
}

func (a *Allocator) Allocate(ctx context.Context, req AllocateRequest) (*models.Ticket, error) {
	vehicleType, err := types.ParseVehicleType(req.VehicleType)
	if err != nil {
		return nil, Invalid(err)
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = a.Strategy
	}
	selector, err := SelectorFor(strategy)
	if err != nil {
		return nil, err
	}

	// The already-parked check precedes gate validation; a vehicle with an
	// open ticket is rejected as a conflict no matter what gate it names.
	vehicle, err := a.findOrCreateVehicle(ctx, req.PlateNo, vehicleType, req.OwnerID)
	if err != nil {
		return nil, err
	}

	if _, err := a.stores.Tickets().FindActiveByVehicle(ctx, vehicle.ID); err == nil {
		return nil, fmt.Errorf("%w: plate number %s", ErrAlreadyParked, vehicle.PlateNo)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	gate, err := a.stores.Gates().FindByID(ctx, req.EntryGateID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, Invalid(ErrInvalidEntryGate)
		}
		return nil, err
	}
	if req.LotID != 0 && gate.ParkingLotID != req.LotID {
		return nil, Invalid(ErrInvalidEntryGate)
	}
	if gate.ParkingLot == nil || !gate.ParkingLot.Active {
		return nil, ErrLotInactive
	}
	lotID := gate.ParkingLotID

	// Fast pre-check so total exhaustion fails before entering the claim loop.
	count, err := a.stores.Slots().CountAvailable(ctx, lotID, vehicleType)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w for vehicle type: %s", ErrNoSlotAvailable, vehicleType)
	}

	return a.claimWithRetry(ctx, lotID, vehicleType, gate, vehicle, selector)
}

func (a *Allocator) findOrCreateVehicle(ctx context.Context, plateNo string, vehicleType types.VehicleType, ownerID string) (*models.Vehicle, error) {
	vehicle, err := a.stores.Vehicles().FindByPlate(ctx, plateNo)
	if err == nil {
		return vehicle, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	vehicle = &models.Vehicle{PlateNo: plateNo, Type: vehicleType, OwnerID: ownerID}
	if err := a.stores.Vehicles().Create(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (a *Allocator) claimWithRetry(ctx context.Context, lotID uint, vehicleType types.VehicleType, gate *models.EntryGate, vehicle *models.Vehicle, selector SelectSlot) (*models.Ticket, error) {
	for attempt := 1; attempt <= a.MaxRetries; attempt++ {
		candidates, err := a.stores.Slots().ListAvailable(ctx, lotID, vehicleType)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w for vehicle type: %s", ErrNoSlotAvailable, vehicleType)
		}

		pick, err := selector(candidates, gate)
		if err != nil {
			return nil, err
		}

		var ticket *models.Ticket
		err = a.stores.Atomic(ctx, func(s Stores) error {
			claimed, err := s.Slots().TryClaim(ctx, pick.ID)
			if err != nil {
				return err
			}
			if !claimed {
				return errSlotContended
			}
			ticket = &models.Ticket{
				VehicleID:   vehicle.ID,
				SlotID:      pick.ID,
				EntryGateID: gate.ID,
				EntryTime:   time.Now(),
				Active:      true,
			}
			return s.Tickets().Create(ctx, ticket)
		})
		if err == nil {
			ticket.Vehicle = vehicle
			ticket.Slot = pick
			ticket.EntryGate = gate
			return ticket, nil
		}
		if !errors.Is(err, errSlotContended) {
			return nil, err
		}

		log.Printf("Slot %d claimed concurrently, attempt %d/%d for plate %s\n", pick.ID, attempt, a.MaxRetries, vehicle.PlateNo)
		if attempt == a.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("allocation interrupted: %w", ctx.Err())
		case <-time.After(a.Backoff):
		}
	}
	return nil, fmt.Errorf("%w (%d attempts)", ErrAllocationContention, a.MaxRetries)
}
