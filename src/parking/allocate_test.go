package parking_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"pms/src/models"
	"pms/src/parking"
	"pms/src/stores/memory"
	"pms/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLot(t *testing.T) (*memory.Stores, models.EntryGate) {
	t.Helper()
	m := memory.New()
	lot := m.AddLot(models.ParkingLot{Name: "Central", TotalFloors: 2, Active: true})
	gate := m.AddGate(models.EntryGate{Name: "North", X: 0, Y: 0, ParkingLotID: lot.ID})
	return m, gate
}

func newAllocator(m parking.Stores) *parking.Allocator {
	a := parking.NewAllocator(m, types.STRATEGY_NEAREST_SLOT)
	a.Backoff = time.Millisecond
	return a
}

func TestAllocateAssignsNearestSlot(t *testing.T) {
	m, gate := seedLot(t)
	far := m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, X: 10, Y: 0, Available: true, ParkingLotID: gate.ParkingLotID})
	near := m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, X: 2, Y: 0, Available: true, ParkingLotID: gate.ParkingLotID})

	ticket, err := newAllocator(m).Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "KA-01-1234",
		VehicleType: "car",
		EntryGateID: gate.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, near.ID, ticket.SlotID)
	assert.True(t, ticket.Active)
	require.NotNil(t, ticket.Vehicle)
	assert.Equal(t, "KA-01-1234", ticket.Vehicle.PlateNo)

	claimed, ok := m.Slot(near.ID)
	require.True(t, ok)
	assert.False(t, claimed.Available)
	untouched, _ := m.Slot(far.ID)
	assert.True(t, untouched.Available)
}

func TestAllocateLevelWiseOverride(t *testing.T) {
	m, gate := seedLot(t)
	m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Floor: 2, X: 1, Y: 0, Available: true, ParkingLotID: gate.ParkingLotID})
	ground := m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Floor: 1, X: 50, Y: 50, Available: true, ParkingLotID: gate.ParkingLotID})

	ticket, err := newAllocator(m).Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "MH-02-0001",
		VehicleType: "CAR",
		EntryGateID: gate.ID,
		Strategy:    types.STRATEGY_LEVEL_WISE,
	})
	require.NoError(t, err)
	assert.Equal(t, ground.ID, ticket.SlotID)
}

func TestAllocateRejectsUnknownVehicleType(t *testing.T) {
	m, gate := seedLot(t)

	_, err := newAllocator(m).Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "KA-01-0007",
		VehicleType: "BOAT",
		EntryGateID: gate.ID,
	})
	require.Error(t, err)
	assert.Equal(t, parking.KindValidation, parking.Classify(err))
}

func TestAllocateRejectsUnknownGate(t *testing.T) {
	m, _ := seedLot(t)

	_, err := newAllocator(m).Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "KA-01-0007",
		VehicleType: "CAR",
		EntryGateID: 999,
	})
	require.ErrorIs(t, err, parking.ErrInvalidEntryGate)
	assert.Equal(t, parking.KindValidation, parking.Classify(err))
}

func TestAllocateRejectsGateFromAnotherLot(t *testing.T) {
	m, gate := seedLot(t)
	m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Available: true, ParkingLotID: gate.ParkingLotID})

	_, err := newAllocator(m).Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "KA-01-0007",
		VehicleType: "CAR",
		EntryGateID: gate.ID,
		LotID:       gate.ParkingLotID + 1,
	})
	require.ErrorIs(t, err, parking.ErrInvalidEntryGate)
}

func TestAllocateRejectsInactiveLot(t *testing.T) {
	m := memory.New()
	lot := m.AddLot(models.ParkingLot{Name: "Closed", Active: false})
	gate := m.AddGate(models.EntryGate{ParkingLotID: lot.ID})
	m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Available: true, ParkingLotID: lot.ID})

	_, err := newAllocator(m).Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "KA-01-0007",
		VehicleType: "CAR",
		EntryGateID: gate.ID,
	})
	require.ErrorIs(t, err, parking.ErrLotInactive)
	assert.Equal(t, parking.KindConflict, parking.Classify(err))
}

func TestAllocateRejectsAlreadyParkedVehicle(t *testing.T) {
	m, gate := seedLot(t)
	m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Available: true, ParkingLotID: gate.ParkingLotID})
	m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Available: true, ParkingLotID: gate.ParkingLotID})
	allocator := newAllocator(m)

	_, err := allocator.Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "ABC-123",
		VehicleType: "CAR",
		EntryGateID: gate.ID,
	})
	require.NoError(t, err)

	_, err = allocator.Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "ABC-123",
		VehicleType: "CAR",
		EntryGateID: gate.ID,
	})
	require.ErrorIs(t, err, parking.ErrAlreadyParked)
	assert.Equal(t, parking.KindConflict, parking.Classify(err))
	assert.Contains(t, err.Error(), "ABC-123")
}

func TestAllocateAlreadyParkedWinsOverBadGate(t *testing.T) {
	m, gate := seedLot(t)
	m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Available: true, ParkingLotID: gate.ParkingLotID})
	allocator := newAllocator(m)

	_, err := allocator.Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "ABC-123",
		VehicleType: "CAR",
		EntryGateID: gate.ID,
	})
	require.NoError(t, err)

	// A vehicle with an open ticket is a conflict even when the request
	// also names a nonexistent gate.
	_, err = allocator.Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "ABC-123",
		VehicleType: "CAR",
		EntryGateID: 999,
	})
	require.ErrorIs(t, err, parking.ErrAlreadyParked)
	assert.Equal(t, parking.KindConflict, parking.Classify(err))
}

func TestAllocateNoSlotForVehicleType(t *testing.T) {
	m, gate := seedLot(t)
	m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Available: true, ParkingLotID: gate.ParkingLotID})

	_, err := newAllocator(m).Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "TR-09-0001",
		VehicleType: "TRUCK",
		EntryGateID: gate.ID,
	})
	require.ErrorIs(t, err, parking.ErrNoSlotAvailable)
	assert.Equal(t, parking.KindConflict, parking.Classify(err))
}

func TestAllocateExhaustsTypedCapacity(t *testing.T) {
	m, gate := seedLot(t)
	for i := 0; i < 3; i++ {
		m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Available: true, ParkingLotID: gate.ParkingLotID})
	}
	allocator := newAllocator(m)

	plates := []string{"KA-01-0001", "KA-01-0002", "KA-01-0003"}
	for _, plate := range plates {
		_, err := allocator.Allocate(context.Background(), parking.AllocateRequest{
			PlateNo:     plate,
			VehicleType: "CAR",
			EntryGateID: gate.ID,
		})
		require.NoError(t, err)
	}

	_, err := allocator.Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "KA-01-0004",
		VehicleType: "CAR",
		EntryGateID: gate.ID,
	})
	require.ErrorIs(t, err, parking.ErrNoSlotAvailable)
}

func TestAllocateConcurrentClaimsAreDistinct(t *testing.T) {
	m, gate := seedLot(t)
	const n = 5
	for i := 0; i < n; i++ {
		m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, X: float64(i + 1), Available: true, ParkingLotID: gate.ParkingLotID})
	}
	allocator := newAllocator(m)
	allocator.MaxRetries = 10

	var wg sync.WaitGroup
	results := make([]*models.Ticket, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = allocator.Allocate(context.Background(), parking.AllocateRequest{
				PlateNo:     fmt.Sprintf("P-%d", i),
				VehicleType: "CAR",
				EntryGateID: gate.ID,
			})
		}(i)
	}
	wg.Wait()

	seen := map[uint]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.False(t, seen[results[i].SlotID], "slot %d double-claimed", results[i].SlotID)
		seen[results[i].SlotID] = true
	}
	for id := range seen {
		slot, ok := m.Slot(id)
		require.True(t, ok)
		assert.False(t, slot.Available)
	}
}

// contendedStores makes every conditional claim lose, simulating a rival
// winning the slot between the snapshot read and the claim.
type contendedStores struct {
	parking.Stores
}

func (c contendedStores) Slots() parking.SlotStore { return contendedSlots{c.Stores.Slots()} }

func (c contendedStores) Atomic(ctx context.Context, fn func(parking.Stores) error) error {
	return c.Stores.Atomic(ctx, func(s parking.Stores) error {
		return fn(contendedStores{s})
	})
}

type contendedSlots struct {
	parking.SlotStore
}

func (contendedSlots) TryClaim(context.Context, uint) (bool, error) { return false, nil }

func TestAllocateGivesUpAfterMaxRetries(t *testing.T) {
	m, gate := seedLot(t)
	m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Available: true, ParkingLotID: gate.ParkingLotID})
	allocator := newAllocator(contendedStores{m})

	_, err := allocator.Allocate(context.Background(), parking.AllocateRequest{
		PlateNo:     "KA-01-0042",
		VehicleType: "CAR",
		EntryGateID: gate.ID,
	})
	require.ErrorIs(t, err, parking.ErrAllocationContention)
	assert.Equal(t, parking.KindConflict, parking.Classify(err))

	// The losing attempts must not leave a ticket behind.
	_, found := m.Ticket(1)
	assert.False(t, found)
}

func TestAllocateStopsOnCanceledContext(t *testing.T) {
	m, gate := seedLot(t)
	m.AddSlot(models.ParkingSlot{SlotType: types.VEHICLE_CAR, Available: true, ParkingLotID: gate.ParkingLotID})
	allocator := newAllocator(contendedStores{m})
	allocator.Backoff = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := allocator.Allocate(ctx, parking.AllocateRequest{
		PlateNo:     "KA-01-0042",
		VehicleType: "CAR",
		EntryGateID: gate.ID,
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
