package parking

import (
	"math"

	"pms/src/models"
	"pms/src/types"
)

// SelectSlot picks exactly one slot from a non-empty candidate set. Policies
// are pure: they never mutate the candidates and never touch storage.
type SelectSlot func(candidates []models.ParkingSlot, gate *models.EntryGate) (*models.ParkingSlot, error)

var selectors = map[types.AllocationStrategy]SelectSlot{
	types.STRATEGY_NEAREST_SLOT:    nearestSlot,
	types.STRATEGY_FIRST_AVAILABLE: firstAvailable,
	types.STRATEGY_LEVEL_WISE:      levelWise,
}

func SelectorFor(strategy types.AllocationStrategy) (SelectSlot, error) {
	sel, ok := selectors[strategy]
	if !ok {
		_, err := types.ParseAllocationStrategy(string(strategy))
		return nil, Invalid(err)
	}
	return sel, nil
}

func distance(gate *models.EntryGate, slot *models.ParkingSlot) float64 {
	return math.Hypot(gate.X-slot.X, gate.Y-slot.Y)
}

// nearestSlot minimizes the Euclidean distance to the gate; exact ties keep
// the first candidate encountered in input order.
func nearestSlot(candidates []models.ParkingSlot, gate *models.EntryGate) (*models.ParkingSlot, error) {
	if len(candidates) == 0 {
		return nil, Invalid(ErrNoCandidates)
	}
	best := 0
	bestDist := distance(gate, &candidates[0])
	for i := 1; i < len(candidates); i++ {
		if d := distance(gate, &candidates[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return &candidates[best], nil
}

func firstAvailable(candidates []models.ParkingSlot, _ *models.EntryGate) (*models.ParkingSlot, error) {
	if len(candidates) == 0 {
		return nil, Invalid(ErrNoCandidates)
	}
	return &candidates[0], nil
}

// levelWise prefers the lowest floor and breaks ties on slot ID.
func levelWise(candidates []models.ParkingSlot, _ *models.EntryGate) (*models.ParkingSlot, error) {
	if len(candidates) == 0 {
		return nil, Invalid(ErrNoCandidates)
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		c, b := &candidates[i], &candidates[best]
		if c.Floor < b.Floor || (c.Floor == b.Floor && c.ID < b.ID) {
			best = i
		}
	}
	return &candidates[best], nil
}
