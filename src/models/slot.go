package models

import "pms/src/types"

// ParkingSlot's Available flag is the single shared mutable field of the
// allocation protocol. It must only flip through the conditional claim/release
// updates so that it always agrees with the active ticket referencing the slot.
type ParkingSlot struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	SlotNumber   string            `json:"slot_number,omitempty"`
	SlotType     types.VehicleType `gorm:"index" json:"slot_type"`
	Floor        int               `json:"floor"`
	X            float64           `gorm:"column:x_coordinate" json:"x"`
	Y            float64           `gorm:"column:y_coordinate" json:"y"`
	Available    bool              `gorm:"default:true" json:"available"`
	ParkingLotID uint              `gorm:"index" json:"parking_lot_id,omitempty"`
	FloorID      *uint             `json:"floor_id,omitempty"`

	ParkingLot *ParkingLot `json:"-"`

	types.Timestamps
}
