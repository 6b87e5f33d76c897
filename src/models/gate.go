package models

import "pms/src/types"

// EntryGate is immutable once created as far as allocation is concerned; the
// coordinates feed the nearest-slot policy.
type EntryGate struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	Name         string  `json:"name,omitempty"`
	X            float64 `gorm:"column:x_coordinate" json:"x"`
	Y            float64 `gorm:"column:y_coordinate" json:"y"`
	ParkingLotID uint    `json:"parking_lot_id,omitempty"`

	ParkingLot *ParkingLot `json:"parking_lot,omitempty"`

	types.Timestamps
}
