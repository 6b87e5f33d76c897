package models

import (
	"time"

	"pms/src/types"
)

// Ticket records one vehicle's occupancy of one slot for one visit. It is
// created active by a successful allocation and closed exactly once by the
// settlement path, atomically with the slot release.
type Ticket struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	VehicleID   uint       `gorm:"index" json:"vehicle_id"`
	SlotID      uint       `gorm:"index" json:"slot_id"`
	EntryGateID uint       `json:"entry_gate_id"`
	EntryTime   time.Time  `json:"entry_time"`
	ExitTime    *time.Time `json:"exit_time,omitempty"`
	Active      bool       `gorm:"index;default:true" json:"active"`

	Vehicle   *Vehicle     `json:"vehicle,omitempty"`
	Slot      *ParkingSlot `gorm:"foreignKey:SlotID" json:"slot,omitempty"`
	EntryGate *EntryGate   `json:"entry_gate,omitempty"`
	Payments  []Payment    `json:"payments,omitempty"`

	types.Timestamps
}
