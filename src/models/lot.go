package models

import "pms/src/types"

type ParkingLot struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Name        string `json:"name,omitempty"`
	Location    string `json:"location,omitempty"`
	TotalFloors int    `json:"total_floors,omitempty"`
	Active      bool   `gorm:"default:true" json:"active"`

	Floors []Floor       `json:"floors,omitempty"`
	Slots  []ParkingSlot `json:"slots,omitempty"`
	Gates  []EntryGate   `json:"gates,omitempty"`

	types.Timestamps
}

type Floor struct {
	ID           uint `gorm:"primarykey" json:"id"`
	Number       int  `json:"number"`
	Capacity     int  `json:"capacity,omitempty"`
	ParkingLotID uint `json:"parking_lot_id,omitempty"`

	ParkingLot *ParkingLot `json:"-"`

	types.Timestamps
}
