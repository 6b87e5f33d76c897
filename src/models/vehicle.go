package models

import "pms/src/types"

// Vehicle is created lazily on first entry and reused across visits.
type Vehicle struct {
	ID      uint              `gorm:"primarykey" json:"id"`
	PlateNo string            `gorm:"uniqueIndex" json:"plate_no"`
	Type    types.VehicleType `json:"type"`
	OwnerID string            `json:"owner_id,omitempty"`

	types.Timestamps
}
