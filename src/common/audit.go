package common

import (
	"log"

	"pms/src/db"
	"pms/src/models"
)

// OccupancyAudit cross-checks the slot availability flags against active
// tickets. The claim/release protocol keeps the two in agreement; any row
// this job reports means the exclusivity guarantee was violated somewhere
// and needs operator attention.
func OccupancyAudit() {
	db := db.GetDb()

	var orphaned []models.ParkingSlot
	err := db.
		Where("available = ?", false).
		Where("NOT EXISTS (SELECT 1 FROM tickets WHERE tickets.slot_id = parking_slots.id AND tickets.active = ? AND tickets.deleted_at IS NULL)", true).
		Find(&orphaned).
		Error
	if err != nil {
		log.Printf("[audit] Error checking for orphaned claims: %s\n", err.Error())
		return
	}
	for _, slot := range orphaned {
		log.Printf("[audit] Slot %d (%s) is claimed but has no active ticket\n", slot.ID, slot.SlotNumber)
	}

	var conflicted []models.ParkingSlot
	err = db.
		Where("available = ?", true).
		Where("EXISTS (SELECT 1 FROM tickets WHERE tickets.slot_id = parking_slots.id AND tickets.active = ? AND tickets.deleted_at IS NULL)", true).
		Find(&conflicted).
		Error
	if err != nil {
		log.Printf("[audit] Error checking for conflicting slots: %s\n", err.Error())
		return
	}
	for _, slot := range conflicted {
		log.Printf("[audit] Slot %d (%s) is marked available but an active ticket references it\n", slot.ID, slot.SlotNumber)
	}

	if len(orphaned) == 0 && len(conflicted) == 0 {
		log.Println("[audit] Slot availability and active tickets agree")
	}
}
