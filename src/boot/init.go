package boot

import (
	"fmt"
	"log"
	"time"

	"pms/src/common"
	"pms/src/db"
	"pms/src/lib"
	"pms/src/models"
	"pms/src/types"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.ParkingLot{},
		&models.Floor{},
		&models.EntryGate{},
		&models.ParkingSlot{},
		&models.Vehicle{},
		&models.Ticket{},
		&models.Payment{},
		&models.Receipt{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// SeedDemoLot creates a small lot with typed, located slots and two gates so
// a fresh database can serve traffic immediately. Skipped when any lot exists.
func SeedDemoLot() {
	db := db.GetDb()
	var count int64
	if err := db.Model(&models.ParkingLot{}).Count(&count).Error; err != nil {
		log.Printf("Error checking for existing lots: %s\n", err.Error())
		return
	}
	if count > 0 {
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		lot := models.ParkingLot{Name: "Main Lot", Location: "HQ", TotalFloors: 2, Active: true}
		if err := tx.Create(&lot).Error; err != nil {
			return err
		}
		for floor := 1; floor <= lot.TotalFloors; floor++ {
			f := models.Floor{Number: floor, Capacity: 6, ParkingLotID: lot.ID}
			if err := tx.Create(&f).Error; err != nil {
				return err
			}
			for i := 0; i < 6; i++ {
				slotType := types.VEHICLE_CAR
				switch {
				case i >= 4:
					slotType = types.VEHICLE_TRUCK
				case i >= 2:
					slotType = types.VEHICLE_BIKE
				}
				slot := models.ParkingSlot{
					SlotNumber:   fmt.Sprintf("F%d-S%d", floor, i+1),
					SlotType:     slotType,
					Floor:        floor,
					X:            float64(10 * (i + 1)),
					Y:            float64(5 * floor),
					Available:    true,
					ParkingLotID: lot.ID,
					FloorID:      &f.ID,
				}
				if err := tx.Create(&slot).Error; err != nil {
					return err
				}
			}
		}
		gates := []models.EntryGate{
			{Name: "North Gate", X: 0, Y: 0, ParkingLotID: lot.ID},
			{Name: "South Gate", X: 100, Y: 0, ParkingLotID: lot.ID},
		}
		return tx.Create(&gates).Error
	})
	if err != nil {
		log.Printf("Error seeding demo lot: %s\n", err.Error())
		return
	}
	log.Println("Seeded demo parking lot")
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	id, err := lib.CreateCronJob(common.OccupancyAudit, 5*time.Minute)
	if err != nil {
		log.Printf("Error scheduling occupancy audit: %s\n", err.Error())
	} else {
		log.Printf("Scheduled occupancy audit: %s\n", *id)
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}
