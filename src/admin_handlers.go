package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"pms/src/db"
	"pms/src/lib"
	"pms/src/models"
	"pms/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const lotStatusCacheTTL = 30 * time.Second

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/lots", func(ctx *gin.Context) {
			var body types.CreateLotRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var lot models.ParkingLot
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				lot = models.ParkingLot{Name: body.Name, TotalFloors: body.TotalFloors, Active: true}
				if err := tx.Create(&lot).Error; err != nil {
					return err
				}
				for _, s := range body.Slots {
					slotType, err := types.ParseVehicleType(s.SlotType)
					if err != nil {
						return err
					}
					slot := models.ParkingSlot{
						SlotNumber:   s.SlotNumber,
						SlotType:     slotType,
						Floor:        s.Floor,
						X:            s.X,
						Y:            s.Y,
						Available:    true,
						ParkingLotID: lot.ID,
					}
					if err := tx.Create(&slot).Error; err != nil {
						return err
					}
				}
				for _, ga := range body.Gates {
					gate := models.EntryGate{Name: ga.Name, X: ga.X, Y: ga.Y, ParkingLotID: lot.ID}
					if err := tx.Create(&gate).Error; err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				log.Printf("Error creating lot: %s\n", err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": lot})
		}).
		GET("/lots/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}

			cacheKey := fmt.Sprintf("pms:lot:%d:status", params.ID)
			var cached gin.H
			if lib.GetCachedJSON(ctx.Request.Context(), cacheKey, &cached) {
				ctx.JSON(http.StatusOK, gin.H{"data": cached, "cached": true})
				return
			}

			db := db.GetDb()
			var lot models.ParkingLot
			if err := db.First(&lot, params.ID).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}

			type floorRow struct {
				Floor     int   `json:"floor"`
				Total     int64 `json:"total_slots"`
				Available int64 `json:"available_slots"`
			}
			var floors []floorRow
			err := db.Model(&models.ParkingSlot{}).
				Select("floor, count(*) as total, sum(case when available then 1 else 0 end) as available").
				Where("parking_lot_id = ?", params.ID).
				Group("floor").
				Order("floor").
				Scan(&floors).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}

			floorStatus := make([]gin.H, 0, len(floors))
			for _, f := range floors {
				occupied := f.Total - f.Available
				rate := 0.0
				if f.Total > 0 {
					rate = float64(occupied) / float64(f.Total) * 100
				}
				floorStatus = append(floorStatus, gin.H{
					"floor":           f.Floor,
					"total_slots":     f.Total,
					"available_slots": f.Available,
					"occupied_slots":  occupied,
					"is_full":         f.Available == 0 && f.Total > 0,
					"occupancy_rate":  rate,
				})
			}

			type typeRow struct {
				SlotType  types.VehicleType `json:"slot_type"`
				Available int64             `json:"available"`
			}
			var byType []typeRow
			err = db.Model(&models.ParkingSlot{}).
				Select("slot_type, count(*) as available").
				Where("parking_lot_id = ? AND available = ?", params.ID, true).
				Group("slot_type").
				Scan(&byType).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			availability := gin.H{}
			for _, t := range types.VehicleTypes() {
				availability[string(t)] = int64(0)
			}
			for _, row := range byType {
				availability[string(row.SlotType)] = row.Available
			}

			status := gin.H{
				"parking_lot_id":               params.ID,
				"parking_lot_name":             lot.Name,
				"total_floors":                 lot.TotalFloors,
				"is_active":                    lot.Active,
				"floor_status":                 floorStatus,
				"availability_by_vehicle_type": availability,
			}
			lib.CacheJSON(ctx.Request.Context(), cacheKey, status, lotStatusCacheTTL)
			ctx.JSON(http.StatusOK, gin.H{"data": status})
		}).
		GET("/strategies", func(ctx *gin.Context) {
			infos := make([]types.StrategyInfo, 0, 3)
			for _, s := range types.AllocationStrategies() {
				infos = append(infos, s.Info())
			}
			ctx.JSON(http.StatusOK, gin.H{"data": infos, "default": svc.allocator.Strategy})
		}).
		GET("/charges", func(ctx *gin.Context) {
			charges := gin.H{}
			for _, t := range types.VehicleTypes() {
				charges[string(t)] = svc.rates.RateFor(t)
			}
			ctx.JSON(http.StatusOK, gin.H{"data": charges})
		})
	return g
}
