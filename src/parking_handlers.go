package main

import (
	"log"
	"net/http"

	"pms/src/parking"
	"pms/src/types"

	"github.com/gin-gonic/gin"
)

func parkingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/park", func(ctx *gin.Context) {
			var body types.ParkVehicleRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticket, err := svc.allocator.Allocate(ctx.Request.Context(), parking.AllocateRequest{
				PlateNo:     body.PlateNo,
				VehicleType: body.VehicleType,
				OwnerID:     body.OwnerID,
				EntryGateID: body.EntryGateID,
				Strategy:    types.AllocationStrategy(body.Strategy),
			})
			if err != nil {
				log.Printf("Error allocating slot for plate %s: %s\n", body.PlateNo, err.Error())
				ctx.JSON(httpStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": ticket})
		}).
		POST("/exit", func(ctx *gin.Context) {
			var body types.ExitRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			result, err := svc.settler.Settle(ctx.Request.Context(), body.TicketID, body.Amount)
			if err != nil {
				log.Printf("Error settling ticket %d: %s\n", body.TicketID, err.Error())
				ctx.JSON(httpStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		POST("/exit/retry", func(ctx *gin.Context) {
			var body types.ExitRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			result, err := svc.settler.RetrySettle(ctx.Request.Context(), body.TicketID, body.Amount)
			if err != nil {
				log.Printf("Error retrying payment for ticket %d: %s\n", body.TicketID, err.Error())
				ctx.JSON(httpStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		GET("/tickets/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			ticket, err := svc.stores.Tickets().FindByID(ctx.Request.Context(), params.ID)
			if err != nil {
				ctx.JSON(httpStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		GET("/tickets/:id/payments", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			payments, err := svc.stores.Payments().ListByTicket(ctx.Request.Context(), params.ID)
			if err != nil {
				ctx.JSON(httpStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments, "count": len(payments)})
		}).
		GET("/tickets/:id/receipt", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			receipt, err := svc.stores.Receipts().FindByTicket(ctx.Request.Context(), params.ID)
			if err != nil {
				ctx.JSON(httpStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": receipt})
		})
	return g
}
