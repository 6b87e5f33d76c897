package main

import (
	"log"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"

	"pms/src/boot"
	"pms/src/config"
	"pms/src/db"
	"pms/src/middlewares"
	"pms/src/parking"
	"pms/src/stores"
	"pms/src/types"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
)

const apiPrefix string = "/api/v1"

type services struct {
	stores    parking.Stores
	rates     parking.RateTable
	allocator *parking.Allocator
	settler   *parking.Settler
}

var svc *services

func newServices(st parking.Stores, gateway parking.PaymentGateway, numberer parking.ReceiptNumberer) *services {
	rates := parking.RateTable(config.Rates())
	return &services{
		stores:    st,
		rates:     rates,
		allocator: parking.NewAllocator(st, config.DefaultStrategy()),
		settler:   parking.NewSettler(st, rates, gateway, numberer),
	}
}

var vehicleTypeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := types.ParseVehicleType(value)
	return err == nil
}

var strategyValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := types.ParseAllocationStrategy(value)
	return err == nil
}

var plateNoValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if len(value) < 2 || len(value) > 16 {
		return false
	}
	for _, c := range value {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == ' ':
		default:
			return false
		}
	}
	return true
}

func httpStatus(err error) int {
	switch parking.Classify(err) {
	case parking.KindValidation:
		return http.StatusBadRequest
	case parking.KindNotFound:
		return http.StatusNotFound
	case parking.KindConflict:
		return http.StatusConflict
	case parking.KindPayment:
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

func setupRouter() *gin.Engine {
	router := gin.Default()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("vehicletype", vehicleTypeValidatorFunc)
		v.RegisterValidation("allocstrategy", strategyValidatorFunc)
		v.RegisterValidation("plateno", plateNoValidatorFunc)
	}

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group(apiPrefix)
	parkingHandlers(api)

	admin := api.Group("/admin")
	admin.Use(middlewares.AuthMiddleware, middlewares.AdminOnly)
	adminHandlers(admin)

	return router
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	gin.ForceConsoleColor()
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func gatewayFromEnv() parking.PaymentGateway {
	failureRate := 0.05
	if env := os.Getenv("PAYMENT_GATEWAY_FAILURE_RATE"); env != "" {
		if f, err := strconv.ParseFloat(env, 64); err == nil && f >= 0 && f < 1 {
			failureRate = f
		}
	}
	return parking.NewSimulatedGateway(failureRate, 100*time.Millisecond)
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			log.Printf("Error loading .env: %s\n", err.Error())
		}
	}
	initLogger()

	boot.InitDb()
	boot.SeedDemoLot()
	boot.InitScheduler()
	defer boot.StopScheduler()

	svc = newServices(stores.New(db.GetDb()), gatewayFromEnv(), stores.NewReceiptNumberer())

	router := setupRouter()
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowAllOrigins = true
		router.Use(cors.New(cc))
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server error: %s\n", err.Error())
	}
}
