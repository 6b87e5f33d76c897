package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"pms/src/types"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

const (
	// Bounded retry for the conditional slot claim.
	ALLOCATION_MAX_RETRIES = 3
	ALLOCATION_BACKOFF     = 50 * time.Millisecond

	// Maximum absolute difference tolerated between the paid and the
	// calculated amount.
	PAYMENT_TOLERANCE = 0.01

	RECEIPT_PREFIX = "RCP"
)

// Rates builds the hourly rate table from the environment, falling back to the
// per-type defaults (PARKING_RATE_CAR, PARKING_RATE_BIKE, PARKING_RATE_TRUCK).
func Rates() map[types.VehicleType]float64 {
	rates := make(map[types.VehicleType]float64, 3)
	for _, t := range types.VehicleTypes() {
		rates[t] = t.DefaultHourlyRate()
		env := os.Getenv("PARKING_RATE_" + string(t))
		if env == "" {
			continue
		}
		rate, err := strconv.ParseFloat(env, 64)
		if err != nil || rate <= 0 {
			log.Printf("Ignoring invalid rate override for %s: %q\n", t, env)
			continue
		}
		rates[t] = rate
	}
	return rates
}

// DefaultStrategy reads PARKING_ALLOCATION_STRATEGY, defaulting to NEAREST_SLOT.
func DefaultStrategy() types.AllocationStrategy {
	env := os.Getenv("PARKING_ALLOCATION_STRATEGY")
	if env == "" {
		return types.STRATEGY_NEAREST_SLOT
	}
	strategy, err := types.ParseAllocationStrategy(env)
	if err != nil {
		log.Printf("%s. Falling back to %s\n", err.Error(), types.STRATEGY_NEAREST_SLOT)
		return types.STRATEGY_NEAREST_SLOT
	}
	return strategy
}
