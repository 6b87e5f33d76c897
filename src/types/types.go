package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type VehicleType string

const (
	VEHICLE_CAR   VehicleType = "CAR"
	VEHICLE_BIKE  VehicleType = "BIKE"
	VEHICLE_TRUCK VehicleType = "TRUCK"
)

func (self *VehicleType) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*self = VehicleType(v)
	case string:
		*self = VehicleType(v)
	}
	return nil
}

func (self VehicleType) Value() (driver.Value, error) {
	return string(self), nil
}

// ParseVehicleType accepts the type name case-insensitively.
func ParseVehicleType(s string) (VehicleType, error) {
	switch VehicleType(strings.ToUpper(strings.TrimSpace(s))) {
	case VEHICLE_CAR:
		return VEHICLE_CAR, nil
	case VEHICLE_BIKE:
		return VEHICLE_BIKE, nil
	case VEHICLE_TRUCK:
		return VEHICLE_TRUCK, nil
	}
	return "", fmt.Errorf("invalid vehicle type: %s. Valid types are: %s", s, strings.Join(VehicleTypeNames(), ", "))
}

func VehicleTypes() []VehicleType {
	return []VehicleType{VEHICLE_CAR, VEHICLE_BIKE, VEHICLE_TRUCK}
}

func VehicleTypeNames() []string {
	names := make([]string, 0, 3)
	for _, t := range VehicleTypes() {
		names = append(names, string(t))
	}
	return names
}

// DefaultHourlyRate is the built-in rate schedule applied when no rate is
// configured for the type.
func (self VehicleType) DefaultHourlyRate() float64 {
	switch self {
	case VEHICLE_BIKE:
		return 1.0
	case VEHICLE_TRUCK:
		return 5.0
	default:
		return 2.0
	}
}

type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_PAID      PaymentStatus = "paid"
	PAYMENT_FAILED    PaymentStatus = "failed"
	PAYMENT_REFUNDED  PaymentStatus = "refunded"
	PAYMENT_CANCELLED PaymentStatus = "cancelled"
)

func (self *PaymentStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*self = PaymentStatus(v)
	case string:
		*self = PaymentStatus(v)
	}
	return nil
}

func (self PaymentStatus) Value() (driver.Value, error) {
	return string(self), nil
}

type AllocationStrategy string

const (
	STRATEGY_NEAREST_SLOT    AllocationStrategy = "NEAREST_SLOT"
	STRATEGY_FIRST_AVAILABLE AllocationStrategy = "FIRST_AVAILABLE"
	STRATEGY_LEVEL_WISE      AllocationStrategy = "LEVEL_WISE"
)

func ParseAllocationStrategy(s string) (AllocationStrategy, error) {
	switch AllocationStrategy(strings.ToUpper(strings.TrimSpace(s))) {
	case STRATEGY_NEAREST_SLOT:
		return STRATEGY_NEAREST_SLOT, nil
	case STRATEGY_FIRST_AVAILABLE:
		return STRATEGY_FIRST_AVAILABLE, nil
	case STRATEGY_LEVEL_WISE:
		return STRATEGY_LEVEL_WISE, nil
	}
	return "", fmt.Errorf("invalid allocation strategy: %s", s)
}

func AllocationStrategies() []AllocationStrategy {
	return []AllocationStrategy{STRATEGY_NEAREST_SLOT, STRATEGY_FIRST_AVAILABLE, STRATEGY_LEVEL_WISE}
}

type StrategyInfo struct {
	Name        AllocationStrategy `json:"name"`
	DisplayName string             `json:"display_name"`
	Description string             `json:"description"`
}

func (self AllocationStrategy) Info() StrategyInfo {
	switch self {
	case STRATEGY_FIRST_AVAILABLE:
		return StrategyInfo{self, "First Available", "Assigns the first available slot in the list"}
	case STRATEGY_LEVEL_WISE:
		return StrategyInfo{self, "Level Wise", "Prioritizes lower floors first, then by slot ID"}
	default:
		return StrategyInfo{self, "Nearest Slot", "Assigns the closest available slot to entry gate"}
	}
}

type ParkVehicleRequestBody struct {
	PlateNo     string `json:"plate_no" binding:"required,plateno"`
	VehicleType string `json:"vehicle_type" binding:"required,vehicletype"`
	OwnerID     string `json:"owner_id,omitempty"`
	EntryGateID uint   `json:"entry_gate" binding:"required"`
	Strategy    string `json:"strategy,omitempty" binding:"omitempty,allocstrategy"`
}

type ExitRequestBody struct {
	TicketID uint    `json:"ticket_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateGateRequestBody struct {
	Name string  `json:"name" binding:"required"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type CreateSlotRequestBody struct {
	SlotNumber string  `json:"slot_number" binding:"required"`
	SlotType   string  `json:"slot_type" binding:"required,vehicletype"`
	Floor      int     `json:"floor" binding:"min=0"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

type CreateLotRequestBody struct {
	Name        string                  `json:"name" binding:"required"`
	TotalFloors int                     `json:"total_floors" binding:"required,min=1"`
	Slots       []CreateSlotRequestBody `json:"slots,omitempty" binding:"omitempty,dive"`
	Gates       []CreateGateRequestBody `json:"gates,omitempty" binding:"omitempty,dive"`
}
