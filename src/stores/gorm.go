package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pms/src/models"
	"pms/src/parking"
	"pms/src/types"

	"gorm.io/gorm"
)

// gormStores implements parking.Stores on top of GORM. The conditional
// claim/release updates translate to single-row UPDATE ... WHERE guards
// checked through RowsAffected.
type gormStores struct {
	db *gorm.DB
}

func New(db *gorm.DB) parking.Stores {
	return &gormStores{db: db}
}

func (g *gormStores) Slots() parking.SlotStore       { return &slotStore{g.db} }
func (g *gormStores) Tickets() parking.TicketStore   { return &ticketStore{g.db} }
func (g *gormStores) Vehicles() parking.VehicleStore { return &vehicleStore{g.db} }
func (g *gormStores) Payments() parking.PaymentStore { return &paymentStore{g.db} }
func (g *gormStores) Receipts() parking.ReceiptStore { return &receiptStore{g.db} }
func (g *gormStores) Gates() parking.GateStore       { return &gateStore{g.db} }

func (g *gormStores) Atomic(ctx context.Context, fn func(parking.Stores) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

type slotStore struct{ db *gorm.DB }

func (s *slotStore) ListAvailable(ctx context.Context, lotID uint, slotType types.VehicleType) ([]models.ParkingSlot, error) {
	var slots []models.ParkingSlot
	err := s.db.WithContext(ctx).
		Where("parking_lot_id = ? AND slot_type = ? AND available = ?", lotID, slotType, true).
		Order("id asc").
		Find(&slots).
		Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (s *slotStore) CountAvailable(ctx context.Context, lotID uint, slotType types.VehicleType) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ParkingSlot{}).
		Where("parking_lot_id = ? AND slot_type = ? AND available = ?", lotID, slotType, true).
		Count(&count).
		Error
	return count, err
}

func (s *slotStore) TryClaim(ctx context.Context, slotID uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.ParkingSlot{}).
		Where("id = ? AND available = ?", slotID, true).
		Update("available", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *slotStore) TryRelease(ctx context.Context, slotID uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.ParkingSlot{}).
		Where("id = ? AND available = ?", slotID, false).
		Update("available", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type ticketStore struct{ db *gorm.DB }

func (s *ticketStore) FindByID(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).
		Preload("Vehicle").
		Preload("Slot").
		Preload("EntryGate").
		First(&ticket, id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ticket %d", parking.ErrNotFound, id)
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *ticketStore) FindActiveByVehicle(ctx context.Context, vehicleID uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).
		Where("vehicle_id = ? AND active = ?", vehicleID, true).
		First(&ticket).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active ticket for vehicle %d", parking.ErrNotFound, vehicleID)
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *ticketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	return s.db.WithContext(ctx).Omit("Vehicle", "Slot", "EntryGate").Create(ticket).Error
}

func (s *ticketStore) Close(ctx context.Context, id uint, exitTime time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]interface{}{"active": false, "exit_time": exitTime})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type vehicleStore struct{ db *gorm.DB }

func (s *vehicleStore) FindByPlate(ctx context.Context, plateNo string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := s.db.WithContext(ctx).
		Where(&models.Vehicle{PlateNo: plateNo}).
		First(&vehicle).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vehicle %s", parking.ErrNotFound, plateNo)
		}
		return nil, err
	}
	return &vehicle, nil
}

func (s *vehicleStore) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return s.db.WithContext(ctx).Create(vehicle).Error
}

type paymentStore struct{ db *gorm.DB }

func (s *paymentStore) Create(ctx context.Context, payment *models.Payment) error {
	return s.db.WithContext(ctx).Omit("Ticket").Create(payment).Error
}

func (s *paymentStore) ListByTicket(ctx context.Context, ticketID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where(&models.Payment{TicketID: ticketID}).
		Order("timestamp asc").
		Find(&payments).
		Error
	return payments, err
}

func (s *paymentStore) HasPaid(ctx context.Context, ticketID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("ticket_id = ? AND status = ?", ticketID, types.PAYMENT_PAID).
		Count(&count).
		Error
	return count > 0, err
}

type receiptStore struct{ db *gorm.DB }

func (s *receiptStore) Create(ctx context.Context, receipt *models.Receipt) error {
	return s.db.WithContext(ctx).Omit("Ticket").Create(receipt).Error
}

func (s *receiptStore) FindByTicket(ctx context.Context, ticketID uint) (*models.Receipt, error) {
	var receipt models.Receipt
	err := s.db.WithContext(ctx).
		Where(&models.Receipt{TicketID: ticketID}).
		First(&receipt).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no receipt for ticket %d", parking.ErrNotFound, ticketID)
		}
		return nil, err
	}
	return &receipt, nil
}

type gateStore struct{ db *gorm.DB }

func (s *gateStore) FindByID(ctx context.Context, id uint) (*models.EntryGate, error) {
	var gate models.EntryGate
	err := s.db.WithContext(ctx).
		Preload("ParkingLot").
		First(&gate, id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: entry gate %d", parking.ErrNotFound, id)
		}
		return nil, err
	}
	return &gate, nil
}
