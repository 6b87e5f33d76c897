// Package memory implements parking.Stores entirely in process. It backs the
// core tests and works as a lightweight double anywhere a database is
// unnecessary; transactions are serialized and undone via a write journal.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pms/src/models"
	"pms/src/parking"
	"pms/src/types"
)

type state struct {
	lots     map[uint]models.ParkingLot
	gates    map[uint]models.EntryGate
	slots    map[uint]models.ParkingSlot
	vehicles map[uint]models.Vehicle
	tickets  map[uint]models.Ticket
	payments map[uint]models.Payment
	receipts map[uint]models.Receipt
	lastID   map[string]uint
}

type Stores struct {
	txMu sync.Mutex
	mu   sync.Mutex
	s    *state
}

func New() *Stores {
	return &Stores{s: &state{
		lots:     map[uint]models.ParkingLot{},
		gates:    map[uint]models.EntryGate{},
		slots:    map[uint]models.ParkingSlot{},
		vehicles: map[uint]models.Vehicle{},
		tickets:  map[uint]models.Ticket{},
		payments: map[uint]models.Payment{},
		receipts: map[uint]models.Receipt{},
		lastID:   map[string]uint{},
	}}
}

func (m *Stores) nextID(table string) uint {
	m.s.lastID[table]++
	return m.s.lastID[table]
}

// Seed helpers.

func (m *Stores) AddLot(lot models.ParkingLot) models.ParkingLot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lot.ID == 0 {
		lot.ID = m.nextID("lots")
	}
	m.s.lots[lot.ID] = lot
	return lot
}

func (m *Stores) AddGate(gate models.EntryGate) models.EntryGate {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gate.ID == 0 {
		gate.ID = m.nextID("gates")
	}
	gate.ParkingLot = nil
	m.s.gates[gate.ID] = gate
	return gate
}

func (m *Stores) AddSlot(slot models.ParkingSlot) models.ParkingSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slot.ID == 0 {
		slot.ID = m.nextID("slots")
	}
	m.s.slots[slot.ID] = slot
	return slot
}

// Slot returns a copy of the stored slot, for assertions.
func (m *Stores) Slot(id uint) (models.ParkingSlot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.s.slots[id]
	return slot, ok
}

// Ticket returns a copy of the stored ticket, for assertions.
func (m *Stores) Ticket(id uint) (models.Ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.s.tickets[id]
	return ticket, ok
}

// Receipts returns copies of all stored receipts, for assertions.
func (m *Stores) AllReceipts() []models.Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipts := make([]models.Receipt, 0, len(m.s.receipts))
	for _, r := range m.s.receipts {
		receipts = append(receipts, r)
	}
	sort.Slice(receipts, func(i, j int) bool { return receipts[i].ID < receipts[j].ID })
	return receipts
}

// parking.Stores implementation.

func (m *Stores) Slots() parking.SlotStore       { return slotStore{m} }
func (m *Stores) Tickets() parking.TicketStore   { return ticketStore{m} }
func (m *Stores) Vehicles() parking.VehicleStore { return vehicleStore{m} }
func (m *Stores) Payments() parking.PaymentStore { return paymentStore{m} }
func (m *Stores) Receipts() parking.ReceiptStore { return receiptStore{m} }
func (m *Stores) Gates() parking.GateStore       { return gateStore{m} }

// Atomic serializes transactions and hands fn a store view that journals its
// own writes. A failed unit undoes exactly those writes, in reverse; rows
// committed by other callers in the meantime stay put, and issued IDs are
// never reused.
func (m *Stores) Atomic(ctx context.Context, fn func(parking.Stores) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &tx{m: m}
	if err := fn(t); err != nil {
		t.rollback()
		return err
	}
	return nil
}

// tx is the transactional view passed to an Atomic fn. Reads go straight to
// the shared state; each write appends an undo entry.
type tx struct {
	m    *Stores
	undo []func(*state)
}

func (t *tx) addUndo(fn func(*state)) { t.undo = append(t.undo, fn) }

func (t *tx) rollback() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i](t.m.s)
	}
}

func (t *tx) Slots() parking.SlotStore       { return txSlotStore{slotStore{t.m}, t} }
func (t *tx) Tickets() parking.TicketStore   { return txTicketStore{ticketStore{t.m}, t} }
func (t *tx) Vehicles() parking.VehicleStore { return txVehicleStore{vehicleStore{t.m}, t} }
func (t *tx) Payments() parking.PaymentStore { return txPaymentStore{paymentStore{t.m}, t} }
func (t *tx) Receipts() parking.ReceiptStore { return txReceiptStore{receiptStore{t.m}, t} }
func (t *tx) Gates() parking.GateStore       { return gateStore{t.m} }

// Atomic on a tx joins the enclosing unit.
func (t *tx) Atomic(_ context.Context, fn func(parking.Stores) error) error {
	return fn(t)
}

type txSlotStore struct {
	slotStore
	t *tx
}

func (s txSlotStore) TryClaim(ctx context.Context, slotID uint) (bool, error) {
	claimed, err := s.slotStore.TryClaim(ctx, slotID)
	if err == nil && claimed {
		s.t.addUndo(func(st *state) {
			if slot, ok := st.slots[slotID]; ok {
				slot.Available = true
				st.slots[slotID] = slot
			}
		})
	}
	return claimed, err
}

func (s txSlotStore) TryRelease(ctx context.Context, slotID uint) (bool, error) {
	released, err := s.slotStore.TryRelease(ctx, slotID)
	if err == nil && released {
		s.t.addUndo(func(st *state) {
			if slot, ok := st.slots[slotID]; ok {
				slot.Available = false
				st.slots[slotID] = slot
			}
		})
	}
	return released, err
}

type txTicketStore struct {
	ticketStore
	t *tx
}

func (s txTicketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	if err := s.ticketStore.Create(ctx, ticket); err != nil {
		return err
	}
	id := ticket.ID
	s.t.addUndo(func(st *state) { delete(st.tickets, id) })
	return nil
}

func (s txTicketStore) Close(_ context.Context, id uint, exitTime time.Time) (bool, error) {
	m := s.t.m
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.s.tickets[id]
	if !ok || !ticket.Active {
		return false, nil
	}
	prev := ticket
	ticket.Active = false
	et := exitTime
	ticket.ExitTime = &et
	m.s.tickets[id] = ticket
	s.t.addUndo(func(st *state) { st.tickets[id] = prev })
	return true, nil
}

type txVehicleStore struct {
	vehicleStore
	t *tx
}

func (s txVehicleStore) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if err := s.vehicleStore.Create(ctx, vehicle); err != nil {
		return err
	}
	id := vehicle.ID
	s.t.addUndo(func(st *state) { delete(st.vehicles, id) })
	return nil
}

type txPaymentStore struct {
	paymentStore
	t *tx
}

func (s txPaymentStore) Create(ctx context.Context, payment *models.Payment) error {
	if err := s.paymentStore.Create(ctx, payment); err != nil {
		return err
	}
	id := payment.ID
	s.t.addUndo(func(st *state) { delete(st.payments, id) })
	return nil
}

type txReceiptStore struct {
	receiptStore
	t *tx
}

func (s txReceiptStore) Create(ctx context.Context, receipt *models.Receipt) error {
	if err := s.receiptStore.Create(ctx, receipt); err != nil {
		return err
	}
	id := receipt.ID
	s.t.addUndo(func(st *state) { delete(st.receipts, id) })
	return nil
}

type slotStore struct{ m *Stores }

func (s slotStore) ListAvailable(_ context.Context, lotID uint, slotType types.VehicleType) ([]models.ParkingSlot, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var slots []models.ParkingSlot
	for _, slot := range s.m.s.slots {
		if slot.ParkingLotID == lotID && slot.SlotType == slotType && slot.Available {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].ID < slots[j].ID })
	return slots, nil
}

func (s slotStore) CountAvailable(ctx context.Context, lotID uint, slotType types.VehicleType) (int64, error) {
	slots, err := s.ListAvailable(ctx, lotID, slotType)
	if err != nil {
		return 0, err
	}
	return int64(len(slots)), nil
}

func (s slotStore) TryClaim(_ context.Context, slotID uint) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	slot, ok := s.m.s.slots[slotID]
	if !ok || !slot.Available {
		return false, nil
	}
	slot.Available = false
	s.m.s.slots[slotID] = slot
	return true, nil
}

func (s slotStore) TryRelease(_ context.Context, slotID uint) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	slot, ok := s.m.s.slots[slotID]
	if !ok || slot.Available {
		return false, nil
	}
	slot.Available = true
	s.m.s.slots[slotID] = slot
	return true, nil
}

type ticketStore struct{ m *Stores }

func (s ticketStore) FindByID(_ context.Context, id uint) (*models.Ticket, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	ticket, ok := s.m.s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("%w: ticket %d", parking.ErrNotFound, id)
	}
	if vehicle, ok := s.m.s.vehicles[ticket.VehicleID]; ok {
		v := vehicle
		ticket.Vehicle = &v
	}
	if slot, ok := s.m.s.slots[ticket.SlotID]; ok {
		sl := slot
		ticket.Slot = &sl
	}
	return &ticket, nil
}

func (s ticketStore) FindActiveByVehicle(_ context.Context, vehicleID uint) (*models.Ticket, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, ticket := range s.m.s.tickets {
		if ticket.VehicleID == vehicleID && ticket.Active {
			t := ticket
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: no active ticket for vehicle %d", parking.ErrNotFound, vehicleID)
}

func (s ticketStore) Create(_ context.Context, ticket *models.Ticket) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if ticket.ID == 0 {
		ticket.ID = s.m.nextID("tickets")
	}
	stored := *ticket
	stored.Vehicle, stored.Slot, stored.EntryGate = nil, nil, nil
	s.m.s.tickets[ticket.ID] = stored
	return nil
}

func (s ticketStore) Close(_ context.Context, id uint, exitTime time.Time) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	ticket, ok := s.m.s.tickets[id]
	if !ok || !ticket.Active {
		return false, nil
	}
	ticket.Active = false
	t := exitTime
	ticket.ExitTime = &t
	s.m.s.tickets[id] = ticket
	return true, nil
}

type vehicleStore struct{ m *Stores }

func (s vehicleStore) FindByPlate(_ context.Context, plateNo string) (*models.Vehicle, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, vehicle := range s.m.s.vehicles {
		if vehicle.PlateNo == plateNo {
			v := vehicle
			return &v, nil
		}
	}
	return nil, fmt.Errorf("%w: vehicle %s", parking.ErrNotFound, plateNo)
}

func (s vehicleStore) Create(_ context.Context, vehicle *models.Vehicle) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if vehicle.ID == 0 {
		vehicle.ID = s.m.nextID("vehicles")
	}
	s.m.s.vehicles[vehicle.ID] = *vehicle
	return nil
}

type paymentStore struct{ m *Stores }

func (s paymentStore) Create(_ context.Context, payment *models.Payment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if payment.ID == 0 {
		payment.ID = s.m.nextID("payments")
	}
	stored := *payment
	stored.Ticket = nil
	s.m.s.payments[payment.ID] = stored
	return nil
}

func (s paymentStore) ListByTicket(_ context.Context, ticketID uint) ([]models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var payments []models.Payment
	for _, payment := range s.m.s.payments {
		if payment.TicketID == ticketID {
			payments = append(payments, payment)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return payments, nil
}

func (s paymentStore) HasPaid(_ context.Context, ticketID uint) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, payment := range s.m.s.payments {
		if payment.TicketID == ticketID && payment.Status == types.PAYMENT_PAID {
			return true, nil
		}
	}
	return false, nil
}

type receiptStore struct{ m *Stores }

func (s receiptStore) Create(_ context.Context, receipt *models.Receipt) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if receipt.ID == 0 {
		receipt.ID = s.m.nextID("receipts")
	}
	stored := *receipt
	stored.Ticket = nil
	s.m.s.receipts[receipt.ID] = stored
	return nil
}

func (s receiptStore) FindByTicket(_ context.Context, ticketID uint) (*models.Receipt, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, receipt := range s.m.s.receipts {
		if receipt.TicketID == ticketID {
			r := receipt
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: no receipt for ticket %d", parking.ErrNotFound, ticketID)
}

type gateStore struct{ m *Stores }

func (s gateStore) FindByID(_ context.Context, id uint) (*models.EntryGate, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	gate, ok := s.m.s.gates[id]
	if !ok {
		return nil, fmt.Errorf("%w: entry gate %d", parking.ErrNotFound, id)
	}
	if lot, ok := s.m.s.lots[gate.ParkingLotID]; ok {
		l := lot
		gate.ParkingLot = &l
	}
	return &gate, nil
}
