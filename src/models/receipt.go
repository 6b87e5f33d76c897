package models

import (
	"time"

	"pms/src/types"
)

// Receipt is the immutable record of a successful payment, generated in the
// same atomic step that frees the slot.
type Receipt struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	ReceiptNumber   string    `gorm:"uniqueIndex" json:"receipt_number"`
	TicketID        uint      `gorm:"index" json:"ticket_id"`
	Amount          float64   `json:"amount"`
	HourlyRate      float64   `json:"hourly_rate"`
	DurationMinutes int64     `json:"duration_minutes"`
	GeneratedAt     time.Time `json:"generated_at"`

	Ticket *Ticket `json:"-"`

	types.Timestamps
}
