package models

import (
	"time"

	"pms/src/types"
)

// Payment records one settlement attempt. A ticket may accumulate failed
// attempts but carries at most one paid record over its lifetime.
type Payment struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	TicketID      uint                `gorm:"index" json:"ticket_id"`
	Amount        float64             `json:"amount"`
	Timestamp     time.Time           `json:"timestamp"`
	Status        types.PaymentStatus `gorm:"default:'pending'" json:"status"`
	FailureReason *string             `json:"failure_reason,omitempty"`
	GatewayRef    *string             `json:"gateway_ref,omitempty"`

	Ticket *Ticket `json:"-"`

	types.Timestamps
}
