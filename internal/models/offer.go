package models

import (
	"time"

	"github.com/google/uuid"
)

// Offer представляет отклик фрилансера на работу.
// ClientID денормализован из работы для удобства выборок.
type Offer struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	JobID           uuid.UUID  `db:"job_id" json:"job_id"`
	FreelancerID    uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	ClientID        uuid.UUID  `db:"client_id" json:"client_id"`
	OriginalAmount  float64    `db:"original_amount" json:"original_amount"`
	OfferedAmount   float64    `db:"offered_amount" json:"offered_amount"`
	Message         *string    `db:"message" json:"message,omitempty"`
	OfferType       string     `db:"offer_type" json:"offer_type"`
	Status          string     `db:"status" json:"status"`
	ResponseMessage *string    `db:"response_message" json:"response_message,omitempty"`
	RespondedAt     *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// IsResolved сообщает, получен ли уже ответ на отклик.
func (o *Offer) IsResolved() bool {
	return o.Status != OfferStatusPending
}
