package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet представляет кошелёк пользователя. Создаётся лениво при первом обращении.
// Баланс не может уходить в минус — это проверяется до любого списания.
type Wallet struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Balance   float64   `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction представляет неизменяемую запись о движении денег.
// Создаётся ровно один раз на событие расчёта и далее не изменяется.
type Transaction struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	JobID         *uuid.UUID `db:"job_id" json:"job_id,omitempty"`
	ClientID      *uuid.UUID `db:"client_id" json:"client_id,omitempty"`
	FreelancerID  *uuid.UUID `db:"freelancer_id" json:"freelancer_id,omitempty"`
	Amount        float64    `db:"amount" json:"amount"`
	Type          string     `db:"type" json:"type"`
	Status        string     `db:"status" json:"status"`
	Description   *string    `db:"description" json:"description,omitempty"`
	PaymentMethod *string    `db:"payment_method" json:"payment_method,omitempty"`
	ExternalTxID  *string    `db:"external_tx_id" json:"external_tx_id,omitempty"`
	ReferenceID   *string    `db:"reference_id" json:"reference_id,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
