package models

import (
	"time"

	"github.com/google/uuid"
)

// Job описывает работу, размещённую клиентом.
// Поля оплаты заполняются по мере прохождения платёжного цикла.
type Job struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	ClientID             uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID         *uuid.UUID `db:"freelancer_id" json:"freelancer_id,omitempty"`
	Title                string     `db:"title" json:"title"`
	Description          string     `db:"description" json:"description"`
	Amount               float64    `db:"amount" json:"amount"`
	NumberOfPeople       int        `db:"number_of_people" json:"number_of_people"`
	Address              *string    `db:"address" json:"address,omitempty"`
	GenderPreference     string     `db:"gender_preference" json:"gender_preference"`
	Status               string     `db:"status" json:"status"`
	IsActive             bool       `db:"is_active" json:"is_active"`
	AssignedAt           *time.Time `db:"assigned_at" json:"assigned_at,omitempty"`
	WorkCompletedAt      *time.Time `db:"work_completed_at" json:"work_completed_at,omitempty"`
	PaymentOrderID       *string    `db:"payment_order_id" json:"payment_order_id,omitempty"`
	PaymentStatus        *string    `db:"payment_status" json:"payment_status,omitempty"`
	PaymentMethod        *string    `db:"payment_method" json:"payment_method,omitempty"`
	PaymentTransactionID *string    `db:"payment_transaction_id" json:"payment_transaction_id,omitempty"`
	PaidAt               *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CompletedAt          *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt          *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason   *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// IsTerminal сообщает, достигла ли работа конечного статуса.
func (j *Job) IsTerminal() bool {
	_, ok := TerminalJobStatuses[j.Status]
	return ok
}

// IsAssignedTo проверяет, назначена ли работа указанному фрилансеру.
func (j *Job) IsAssignedTo(freelancerID uuid.UUID) bool {
	return j.FreelancerID != nil && *j.FreelancerID == freelancerID
}

// IsOwnedBy проверяет принадлежность работы клиенту.
func (j *Job) IsOwnedBy(clientID uuid.UUID) bool {
	return j.ClientID == clientID
}

// PaymentCompleted сообщает, завершена ли уже оплата работы.
// Используется для идемпотентной обработки повторных callback от шлюза.
func (j *Job) PaymentCompleted() bool {
	if j.Status == JobStatusPaid || j.Status == JobStatusCompleted {
		return true
	}
	return j.PaymentStatus != nil && *j.PaymentStatus == JobPaymentStatusCompleted
}
