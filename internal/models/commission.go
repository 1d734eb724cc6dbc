package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// CommissionEntry представляет запись комиссионной книги фрилансера.
// Записи никогда не удаляются — книга служит журналом аудита.
type CommissionEntry struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	FreelancerID         uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	JobID                uuid.UUID  `db:"job_id" json:"job_id"`
	Amount               float64    `db:"amount" json:"amount"`
	Type                 string     `db:"type" json:"type"`
	Status               string     `db:"status" json:"status"`
	Description          string     `db:"description" json:"description"`
	DueDate              time.Time  `db:"due_date" json:"due_date"`
	PaidAt               *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	PaymentMethod        *string    `db:"payment_method" json:"payment_method,omitempty"`
	PaymentTransactionID *string    `db:"payment_transaction_id" json:"payment_transaction_id,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// IsOverdue сообщает, просрочена ли запись на момент now.
func (e *CommissionEntry) IsOverdue(now time.Time) bool {
	return e.Status == CommissionStatusPending && now.After(e.DueDate)
}

// DueSummary агрегат по непогашенным записям фрилансера.
type DueSummary struct {
	TotalDue float64 `db:"total_due" json:"total_due"`
	Count    int     `db:"count" json:"count"`
}

// SplitCommission делит сумму работы на комиссию платформы и чистую выплату фрилансеру.
// Комиссия округляется до целой денежной единицы, остаток достаётся фрилансеру,
// поэтому commission + net == amount всегда.
func SplitCommission(amount, rate float64) (commission, net float64) {
	commission = math.Round(amount * rate)
	return commission, amount - commission
}

// Итог обработки записи при погашении задолженности.
const (
	DueOutcomeFullyPaid     = "fully_paid"
	DueOutcomePartiallyPaid = "partially_paid"
)

// DueAllocation описывает, как платёж лёг на конкретную запись книги.
// При частичном покрытии Remainder — сумма новой записи с непогашенным остатком.
type DueAllocation struct {
	EntryID   uuid.UUID `json:"entry_id"`
	Applied   float64   `json:"applied"`
	Outcome   string    `json:"outcome"`
	Remainder float64   `json:"remainder,omitempty"`
}

// PlanDueClearing распределяет платёж amount по непогашенным записям в порядке
// их создания (старейший долг гасится первым). Запись либо закрывается целиком,
// либо — последняя затронутая — делится: исходная запись уменьшается до
// покрытой суммы и помечается оплаченной, остаток выносится в новую запись.
// Записи должны быть отсортированы по возрастанию created_at.
func PlanDueClearing(entries []CommissionEntry, amount float64) ([]DueAllocation, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("сумма платежа должна быть положительной")
	}

	var totalDue float64
	for _, e := range entries {
		if e.Status != CommissionStatusPending {
			return nil, fmt.Errorf("запись %s не является непогашенной", e.ID)
		}
		totalDue += e.Amount
	}
	if amount > totalDue {
		return nil, fmt.Errorf("сумма платежа превышает общую задолженность")
	}

	remaining := amount
	allocations := make([]DueAllocation, 0, len(entries))

	for _, e := range entries {
		if remaining <= 0 {
			break
		}

		if remaining >= e.Amount {
			allocations = append(allocations, DueAllocation{
				EntryID: e.ID,
				Applied: e.Amount,
				Outcome: DueOutcomeFullyPaid,
			})
			remaining -= e.Amount
			continue
		}

		allocations = append(allocations, DueAllocation{
			EntryID:   e.ID,
			Applied:   remaining,
			Outcome:   DueOutcomePartiallyPaid,
			Remainder: e.Amount - remaining,
		})
		remaining = 0
	}

	return allocations, nil
}
