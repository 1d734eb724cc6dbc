package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func pendingEntry(amount float64, createdAt time.Time) CommissionEntry {
	return CommissionEntry{
		ID:        uuid.New(),
		Amount:    amount,
		Type:      CommissionTypeDue,
		Status:    CommissionStatusPending,
		DueDate:   createdAt.AddDate(0, 0, 30),
		CreatedAt: createdAt,
	}
}

func TestSplitCommission(t *testing.T) {
	commission, net := SplitCommission(2000, 0.10)
	if commission != 200 {
		t.Fatalf("ожидалась комиссия 200, получили %v", commission)
	}
	if net != 1800 {
		t.Fatalf("ожидалась выплата 1800, получили %v", net)
	}

	// Сумма частей всегда равна исходной сумме.
	for _, amount := range []float64{1, 99, 555, 1234.5, 70000} {
		c, n := SplitCommission(amount, 0.10)
		if c+n != amount {
			t.Fatalf("комиссия %v и выплата %v не сходятся к %v", c, n, amount)
		}
	}
}

func TestPlanDueClearing_FullAndPartial(t *testing.T) {
	base := time.Now()
	entries := []CommissionEntry{
		pendingEntry(100, base.Add(-3*time.Hour)),
		pendingEntry(300, base.Add(-2*time.Hour)),
		pendingEntry(50, base.Add(-time.Hour)),
	}

	allocations, err := PlanDueClearing(entries, 250)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if len(allocations) != 2 {
		t.Fatalf("ожидалось 2 аллокации, получили %d", len(allocations))
	}

	first := allocations[0]
	if first.EntryID != entries[0].ID || first.Applied != 100 || first.Outcome != DueOutcomeFullyPaid {
		t.Fatalf("старейшая запись должна закрыться целиком: %+v", first)
	}

	second := allocations[1]
	if second.EntryID != entries[1].ID || second.Applied != 150 || second.Outcome != DueOutcomePartiallyPaid {
		t.Fatalf("вторая запись должна быть покрыта частично: %+v", second)
	}
	if second.Remainder != 150 {
		t.Fatalf("остаток второй записи должен быть 150, получили %v", second.Remainder)
	}
}

func TestPlanDueClearing_ExactTotal(t *testing.T) {
	base := time.Now()
	entries := []CommissionEntry{
		pendingEntry(100, base.Add(-2*time.Hour)),
		pendingEntry(200, base.Add(-time.Hour)),
	}

	allocations, err := PlanDueClearing(entries, 300)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("ожидалось 2 аллокации, получили %d", len(allocations))
	}
	for _, a := range allocations {
		if a.Outcome != DueOutcomeFullyPaid {
			t.Fatalf("при полном погашении все записи закрываются целиком: %+v", a)
		}
	}
}

func TestPlanDueClearing_Errors(t *testing.T) {
	base := time.Now()
	entries := []CommissionEntry{pendingEntry(100, base)}

	if _, err := PlanDueClearing(entries, 0); err == nil {
		t.Fatalf("нулевой платёж должен отклоняться")
	}
	if _, err := PlanDueClearing(entries, -10); err == nil {
		t.Fatalf("отрицательный платёж должен отклоняться")
	}
	if _, err := PlanDueClearing(entries, 150); err == nil {
		t.Fatalf("платёж больше общей задолженности должен отклоняться")
	}

	paid := pendingEntry(50, base)
	paid.Status = CommissionStatusPaid
	if _, err := PlanDueClearing([]CommissionEntry{paid}, 10); err == nil {
		t.Fatalf("оплаченная запись не участвует в погашении")
	}
}

func TestCommissionEntry_IsOverdue(t *testing.T) {
	now := time.Now()

	entry := pendingEntry(100, now.AddDate(0, 0, -40))
	if !entry.IsOverdue(now) {
		t.Fatalf("запись с истёкшим сроком должна быть просроченной")
	}

	fresh := pendingEntry(100, now)
	if fresh.IsOverdue(now) {
		t.Fatalf("свежая запись не должна быть просроченной")
	}

	entry.Status = CommissionStatusPaid
	if entry.IsOverdue(now) {
		t.Fatalf("оплаченная запись не считается просроченной")
	}
}
