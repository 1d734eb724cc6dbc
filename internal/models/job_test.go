package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestJob_IsTerminal(t *testing.T) {
	job := &Job{Status: JobStatusAssigned}
	if job.IsTerminal() {
		t.Fatalf("assigned не является конечным статусом")
	}

	for _, status := range []string{JobStatusCompleted, JobStatusCancelled} {
		job.Status = status
		if !job.IsTerminal() {
			t.Fatalf("%s должен быть конечным статусом", status)
		}
	}
}

func TestJob_PaymentCompleted(t *testing.T) {
	job := &Job{Status: JobStatusWaitingForPayment}
	if job.PaymentCompleted() {
		t.Fatalf("неоплаченная работа не должна считаться оплаченной")
	}

	job.Status = JobStatusPaid
	if !job.PaymentCompleted() {
		t.Fatalf("статус paid означает завершённую оплату")
	}

	job.Status = JobStatusWaitingForPayment
	completed := JobPaymentStatusCompleted
	job.PaymentStatus = &completed
	if !job.PaymentCompleted() {
		t.Fatalf("payment_status=completed означает завершённую оплату")
	}
}

func TestJob_Ownership(t *testing.T) {
	clientID := uuid.New()
	freelancerID := uuid.New()

	job := &Job{ClientID: clientID, FreelancerID: &freelancerID}

	if !job.IsOwnedBy(clientID) || job.IsOwnedBy(freelancerID) {
		t.Fatalf("владелец работы определяется по client_id")
	}
	if !job.IsAssignedTo(freelancerID) || job.IsAssignedTo(clientID) {
		t.Fatalf("исполнитель определяется по freelancer_id")
	}

	job.FreelancerID = nil
	if job.IsAssignedTo(freelancerID) {
		t.Fatalf("работа без исполнителя никому не назначена")
	}
}
