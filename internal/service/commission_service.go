package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/pkg/apperror"
	"github.com/gigwork/backend/internal/repository"
)

// LedgerRepository описывает зависимости CommissionService от слоя хранилища.
type LedgerRepository interface {
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.CommissionEntry, error)
	GetDueSummary(ctx context.Context, freelancerID uuid.UUID) (*models.DueSummary, error)
	ClearDue(ctx context.Context, freelancerID uuid.UUID, amount float64) (*models.Transaction, []models.DueAllocation, error)
}

// CommissionService отвечает за комиссионную книгу и допуск фрилансера к работе.
// Фрилансер с задолженностью, достигшей порога, не может брать новые работы,
// пока не погасит долг.
type CommissionService struct {
	repo      LedgerRepository
	threshold float64
}

// LedgerView — комиссионная книга фрилансера с агрегатами допуска.
type LedgerView struct {
	Entries         []LedgerEntryView `json:"entries"`
	TotalDue        float64           `json:"total_due"`
	PendingCount    int               `json:"pending_count"`
	CanWork         bool              `json:"can_work"`
	Threshold       float64           `json:"threshold"`
	IsOverThreshold bool              `json:"is_over_threshold"`
}

// LedgerEntryView — запись книги с вычисленным признаком просрочки.
type LedgerEntryView struct {
	models.CommissionEntry
	IsOverdue bool `json:"is_overdue"`
}

// ClearDueResult — итог погашения задолженности.
type ClearDueResult struct {
	Transaction *models.Transaction    `json:"transaction"`
	Allocations []models.DueAllocation `json:"allocations"`
	TotalDue    float64                `json:"total_due"`
	CanWork     bool                   `json:"can_work"`
}

// WorkEligibility — результат проверки допуска к работе.
type WorkEligibility struct {
	CanWork   bool    `json:"can_work"`
	TotalDue  float64 `json:"total_due"`
	Threshold float64 `json:"threshold"`
}

// NewCommissionService создаёт сервис комиссионной книги.
func NewCommissionService(repo LedgerRepository, threshold float64) *CommissionService {
	return &CommissionService{repo: repo, threshold: threshold}
}

// GetLedger возвращает книгу фрилансера с агрегатами.
func (s *CommissionService) GetLedger(ctx context.Context, freelancerID uuid.UUID) (*LedgerView, error) {
	entries, err := s.repo.ListByFreelancer(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.GetDueSummary(ctx, freelancerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]LedgerEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, LedgerEntryView{
			CommissionEntry: e,
			IsOverdue:       e.IsOverdue(now),
		})
	}

	return &LedgerView{
		Entries:         views,
		TotalDue:        summary.TotalDue,
		PendingCount:    summary.Count,
		CanWork:         summary.TotalDue < s.threshold,
		Threshold:       s.threshold,
		IsOverThreshold: summary.TotalDue >= s.threshold,
	}, nil
}

// CheckEligibility проверяет допуск фрилансера к новым работам.
func (s *CommissionService) CheckEligibility(ctx context.Context, freelancerID uuid.UUID) (*WorkEligibility, error) {
	summary, err := s.repo.GetDueSummary(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	return &WorkEligibility{
		CanWork:   summary.TotalDue < s.threshold,
		TotalDue:  summary.TotalDue,
		Threshold: s.threshold,
	}, nil
}

// ClearDue гасит задолженность фрилансера из кошелька. Платёж ложится на
// записи книги от старейшей к новейшей; последняя затронутая запись при
// частичном покрытии делится на оплаченную и новую непогашенную части.
func (s *CommissionService) ClearDue(ctx context.Context, freelancerID uuid.UUID, amount float64) (*ClearDueResult, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма платежа должна быть положительной")
	}

	summary, err := s.repo.GetDueSummary(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	if summary.TotalDue <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "задолженность отсутствует")
	}
	if amount > summary.TotalDue {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма платежа превышает задолженность").WithDetails(map[string]any{
			"total_due": summary.TotalDue,
		})
	}

	transaction, allocations, err := s.repo.ClearDue(ctx, freelancerID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientFunds
		}
		return nil, err
	}

	remaining := summary.TotalDue - amount
	return &ClearDueResult{
		Transaction: transaction,
		Allocations: allocations,
		TotalDue:    remaining,
		CanWork:     remaining < s.threshold,
	}, nil
}
