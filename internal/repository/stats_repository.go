package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gigwork/backend/internal/models"
)

// PlatformStats — агрегированные показатели платформы.
type PlatformStats struct {
	TotalUsers       int     `db:"total_users" json:"total_users"`
	TotalJobs        int     `db:"total_jobs" json:"total_jobs"`
	OpenJobs         int     `db:"open_jobs" json:"open_jobs"`
	CompletedJobs    int     `db:"completed_jobs" json:"completed_jobs"`
	TotalPaid        float64 `db:"total_paid" json:"total_paid"`
	PendingDueTotal  float64 `db:"pending_due_total" json:"pending_due_total"`
}

// StatsRepository собирает агрегаты по платформе для публичной статистики.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository создаёт экземпляр репозитория.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetPlatformStats считает сводку одним запросом.
func (r *StatsRepository) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	var stats PlatformStats
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE is_active = TRUE) AS total_users,
			(SELECT COUNT(*) FROM jobs) AS total_jobs,
			(SELECT COUNT(*) FROM jobs WHERE status = $1) AS open_jobs,
			(SELECT COUNT(*) FROM jobs WHERE status = $2) AS completed_jobs,
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = $3 AND status = $4) AS total_paid,
			(SELECT COALESCE(SUM(amount), 0) FROM commission_ledger WHERE status = $5) AS pending_due_total
	`
	if err := r.db.GetContext(ctx, &stats, query,
		models.JobStatusOpen, models.JobStatusCompleted,
		models.TransactionTypePayment, models.TransactionStatusCompleted,
		models.CommissionStatusPending,
	); err != nil {
		return nil, fmt.Errorf("stats repository: get platform stats %w", err)
	}
	return &stats, nil
}
