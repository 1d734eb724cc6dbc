package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/repository/common"
)

// JobFilter описывает параметры выборки списка работ.
type JobFilter struct {
	Status           string
	ClientID         *uuid.UUID
	FreelancerID     *uuid.UUID
	GenderPreference string
	Limit            int
	Offset           int
}

// JobRepository отвечает за работу с таблицей jobs.
// Все переходы статусов выполняются через compare-and-swap по текущему статусу.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository создаёт экземпляр репозитория.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create создаёт новую работу в статусе open.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (client_id, title, description, amount, number_of_people, address, gender_preference, status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		job.ClientID, job.Title, job.Description, job.Amount, job.NumberOfPeople,
		job.Address, job.GenderPreference, models.JobStatusOpen,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}
	job.Status = models.JobStatusOpen
	job.IsActive = true
	return nil
}

// GetByID возвращает работу по ID.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return common.GetByID[models.Job](ctx, r.db, "jobs", id, common.ErrNotFound)
}

// List возвращает работы по фильтру с пагинацией, новые первыми.
func (r *JobRepository) List(ctx context.Context, filter JobFilter) ([]models.Job, error) {
	conditions := []string{"is_active = TRUE"}
	args := []interface{}{}
	argn := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argn))
		args = append(args, filter.Status)
		argn++
	}
	if filter.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argn))
		args = append(args, *filter.ClientID)
		argn++
	}
	if filter.FreelancerID != nil {
		conditions = append(conditions, fmt.Sprintf("freelancer_id = $%d", argn))
		args = append(args, *filter.FreelancerID)
		argn++
	}
	if filter.GenderPreference != "" {
		conditions = append(conditions, fmt.Sprintf("gender_preference IN ($%d, 'any')", argn))
		args = append(args, filter.GenderPreference)
		argn++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT * FROM jobs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(conditions, " AND "), argn, argn+1)
	args = append(args, limit, filter.Offset)

	jobs := []models.Job{}
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("job repository: list %w", err)
	}
	return jobs, nil
}

// GetActiveByFreelancer возвращает активную работу фрилансера, если она есть.
func (r *JobRepository) GetActiveByFreelancer(ctx context.Context, freelancerID uuid.UUID) (*models.Job, error) {
	var job models.Job
	query := `
		SELECT * FROM jobs
		WHERE freelancer_id = $1 AND status = ANY($2)
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &job, query, freelancerID, pq.Array(models.ActiveJobStatuses)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("job repository: get active by freelancer %w", err)
	}
	return &job, nil
}

// Assign назначает фрилансера на работу: open -> assigned.
// Частичный уникальный индекс по freelancer_id гарантирует одну активную работу.
func (r *JobRepository) Assign(ctx context.Context, jobID, freelancerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET freelancer_id = $2, status = $3, assigned_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4
	`, jobID, freelancerID, models.JobStatusAssigned, models.JobStatusOpen)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("job repository: assign %w", err)
	}
	return common.RequireRowsAffected(res)
}

// MarkWorkDone отмечает работу выполненной: assigned -> waiting_for_payment.
func (r *JobRepository) MarkWorkDone(ctx context.Context, jobID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, work_completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, jobID, models.JobStatusWaitingForPayment, models.JobStatusAssigned)
	if err != nil {
		return fmt.Errorf("job repository: mark work done %w", err)
	}
	return common.RequireRowsAffected(res)
}

// Complete закрывает оплаченную работу: paid -> completed.
func (r *JobRepository) Complete(ctx context.Context, jobID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, is_active = FALSE, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, jobID, models.JobStatusCompleted, models.JobStatusPaid)
	if err != nil {
		return fmt.Errorf("job repository: complete %w", err)
	}
	return common.RequireRowsAffected(res)
}

// Cancel отменяет работу из любого нетерминального статуса.
func (r *JobRepository) Cancel(ctx context.Context, jobID uuid.UUID, reason *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, is_active = FALSE, cancelled_at = NOW(), cancellation_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ($4, $5)
	`, jobID, models.JobStatusCancelled, reason, models.JobStatusCompleted, models.JobStatusCancelled)
	if err != nil {
		return fmt.Errorf("job repository: cancel %w", err)
	}
	return common.RequireRowsAffected(res)
}

// SetPaymentOrder привязывает к работе платёжный ордер шлюза.
func (r *JobRepository) SetPaymentOrder(ctx context.Context, jobID uuid.UUID, orderID, method string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET payment_order_id = $2, payment_status = $3, payment_method = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`, jobID, orderID, models.JobPaymentStatusInitiated, method, models.JobStatusWaitingForPayment)
	if err != nil {
		return fmt.Errorf("job repository: set payment order %w", err)
	}
	return common.RequireRowsAffected(res)
}

// GetByPaymentOrderID возвращает работу по идентификатору платёжного ордера.
func (r *JobRepository) GetByPaymentOrderID(ctx context.Context, orderID string) (*models.Job, error) {
	return common.GetByField[models.Job](ctx, r.db, "jobs", "payment_order_id", orderID, common.ErrNotFound)
}
