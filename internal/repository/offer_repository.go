package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/repository/common"
)

// OfferRepository отвечает за работу с таблицей offers.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository создаёт экземпляр репозитория.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// Create создаёт отклик в статусе pending.
// Частичный уникальный индекс (job_id, freelancer_id) не даёт второй
// нерешённый отклик того же фрилансера на ту же работу.
func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	query := `
		INSERT INTO offers (job_id, freelancer_id, client_id, original_amount, offered_amount, message, offer_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		offer.JobID, offer.FreelancerID, offer.ClientID,
		offer.OriginalAmount, offer.OfferedAmount, offer.Message, offer.OfferType, models.OfferStatusPending,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("offer repository: create %w", err)
	}
	offer.Status = models.OfferStatusPending
	return nil
}

// GetByID возвращает отклик по ID.
func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	return common.GetByID[models.Offer](ctx, r.db, "offers", id, common.ErrNotFound)
}

// ListByJob возвращает отклики на работу, новые первыми.
func (r *OfferRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Offer, error) {
	offers := []models.Offer{}
	query := `SELECT * FROM offers WHERE job_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &offers, query, jobID); err != nil {
		return nil, fmt.Errorf("offer repository: list by job %w", err)
	}
	return offers, nil
}

// ListByFreelancer возвращает отклики фрилансера, новые первыми.
func (r *OfferRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Offer, error) {
	offers := []models.Offer{}
	query := `SELECT * FROM offers WHERE freelancer_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &offers, query, freelancerID); err != nil {
		return nil, fmt.Errorf("offer repository: list by freelancer %w", err)
	}
	return offers, nil
}

// HasActiveOffer проверяет наличие нерешённого или принятого отклика
// фрилансера на работу.
func (r *OfferRepository) HasActiveOffer(ctx context.Context, jobID, freelancerID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM offers
			WHERE job_id = $1 AND freelancer_id = $2 AND status IN ($3, $4)
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, jobID, freelancerID, models.OfferStatusPending, models.OfferStatusAccepted); err != nil {
		return false, fmt.Errorf("offer repository: has active offer %w", err)
	}
	return exists, nil
}

// Accept принимает отклик и назначает работу одной транзакцией:
// отклик pending -> accepted, работа open -> assigned, остальные
// нерешённые отклики на работу отклоняются скопом.
func (r *OfferRepository) Accept(ctx context.Context, offerID uuid.UUID, responseMessage *string) (*models.Offer, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var offer models.Offer
	if err := tx.GetContext(ctx, &offer, `SELECT * FROM offers WHERE id = $1 FOR UPDATE`, offerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("offer repository: accept lock offer %w", err)
	}
	if offer.Status != models.OfferStatusPending {
		return nil, common.ErrStaleState
	}

	// Назначение работы. Ноль строк — работа уже назначена или закрыта.
	res, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET freelancer_id = $2, status = $3, assigned_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4
	`, offer.JobID, offer.FreelancerID, models.JobStatusAssigned, models.JobStatusOpen)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("offer repository: accept assign job %w", err)
	}
	if err := common.RequireRowsAffected(res); err != nil {
		return nil, err
	}

	if err := tx.GetContext(ctx, &offer, `
		UPDATE offers
		SET status = $2, response_message = $3, responded_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, offerID, models.OfferStatusAccepted, responseMessage); err != nil {
		return nil, fmt.Errorf("offer repository: accept update offer %w", err)
	}

	// Остальные отклики на работу отклоняем скопом.
	_, err = tx.ExecContext(ctx, `
		UPDATE offers
		SET status = $3, response_message = $4, responded_at = NOW(), updated_at = NOW()
		WHERE job_id = $1 AND id <> $2 AND status = $5
	`, offer.JobID, offerID, models.OfferStatusRejected, "Another offer was accepted", models.OfferStatusPending)
	if err != nil {
		return nil, fmt.Errorf("offer repository: accept reject others %w", err)
	}

	return &offer, tx.Commit()
}

// Reject отклоняет отклик: pending -> rejected.
func (r *OfferRepository) Reject(ctx context.Context, offerID uuid.UUID, responseMessage *string) (*models.Offer, error) {
	var offer models.Offer
	query := `
		UPDATE offers
		SET status = $2, response_message = $3, responded_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING *
	`
	if err := r.db.GetContext(ctx, &offer, query, offerID, models.OfferStatusRejected, responseMessage, models.OfferStatusPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrStaleState
		}
		return nil, fmt.Errorf("offer repository: reject %w", err)
	}
	return &offer, nil
}

// Withdraw отзывает собственный отклик фрилансера: pending -> rejected.
func (r *OfferRepository) Withdraw(ctx context.Context, offerID, freelancerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE offers
		SET status = $3, response_message = 'Withdrawn by freelancer', responded_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND freelancer_id = $2 AND status = $4
	`, offerID, freelancerID, models.OfferStatusRejected, models.OfferStatusPending)
	if err != nil {
		return fmt.Errorf("offer repository: withdraw %w", err)
	}
	return common.RequireRowsAffected(res)
}
