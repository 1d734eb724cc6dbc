package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gigwork/backend/internal/models"
)

// ErrInsufficientFunds возвращается при попытке списать больше, чем есть на кошельке.
var ErrInsufficientFunds = errors.New("insufficient funds")

// LedgerRepository отвечает за комиссионную книгу фрилансеров.
// Записи книги не удаляются: погашение помечает их оплаченными,
// частичное покрытие делит запись на оплаченную и новую непогашенную.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository создаёт экземпляр репозитория.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreateDue добавляет запись о начисленной комиссии.
func (r *LedgerRepository) CreateDue(ctx context.Context, entry *models.CommissionEntry) error {
	query := `
		INSERT INTO commission_ledger (freelancer_id, job_id, amount, type, status, description, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		entry.FreelancerID, entry.JobID, entry.Amount, entry.Type, entry.Status, entry.Description, entry.DueDate,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return fmt.Errorf("ledger repository: create due %w", err)
	}
	return nil
}

// ListByFreelancer возвращает все записи книги фрилансера, новые первыми.
func (r *LedgerRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.CommissionEntry, error) {
	entries := []models.CommissionEntry{}
	query := `SELECT * FROM commission_ledger WHERE freelancer_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &entries, query, freelancerID); err != nil {
		return nil, fmt.Errorf("ledger repository: list by freelancer %w", err)
	}
	return entries, nil
}

// GetDueSummary возвращает сумму и число непогашенных записей фрилансера.
func (r *LedgerRepository) GetDueSummary(ctx context.Context, freelancerID uuid.UUID) (*models.DueSummary, error) {
	var summary models.DueSummary
	query := `
		SELECT COALESCE(SUM(amount), 0) AS total_due, COUNT(*) AS count
		FROM commission_ledger
		WHERE freelancer_id = $1 AND status = $2
	`
	if err := r.db.GetContext(ctx, &summary, query, freelancerID, models.CommissionStatusPending); err != nil {
		return nil, fmt.Errorf("ledger repository: get due summary %w", err)
	}
	return &summary, nil
}

// ClearDue гасит задолженность фрилансера из кошелька одной транзакцией:
// блокирует кошелёк и непогашенные записи, распределяет платёж по записям
// от старейшей к новейшей, списывает кошелёк и пишет одну транзакцию
// commission_payment. Частично покрытая запись делится: исходная
// уменьшается до покрытой суммы и помечается оплаченной, остаток
// выносится в новую непогашенную запись с тем же сроком.
func (r *LedgerRepository) ClearDue(ctx context.Context, freelancerID uuid.UUID, amount float64) (*models.Transaction, []models.DueAllocation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var wallet models.Wallet
	err = tx.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE`, freelancerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrInsufficientFunds
		}
		return nil, nil, fmt.Errorf("ledger repository: clear due lock wallet %w", err)
	}
	if wallet.Balance < amount {
		return nil, nil, ErrInsufficientFunds
	}

	entries := []models.CommissionEntry{}
	err = tx.SelectContext(ctx, &entries, `
		SELECT * FROM commission_ledger
		WHERE freelancer_id = $1 AND status = $2
		ORDER BY created_at ASC
		FOR UPDATE
	`, freelancerID, models.CommissionStatusPending)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger repository: clear due lock entries %w", err)
	}

	allocations, err := models.PlanDueClearing(entries, amount)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UnixMilli()
	reference := fmt.Sprintf("CLEAR_DUE_%d", now)
	paymentReference := fmt.Sprintf("COMM_PAY_%d", now)

	entryByID := make(map[uuid.UUID]models.CommissionEntry, len(entries))
	for _, e := range entries {
		entryByID[e.ID] = e
	}

	for _, alloc := range allocations {
		if alloc.Outcome == models.DueOutcomeFullyPaid {
			_, err = tx.ExecContext(ctx, `
				UPDATE commission_ledger
				SET status = $2, paid_at = NOW(), payment_method = $3, payment_transaction_id = $4, updated_at = NOW()
				WHERE id = $1
			`, alloc.EntryID, models.CommissionStatusPaid, models.PaymentMethodWallet, reference)
			if err != nil {
				return nil, nil, fmt.Errorf("ledger repository: clear due settle entry %w", err)
			}
			continue
		}

		// Частичное покрытие: исходная запись уменьшается до покрытой части,
		// остаток уходит в новую непогашенную запись с тем же сроком.
		_, err = tx.ExecContext(ctx, `
			UPDATE commission_ledger
			SET amount = $2, status = $3, paid_at = NOW(), payment_method = $4, payment_transaction_id = $5, updated_at = NOW()
			WHERE id = $1
		`, alloc.EntryID, alloc.Applied, models.CommissionStatusPaid, models.PaymentMethodWallet, reference)
		if err != nil {
			return nil, nil, fmt.Errorf("ledger repository: clear due split entry %w", err)
		}

		original := entryByID[alloc.EntryID]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO commission_ledger (freelancer_id, job_id, amount, type, status, description, due_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, original.FreelancerID, original.JobID, alloc.Remainder,
			original.Type, models.CommissionStatusPending,
			original.Description, original.DueDate)
		if err != nil {
			return nil, nil, fmt.Errorf("ledger repository: clear due create remainder %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance - $2, updated_at = NOW() WHERE user_id = $1
	`, freelancerID, amount)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger repository: clear due debit wallet %w", err)
	}

	var transaction models.Transaction
	err = tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (freelancer_id, amount, type, status, description, payment_method, reference_id, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING *
	`, freelancerID, amount, models.TransactionTypeCommissionPayment, models.TransactionStatusCompleted,
		"Commission due payment", models.PaymentMethodWallet, paymentReference)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger repository: clear due create transaction %w", err)
	}

	return &transaction, allocations, tx.Commit()
}
