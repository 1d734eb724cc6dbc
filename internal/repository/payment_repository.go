package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/repository/common"
)

// SettlementResult — итог расчёта по работе: созданная транзакция,
// разбивка суммы и запись книги (если комиссия отложена).
type SettlementResult struct {
	Transaction *models.Transaction     `json:"transaction"`
	Commission  float64                 `json:"commission"`
	NetAmount   float64                 `json:"net_amount"`
	LedgerEntry *models.CommissionEntry `json:"ledger_entry,omitempty"`
}

// PaymentRepository отвечает за кошельки, транзакции и расчёты по работам.
// Каждый путь оплаты выполняется одной транзакцией БД: перевод статуса
// работы, запись транзакции, движение по кошелькам и запись книги
// фиксируются или откатываются вместе.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository создаёт экземпляр репозитория.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetWallet возвращает кошелёк пользователя, создавая его при первом обращении.
func (r *PaymentRepository) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	query := `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING user_id, balance, updated_at
	`
	if err := r.db.GetContext(ctx, &wallet, query, userID); err != nil {
		return nil, fmt.Errorf("payment repository: get wallet %w", err)
	}
	return &wallet, nil
}

// ListTransactions возвращает транзакции пользователя в любой роли, новые первыми.
func (r *PaymentRepository) ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	query := `
		SELECT * FROM transactions
		WHERE client_id = $1 OR freelancer_id = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &transactions, query, userID); err != nil {
		return nil, fmt.Errorf("payment repository: list transactions %w", err)
	}
	return transactions, nil
}

// PayWallet — оплата работы с кошелька клиента.
// Работа переводится из work_done сразу в completed, комиссия удерживается
// у источника: клиент списывается на полную сумму, фрилансеру зачисляется
// чистая выплата, запись книги создаётся уже оплаченной.
func (r *PaymentRepository) PayWallet(ctx context.Context, job *models.Job, commission, net float64) (*SettlementResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var wallet models.Wallet
	err = tx.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE`, job.ClientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("payment repository: pay wallet lock %w", err)
	}
	if wallet.Balance < job.Amount {
		return nil, ErrInsufficientFunds
	}

	reference := fmt.Sprintf("ORDER_%s_%d", job.ID, time.Now().UnixMilli())

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, is_active = FALSE, payment_status = $3, payment_method = $4,
		    payment_transaction_id = $5, paid_at = NOW(), completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $6
	`, job.ID, models.JobStatusCompleted, models.JobPaymentStatusCompleted,
		models.PaymentMethodWallet, reference, models.JobStatusWorkDone)
	if err != nil {
		return nil, fmt.Errorf("payment repository: pay wallet update job %w", err)
	}
	if err := common.RequireRowsAffected(res); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance - $2, updated_at = NOW() WHERE user_id = $1
	`, job.ClientID, job.Amount)
	if err != nil {
		return nil, fmt.Errorf("payment repository: pay wallet debit client %w", err)
	}

	if err := creditWallet(ctx, tx, *job.FreelancerID, net); err != nil {
		return nil, err
	}

	var transaction models.Transaction
	err = tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (job_id, client_id, freelancer_id, amount, type, status, description, payment_method, reference_id, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING *
	`, job.ID, job.ClientID, job.FreelancerID, job.Amount,
		models.TransactionTypePayment, models.TransactionStatusCompleted,
		"Job payment via wallet", models.PaymentMethodWallet, reference)
	if err != nil {
		return nil, fmt.Errorf("payment repository: pay wallet create transaction %w", err)
	}

	var entry models.CommissionEntry
	err = tx.GetContext(ctx, &entry, `
		INSERT INTO commission_ledger (freelancer_id, job_id, amount, type, status, description, due_date, paid_at, payment_method, payment_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), $7, $8)
		RETURNING *
	`, job.FreelancerID, job.ID, commission, models.CommissionTypePaid, models.CommissionStatusPaid,
		"Commission deducted at source", models.PaymentMethodWallet, reference)
	if err != nil {
		return nil, fmt.Errorf("payment repository: pay wallet create ledger entry %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &SettlementResult{
		Transaction: &transaction,
		Commission:  commission,
		NetAmount:   net,
		LedgerEntry: &entry,
	}, nil
}

// PayCash — наличный расчёт. Клиент платит фрилансеру напрямую, платформа
// зачисляет фрилансеру чистую выплату, а комиссия остаётся задолженностью:
// создаётся непогашенная запись книги со сроком dueDate.
func (r *PaymentRepository) PayCash(ctx context.Context, job *models.Job, commission, net float64, dueDate time.Time) (*SettlementResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	reference := fmt.Sprintf("ORDER_%s_%d", job.ID, time.Now().UnixMilli())

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, payment_status = $3, payment_method = $4,
		    payment_transaction_id = $5, paid_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $6
	`, job.ID, models.JobStatusPaid, models.JobPaymentStatusCompleted,
		models.PaymentMethodCash, reference, models.JobStatusWaitingForPayment)
	if err != nil {
		return nil, fmt.Errorf("payment repository: pay cash update job %w", err)
	}
	if err := common.RequireRowsAffected(res); err != nil {
		return nil, err
	}

	if err := creditWallet(ctx, tx, *job.FreelancerID, net); err != nil {
		return nil, err
	}

	var transaction models.Transaction
	err = tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (job_id, client_id, freelancer_id, amount, type, status, description, payment_method, reference_id, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING *
	`, job.ID, job.ClientID, job.FreelancerID, job.Amount,
		models.TransactionTypePayment, models.TransactionStatusCompleted,
		"Job payment in cash", models.PaymentMethodCash, reference)
	if err != nil {
		return nil, fmt.Errorf("payment repository: pay cash create transaction %w", err)
	}

	var entry models.CommissionEntry
	err = tx.GetContext(ctx, &entry, `
		INSERT INTO commission_ledger (freelancer_id, job_id, amount, type, status, description, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, job.FreelancerID, job.ID, commission, models.CommissionTypeDue, models.CommissionStatusPending,
		"Commission due for cash payment", dueDate)
	if err != nil {
		return nil, fmt.Errorf("payment repository: pay cash create ledger entry %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &SettlementResult{
		Transaction: &transaction,
		Commission:  commission,
		NetAmount:   net,
		LedgerEntry: &entry,
	}, nil
}

// ConfirmGatewayPayment — расчёт по подтверждённому callback шлюза.
// Комиссия удерживается у источника, фрилансеру зачисляется чистая выплата.
// Уникальный индекс по external_tx_id страхует от повторного зачисления
// при ретраях webhook.
func (r *PaymentRepository) ConfirmGatewayPayment(ctx context.Context, job *models.Job, externalTxID string, commission, net float64) (*SettlementResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, payment_status = $3, payment_transaction_id = $4, paid_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $5
	`, job.ID, models.JobStatusPaid, models.JobPaymentStatusCompleted,
		externalTxID, models.JobStatusWaitingForPayment)
	if err != nil {
		return nil, fmt.Errorf("payment repository: confirm gateway update job %w", err)
	}
	if err := common.RequireRowsAffected(res); err != nil {
		return nil, err
	}

	if err := creditWallet(ctx, tx, *job.FreelancerID, net); err != nil {
		return nil, err
	}

	var transaction models.Transaction
	err = tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (job_id, client_id, freelancer_id, amount, type, status, description, payment_method, external_tx_id, reference_id, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING *
	`, job.ID, job.ClientID, job.FreelancerID, job.Amount,
		models.TransactionTypePayment, models.TransactionStatusCompleted,
		"Job payment via gateway", models.PaymentMethodUPI, externalTxID, job.PaymentOrderID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("payment repository: confirm gateway create transaction %w", err)
	}

	var entry models.CommissionEntry
	err = tx.GetContext(ctx, &entry, `
		INSERT INTO commission_ledger (freelancer_id, job_id, amount, type, status, description, due_date, paid_at, payment_method, payment_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), $7, $8)
		RETURNING *
	`, job.FreelancerID, job.ID, commission, models.CommissionTypePaid, models.CommissionStatusPaid,
		"Commission deducted at source", models.PaymentMethodUPI, externalTxID)
	if err != nil {
		return nil, fmt.Errorf("payment repository: confirm gateway create ledger entry %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &SettlementResult{
		Transaction: &transaction,
		Commission:  commission,
		NetAmount:   net,
		LedgerEntry: &entry,
	}, nil
}

// MarkPaymentFailed фиксирует неуспешный платёж шлюза, не трогая статус работы.
func (r *PaymentRepository) MarkPaymentFailed(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET payment_status = $2, updated_at = NOW() WHERE id = $1
	`, jobID, models.JobPaymentStatusFailed)
	if err != nil {
		return fmt.Errorf("payment repository: mark payment failed %w", err)
	}
	return nil
}

// Withdraw списывает средства с кошелька фрилансера и создаёт заявку на вывод
// в статусе pending одной транзакцией.
func (r *PaymentRepository) Withdraw(ctx context.Context, freelancerID uuid.UUID, amount float64, description string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var wallet models.Wallet
	err = tx.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE`, freelancerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("payment repository: withdraw lock wallet %w", err)
	}
	if wallet.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance - $2, updated_at = NOW() WHERE user_id = $1
	`, freelancerID, amount)
	if err != nil {
		return nil, fmt.Errorf("payment repository: withdraw debit wallet %w", err)
	}

	var transaction models.Transaction
	err = tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (freelancer_id, amount, type, status, description, payment_method, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, freelancerID, amount, models.TransactionTypeWithdrawal, models.TransactionStatusPending,
		description, models.PaymentMethodBankTransfer,
		fmt.Sprintf("WITHDRAW_%d", time.Now().UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("payment repository: withdraw create transaction %w", err)
	}

	return &transaction, tx.Commit()
}

// creditWallet зачисляет сумму на кошелёк, создавая его при необходимости.
func creditWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount float64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + $2, updated_at = NOW()
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("payment repository: credit wallet %w", err)
	}
	return nil
}
