package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gigwork/backend/internal/gateway"
	"github.com/gigwork/backend/internal/logger"
	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/pkg/apperror"
	"github.com/gigwork/backend/internal/repository"
	"github.com/gigwork/backend/internal/repository/common"
)

// SettlementRepository описывает зависимости PaymentService от слоя расчётов.
type SettlementRepository interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	PayWallet(ctx context.Context, job *models.Job, commission, net float64) (*repository.SettlementResult, error)
	PayCash(ctx context.Context, job *models.Job, commission, net float64, dueDate time.Time) (*repository.SettlementResult, error)
	ConfirmGatewayPayment(ctx context.Context, job *models.Job, externalTxID string, commission, net float64) (*repository.SettlementResult, error)
	MarkPaymentFailed(ctx context.Context, jobID uuid.UUID) error
	Withdraw(ctx context.Context, freelancerID uuid.UUID, amount float64, description string) (*models.Transaction, error)
}

// PaymentJobRepository — доступ PaymentService к работам.
type PaymentJobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetByPaymentOrderID(ctx context.Context, orderID string) (*models.Job, error)
	SetPaymentOrder(ctx context.Context, jobID uuid.UUID, orderID, method string) error
}

// PaymentProfileRepository — доступ PaymentService к счётчикам профилей.
type PaymentProfileRepository interface {
	IncrementClientStats(ctx context.Context, userID uuid.UUID, jobsPosted int, spent float64) error
	IncrementFreelancerStats(ctx context.Context, userID uuid.UUID, totalJobs, completedJobs int, earnings float64) error
}

// PaymentGateway — клиент внешнего платёжного шлюза.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResponse, error)
	ProcessCallback(encodedBody, receivedChecksum string) (*gateway.CallbackResult, error)
}

// PaymentService — оркестратор расчётов по работам. Три пути оплаты
// (кошелёк, наличные, шлюз) сходятся к одному постусловию: работа оплачена,
// записана ровно одна транзакция, фрилансеру зачислена чистая выплата,
// комиссия учтена в книге, счётчики профилей обновлены.
type PaymentService struct {
	settlements SettlementRepository
	jobs        PaymentJobRepository
	profiles    PaymentProfileRepository
	gateway     PaymentGateway
	notifier    Notifier

	commissionRate float64
	dueDays        int
}

// GatewayInitResult — результат инициации оплаты через шлюз.
type GatewayInitResult struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

// NewPaymentService создаёт оркестратор расчётов.
func NewPaymentService(
	settlements SettlementRepository,
	jobs PaymentJobRepository,
	profiles PaymentProfileRepository,
	gw PaymentGateway,
	notifier Notifier,
	commissionRate float64,
	dueDays int,
) *PaymentService {
	return &PaymentService{
		settlements:    settlements,
		jobs:           jobs,
		profiles:       profiles,
		gateway:        gw,
		notifier:       notifier,
		commissionRate: commissionRate,
		dueDays:        dueDays,
	}
}

// GetWallet возвращает кошелёк пользователя.
func (s *PaymentService) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.settlements.GetWallet(ctx, userID)
}

// ListTransactions возвращает транзакции пользователя.
func (s *PaymentService) ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	return s.settlements.ListTransactions(ctx, userID)
}

// PayWallet — оплата работы с кошелька клиента. Работа переводится из
// work_done сразу в completed, комиссия удерживается у источника.
func (s *PaymentService) PayWallet(ctx context.Context, clientID, jobID uuid.UUID) (*repository.SettlementResult, error) {
	job, err := s.loadPayableJob(ctx, clientID, jobID, models.JobStatusWorkDone)
	if err != nil {
		return nil, err
	}

	commission, net := models.SplitCommission(job.Amount, s.commissionRate)
	result, err := s.settlements.PayWallet(ctx, job, commission, net)
	if err != nil {
		return nil, s.mapSettlementError(err)
	}

	s.afterSettlement(ctx, job, net, true)
	return result, nil
}

// PayCash — наличный расчёт. Работа переводится в paid, фрилансеру
// зачисляется чистая выплата, комиссия остаётся задолженностью со сроком.
func (s *PaymentService) PayCash(ctx context.Context, clientID, jobID uuid.UUID) (*repository.SettlementResult, error) {
	job, err := s.loadPayableJob(ctx, clientID, jobID, models.JobStatusWaitingForPayment)
	if err != nil {
		return nil, err
	}

	commission, net := models.SplitCommission(job.Amount, s.commissionRate)
	dueDate := time.Now().AddDate(0, 0, s.dueDays)

	result, err := s.settlements.PayCash(ctx, job, commission, net, dueDate)
	if err != nil {
		return nil, s.mapSettlementError(err)
	}

	s.afterSettlement(ctx, job, net, false)
	return result, nil
}

// InitiateGateway создаёт платёж во внешнем шлюзе и привязывает ордер к работе.
func (s *PaymentService) InitiateGateway(ctx context.Context, clientID, jobID uuid.UUID) (*GatewayInitResult, error) {
	job, err := s.loadPayableJob(ctx, clientID, jobID, models.JobStatusWaitingForPayment)
	if err != nil {
		return nil, err
	}

	orderID := fmt.Sprintf("ORDER_%s_%d", job.ID, time.Now().UnixMilli())

	resp, err := s.gateway.CreatePayment(ctx, gateway.PaymentRequest{
		OrderID: orderID,
		UserID:  clientID.String(),
		Amount:  job.Amount,
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "платёжный шлюз недоступен")
	}

	if err := s.jobs.SetPaymentOrder(ctx, job.ID, orderID, models.PaymentMethodUPI); err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "статус работы изменился, повторите запрос")
		}
		return nil, err
	}

	return &GatewayInitResult{OrderID: orderID, RedirectURL: resp.RedirectURL}, nil
}

// HandleCallback обрабатывает callback шлюза. Подпись проверяется, но ответ
// шлюзу всегда успешный, чтобы не провоцировать шторм ретраев; ошибка
// подписи логируется. Повторный callback по уже оплаченной работе — no-op.
func (s *PaymentService) HandleCallback(ctx context.Context, encodedBody, checksum string) error {
	result, err := s.gateway.ProcessCallback(encodedBody, checksum)
	if err != nil {
		if errors.Is(err, gateway.ErrChecksumMismatch) {
			logger.Log.Warn("payment service: подпись callback не прошла проверку")
			return apperror.New(apperror.ErrCodeInvalidSignature, "подпись callback не прошла проверку")
		}
		return apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось разобрать callback")
	}

	job, err := s.jobs.GetByPaymentOrderID(ctx, result.OrderID)
	if errors.Is(err, common.ErrNotFound) {
		logger.Log.WithField("order_id", result.OrderID).Warn("payment service: callback по неизвестному ордеру")
		return apperror.ErrJobNotFound
	}
	if err != nil {
		return err
	}

	if job.PaymentCompleted() {
		logger.Log.WithFields(map[string]interface{}{
			"job_id":   job.ID,
			"order_id": result.OrderID,
		}).Info("payment service: повторный callback, оплата уже проведена")
		return nil
	}

	if !result.Success {
		if err := s.settlements.MarkPaymentFailed(ctx, job.ID); err != nil {
			return err
		}
		logger.Log.WithFields(map[string]interface{}{
			"job_id": job.ID,
			"code":   result.Code,
		}).Warn("payment service: шлюз сообщил о неуспешной оплате")
		return nil
	}

	commission, net := models.SplitCommission(job.Amount, s.commissionRate)
	if _, err := s.settlements.ConfirmGatewayPayment(ctx, job, result.TransactionID, commission, net); err != nil {
		if errors.Is(err, common.ErrStaleState) || errors.Is(err, common.ErrAlreadyExists) {
			// Параллельный ретрай webhook успел провести оплату.
			return nil
		}
		return err
	}

	s.afterSettlement(ctx, job, net, false)
	return nil
}

// Withdraw выводит средства с кошелька фрилансера.
func (s *PaymentService) Withdraw(ctx context.Context, freelancerID uuid.UUID, amount float64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма вывода должна быть положительной")
	}

	transaction, err := s.settlements.Withdraw(ctx, freelancerID, amount, "Withdrawal request")
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientFunds
		}
		return nil, err
	}
	return transaction, nil
}

// loadPayableJob загружает работу и проверяет владельца, исполнителя и статус.
func (s *PaymentService) loadPayableJob(ctx context.Context, clientID, jobID uuid.UUID, expectedStatus string) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	if !job.IsOwnedBy(clientID) {
		return nil, apperror.ErrJobNotFound
	}
	if job.FreelancerID == nil {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "на работу не назначен исполнитель")
	}
	if job.Status != expectedStatus {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "работа не готова к оплате").WithDetails(map[string]any{
			"status": job.Status,
		})
	}
	return job, nil
}

func (s *PaymentService) mapSettlementError(err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds
	case errors.Is(err, common.ErrStaleState):
		return apperror.New(apperror.ErrCodeInvalidState, "статус работы изменился, повторите запрос")
	default:
		return err
	}
}

// afterSettlement выполняет побочные действия после фиксации расчёта:
// счётчики профилей и уведомление фрилансеру. Ошибки не откатывают расчёт.
func (s *PaymentService) afterSettlement(ctx context.Context, job *models.Job, net float64, completed bool) {
	if err := s.profiles.IncrementClientStats(ctx, job.ClientID, 0, job.Amount); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"client_id": job.ClientID,
			"error":     err.Error(),
		}).Warn("payment service: не удалось обновить счётчики клиента")
	}

	completedJobs := 0
	if completed {
		completedJobs = 1
	}
	if err := s.profiles.IncrementFreelancerStats(ctx, *job.FreelancerID, 1, completedJobs, net); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"freelancer_id": *job.FreelancerID,
			"error":         err.Error(),
		}).Warn("payment service: не удалось обновить счётчики фрилансера")
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, *job.FreelancerID, "payment.received", map[string]any{
			"job_id":    job.ID,
			"job_title": job.Title,
			"amount":    net,
		})
	}
}
