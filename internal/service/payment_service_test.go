package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gigwork/backend/internal/gateway"
	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/pkg/apperror"
	"github.com/gigwork/backend/internal/repository"
	"github.com/gigwork/backend/internal/repository/common"
)

type mockSettlementRepo struct {
	mock.Mock
}

func (m *mockSettlementRepo) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockSettlementRepo) ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockSettlementRepo) PayWallet(ctx context.Context, job *models.Job, commission, net float64) (*repository.SettlementResult, error) {
	args := m.Called(ctx, job, commission, net)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SettlementResult), args.Error(1)
}

func (m *mockSettlementRepo) PayCash(ctx context.Context, job *models.Job, commission, net float64, dueDate time.Time) (*repository.SettlementResult, error) {
	args := m.Called(ctx, job, commission, net, dueDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SettlementResult), args.Error(1)
}

func (m *mockSettlementRepo) ConfirmGatewayPayment(ctx context.Context, job *models.Job, externalTxID string, commission, net float64) (*repository.SettlementResult, error) {
	args := m.Called(ctx, job, externalTxID, commission, net)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SettlementResult), args.Error(1)
}

func (m *mockSettlementRepo) MarkPaymentFailed(ctx context.Context, jobID uuid.UUID) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *mockSettlementRepo) Withdraw(ctx context.Context, freelancerID uuid.UUID, amount float64, description string) (*models.Transaction, error) {
	args := m.Called(ctx, freelancerID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

type mockPaymentJobRepo struct {
	mock.Mock
}

func (m *mockPaymentJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *mockPaymentJobRepo) GetByPaymentOrderID(ctx context.Context, orderID string) (*models.Job, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *mockPaymentJobRepo) SetPaymentOrder(ctx context.Context, jobID uuid.UUID, orderID, method string) error {
	args := m.Called(ctx, jobID, orderID, method)
	return args.Error(0)
}

type mockPaymentProfileRepo struct {
	mock.Mock
}

func (m *mockPaymentProfileRepo) IncrementClientStats(ctx context.Context, userID uuid.UUID, jobsPosted int, spent float64) error {
	args := m.Called(ctx, userID, jobsPosted, spent)
	return args.Error(0)
}

func (m *mockPaymentProfileRepo) IncrementFreelancerStats(ctx context.Context, userID uuid.UUID, totalJobs, completedJobs int, earnings float64) error {
	args := m.Called(ctx, userID, totalJobs, completedJobs, earnings)
	return args.Error(0)
}

type mockPaymentGateway struct {
	mock.Mock
}

func (m *mockPaymentGateway) CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentResponse), args.Error(1)
}

func (m *mockPaymentGateway) ProcessCallback(encodedBody, receivedChecksum string) (*gateway.CallbackResult, error) {
	args := m.Called(encodedBody, receivedChecksum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CallbackResult), args.Error(1)
}

type paymentFixture struct {
	service     *PaymentService
	settlements *mockSettlementRepo
	jobs        *mockPaymentJobRepo
	profiles    *mockPaymentProfileRepo
	gateway     *mockPaymentGateway
}

func newPaymentFixture() *paymentFixture {
	settlements := &mockSettlementRepo{}
	jobs := &mockPaymentJobRepo{}
	profiles := &mockPaymentProfileRepo{}
	gw := &mockPaymentGateway{}

	return &paymentFixture{
		service:     NewPaymentService(settlements, jobs, profiles, gw, nil, 0.10, 30),
		settlements: settlements,
		jobs:        jobs,
		profiles:    profiles,
		gateway:     gw,
	}
}

func payableJob(status string) *models.Job {
	clientID := uuid.New()
	freelancerID := uuid.New()
	return &models.Job{
		ID:           uuid.New(),
		ClientID:     clientID,
		FreelancerID: &freelancerID,
		Title:        "Сборка мебели",
		Amount:       2000,
		Status:       status,
	}
}

func TestPaymentService_PayWallet(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusWorkDone)
	ctx := context.Background()

	f.jobs.On("GetByID", ctx, job.ID).Return(job, nil)
	f.settlements.On("PayWallet", ctx, job, 200.0, 1800.0).Return(&repository.SettlementResult{
		Transaction: &models.Transaction{ID: uuid.New(), Amount: job.Amount},
		Commission:  200,
		NetAmount:   1800,
	}, nil)
	f.profiles.On("IncrementClientStats", ctx, job.ClientID, 0, 2000.0).Return(nil)
	f.profiles.On("IncrementFreelancerStats", ctx, *job.FreelancerID, 1, 1, 1800.0).Return(nil)

	result, err := f.service.PayWallet(ctx, job.ClientID, job.ID)
	require.NoError(t, err)

	assert.Equal(t, 200.0, result.Commission)
	assert.Equal(t, 1800.0, result.NetAmount)
	f.settlements.AssertExpectations(t)
	f.profiles.AssertExpectations(t)
}

func TestPaymentService_PayWalletWrongStatus(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusWaitingForPayment)
	ctx := context.Background()

	f.jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := f.service.PayWallet(ctx, job.ClientID, job.ID)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeInvalidState, appErr.Code)
}

func TestPaymentService_PayWalletForeignJob(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusWorkDone)
	ctx := context.Background()

	f.jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := f.service.PayWallet(ctx, uuid.New(), job.ID)
	assert.True(t, errors.Is(err, apperror.ErrJobNotFound))
}

func TestPaymentService_PayWalletInsufficientFunds(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusWorkDone)
	ctx := context.Background()

	f.jobs.On("GetByID", ctx, job.ID).Return(job, nil)
	f.settlements.On("PayWallet", ctx, job, 200.0, 1800.0).Return(nil, repository.ErrInsufficientFunds)

	_, err := f.service.PayWallet(ctx, job.ClientID, job.ID)
	assert.True(t, errors.Is(err, apperror.ErrInsufficientFunds))
}

func TestPaymentService_PayCash(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusWaitingForPayment)
	ctx := context.Background()

	f.jobs.On("GetByID", ctx, job.ID).Return(job, nil)
	f.settlements.On("PayCash", ctx, job, 200.0, 1800.0, mock.AnythingOfType("time.Time")).Return(&repository.SettlementResult{
		Transaction: &models.Transaction{ID: uuid.New()},
		Commission:  200,
		NetAmount:   1800,
		LedgerEntry: &models.CommissionEntry{
			Amount: 200,
			Type:   models.CommissionTypeDue,
			Status: models.CommissionStatusPending,
		},
	}, nil)
	f.profiles.On("IncrementClientStats", ctx, job.ClientID, 0, 2000.0).Return(nil)
	f.profiles.On("IncrementFreelancerStats", ctx, *job.FreelancerID, 1, 0, 1800.0).Return(nil)

	result, err := f.service.PayCash(ctx, job.ClientID, job.ID)
	require.NoError(t, err)

	// Наличный расчёт оставляет комиссию задолженностью в книге.
	require.NotNil(t, result.LedgerEntry)
	assert.Equal(t, models.CommissionStatusPending, result.LedgerEntry.Status)

	// Срок погашения — через 30 дней.
	dueDate := f.settlements.Calls[0].Arguments.Get(4).(time.Time)
	expected := time.Now().AddDate(0, 0, 30)
	assert.WithinDuration(t, expected, dueDate, time.Minute)
}

func TestPaymentService_InitiateGateway(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusWaitingForPayment)
	ctx := context.Background()

	f.jobs.On("GetByID", ctx, job.ID).Return(job, nil)
	f.gateway.On("CreatePayment", ctx, mock.AnythingOfType("gateway.PaymentRequest")).Return(&gateway.PaymentResponse{
		RedirectURL: "https://pay.example.com/checkout",
	}, nil)
	f.jobs.On("SetPaymentOrder", ctx, job.ID, mock.AnythingOfType("string"), models.PaymentMethodUPI).Return(nil)

	result, err := f.service.InitiateGateway(ctx, job.ClientID, job.ID)
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example.com/checkout", result.RedirectURL)
	assert.Contains(t, result.OrderID, "ORDER_"+job.ID.String())
}

func TestPaymentService_InitiateGatewayUnavailable(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusWaitingForPayment)
	ctx := context.Background()

	f.jobs.On("GetByID", ctx, job.ID).Return(job, nil)
	f.gateway.On("CreatePayment", ctx, mock.AnythingOfType("gateway.PaymentRequest")).Return(nil, errors.New("connection refused"))

	_, err := f.service.InitiateGateway(ctx, job.ClientID, job.ID)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeExternal, appErr.Code)
}

func TestPaymentService_HandleCallbackSuccess(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusWaitingForPayment)
	orderID := "ORDER_" + job.ID.String() + "_1"
	job.PaymentOrderID = &orderID
	ctx := context.Background()

	f.gateway.On("ProcessCallback", "body", "checksum").Return(&gateway.CallbackResult{
		Code:          gateway.CodePaymentSuccess,
		OrderID:       orderID,
		TransactionID: "TX_1",
		Amount:        2000,
		Success:       true,
	}, nil)
	f.jobs.On("GetByPaymentOrderID", ctx, orderID).Return(job, nil)
	f.settlements.On("ConfirmGatewayPayment", ctx, job, "TX_1", 200.0, 1800.0).Return(&repository.SettlementResult{
		Transaction: &models.Transaction{ID: uuid.New()},
	}, nil)
	f.profiles.On("IncrementClientStats", ctx, job.ClientID, 0, 2000.0).Return(nil)
	f.profiles.On("IncrementFreelancerStats", ctx, *job.FreelancerID, 1, 0, 1800.0).Return(nil)

	require.NoError(t, f.service.HandleCallback(ctx, "body", "checksum"))
	f.settlements.AssertExpectations(t)
}

func TestPaymentService_HandleCallbackBadChecksum(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	f.gateway.On("ProcessCallback", "body", "bad").Return(nil, gateway.ErrChecksumMismatch)

	err := f.service.HandleCallback(ctx, "body", "bad")
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeInvalidSignature, appErr.Code)
}

func TestPaymentService_HandleCallbackAlreadyPaid(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusPaid)
	ctx := context.Background()

	f.gateway.On("ProcessCallback", "body", "checksum").Return(&gateway.CallbackResult{
		OrderID: "ORDER_X", TransactionID: "TX_1", Success: true,
	}, nil)
	f.jobs.On("GetByPaymentOrderID", ctx, "ORDER_X").Return(job, nil)

	// Повторный callback по оплаченной работе — no-op без ошибки.
	require.NoError(t, f.service.HandleCallback(ctx, "body", "checksum"))
	f.settlements.AssertNotCalled(t, "ConfirmGatewayPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleCallbackConcurrentRetry(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusWaitingForPayment)
	ctx := context.Background()

	f.gateway.On("ProcessCallback", "body", "checksum").Return(&gateway.CallbackResult{
		OrderID: "ORDER_X", TransactionID: "TX_1", Success: true,
	}, nil)
	f.jobs.On("GetByPaymentOrderID", ctx, "ORDER_X").Return(job, nil)
	f.settlements.On("ConfirmGatewayPayment", ctx, job, "TX_1", 200.0, 1800.0).Return(nil, common.ErrAlreadyExists)

	// Параллельный ретрай webhook уже провёл оплату — ошибки нет.
	require.NoError(t, f.service.HandleCallback(ctx, "body", "checksum"))
}

func TestPaymentService_HandleCallbackFailure(t *testing.T) {
	f := newPaymentFixture()
	job := payableJob(models.JobStatusWaitingForPayment)
	ctx := context.Background()

	f.gateway.On("ProcessCallback", "body", "checksum").Return(&gateway.CallbackResult{
		OrderID: "ORDER_X", Code: gateway.CodePaymentError, Success: false,
	}, nil)
	f.jobs.On("GetByPaymentOrderID", ctx, "ORDER_X").Return(job, nil)
	f.settlements.On("MarkPaymentFailed", ctx, job.ID).Return(nil)

	require.NoError(t, f.service.HandleCallback(ctx, "body", "checksum"))
	f.settlements.AssertCalled(t, "MarkPaymentFailed", ctx, job.ID)
}

func TestPaymentService_Withdraw(t *testing.T) {
	f := newPaymentFixture()
	freelancerID := uuid.New()
	ctx := context.Background()

	f.settlements.On("Withdraw", ctx, freelancerID, 500.0, "Withdrawal request").Return(&models.Transaction{
		ID:     uuid.New(),
		Amount: 500,
		Type:   models.TransactionTypeWithdrawal,
		Status: models.TransactionStatusPending,
	}, nil)

	tx, err := f.service.Withdraw(ctx, freelancerID, 500)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)

	_, err = f.service.Withdraw(ctx, freelancerID, -10)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
}

func TestPaymentService_WithdrawInsufficientFunds(t *testing.T) {
	f := newPaymentFixture()
	freelancerID := uuid.New()
	ctx := context.Background()

	f.settlements.On("Withdraw", ctx, freelancerID, 9000.0, "Withdrawal request").Return(nil, repository.ErrInsufficientFunds)

	_, err := f.service.Withdraw(ctx, freelancerID, 9000)
	assert.True(t, errors.Is(err, apperror.ErrInsufficientFunds))
}
