package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigwork/backend/internal/dto"
	"github.com/gigwork/backend/internal/http/handlers/common"
	"github.com/gigwork/backend/internal/logger"
	"github.com/gigwork/backend/internal/service"
)

// PaymentHandler предоставляет HTTP слой для расчётов по работам,
// кошелька и callback платёжного шлюза.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler создаёт хэндлер.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// PayWallet обрабатывает POST /client/jobs/:id/pay.
func (h *PaymentHandler) PayWallet(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.payments.PayWallet(c.Request.Context(), clientID, jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PayCash обрабатывает POST /client/jobs/:id/pay-cash.
func (h *PaymentHandler) PayCash(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.payments.PayCash(c.Request.Context(), clientID, jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PayGateway обрабатывает POST /client/jobs/:id/pay-phonepe.
func (h *PaymentHandler) PayGateway(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.payments.InitiateGateway(c.Request.Context(), clientID, jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Callback обрабатывает POST /payments/callback.
// Ответ шлюзу всегда успешный, чтобы не провоцировать шторм ретраев;
// ошибки обработки логируются.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req dto.GatewayCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithField("error", err.Error()).Warn("payment handler: некорректное тело callback")
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if err := h.payments.HandleCallback(c.Request.Context(), req.Response, c.GetHeader("X-VERIFY")); err != nil {
		logger.Log.WithField("error", err.Error()).Warn("payment handler: callback не обработан")
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetWallet обрабатывает GET /freelancer/wallet.
func (h *PaymentHandler) GetWallet(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	wallet, err := h.payments.GetWallet(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.WalletResponse{Balance: wallet.Balance, UpdatedAt: wallet.UpdatedAt})
}

// Withdraw обрабатывает POST /freelancer/withdraw.
func (h *PaymentHandler) Withdraw(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transaction, err := h.payments.Withdraw(c.Request.Context(), userID, req.Amount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

// ListTransactions обрабатывает GET /client/transactions и GET /freelancer/transactions.
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	transactions, err := h.payments.ListTransactions(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.TransactionListResponse{Transactions: transactions})
}
