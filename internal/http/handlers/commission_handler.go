package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigwork/backend/internal/dto"
	"github.com/gigwork/backend/internal/http/handlers/common"
	"github.com/gigwork/backend/internal/service"
)

// CommissionHandler предоставляет HTTP слой для комиссионной книги.
type CommissionHandler struct {
	commissions *service.CommissionService
}

// NewCommissionHandler создаёт хэндлер.
func NewCommissionHandler(commissions *service.CommissionService) *CommissionHandler {
	return &CommissionHandler{commissions: commissions}
}

// GetLedger обрабатывает GET /freelancer/commission-ledger.
func (h *CommissionHandler) GetLedger(c *gin.Context) {
	freelancerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	ledger, err := h.commissions.GetLedger(c.Request.Context(), freelancerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ledger)
}

// ClearDue обрабатывает POST /freelancer/commission-ledger/clear-due.
func (h *CommissionHandler) ClearDue(c *gin.Context) {
	freelancerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.ClearDueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.commissions.ClearDue(c.Request.Context(), freelancerID, req.Amount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CanWork обрабатывает GET /freelancer/can-work.
func (h *CommissionHandler) CanWork(c *gin.Context) {
	freelancerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	eligibility, err := h.commissions.CheckEligibility(c.Request.Context(), freelancerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, eligibility)
}
