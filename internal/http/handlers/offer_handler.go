package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigwork/backend/internal/dto"
	"github.com/gigwork/backend/internal/http/handlers/common"
	"github.com/gigwork/backend/internal/service"
)

// OfferHandler предоставляет HTTP слой для откликов.
type OfferHandler struct {
	offers *service.OfferService
}

// NewOfferHandler создаёт хэндлер.
func NewOfferHandler(offers *service.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// Apply обрабатывает POST /freelancer/jobs/:id/apply.
func (h *OfferHandler) Apply(c *gin.Context) {
	freelancerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := h.offers.Apply(c.Request.Context(), freelancerID, jobID, service.ApplyInput{
		OfferedAmount: req.OfferedAmount,
		Message:       req.Message,
		OfferType:     req.OfferType,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// Respond обрабатывает POST /client/offers/:id/respond.
func (h *OfferHandler) Respond(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.RespondOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := h.offers.Respond(c.Request.Context(), clientID, offerID, service.RespondInput{
		Action:          req.Action,
		ResponseMessage: req.ResponseMessage,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// ListByJob обрабатывает GET /client/jobs/:id/offers.
func (h *OfferHandler) ListByJob(c *gin.Context) {
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

	offers, err := h.offers.ListByJob(c.Request.Context(), clientID, jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.OfferListResponse{Offers: offers})
}

// ListMine обрабатывает GET /freelancer/offers.
func (h *OfferHandler) ListMine(c *gin.Context) {
	freelancerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offers, err := h.offers.ListByFreelancer(c.Request.Context(), freelancerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.OfferListResponse{Offers: offers})
}

// Withdraw обрабатывает POST /freelancer/offers/:id/withdraw.
func (h *OfferHandler) Withdraw(c *gin.Context) {
	freelancerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.offers.Withdraw(c.Request.Context(), freelancerID, offerID); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "отклик отозван", nil)
}
