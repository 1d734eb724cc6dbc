package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gigwork/backend/internal/dto"
	"github.com/gigwork/backend/internal/http/handlers/common"
	"github.com/gigwork/backend/internal/service"
)

// ProfileHandler предоставляет HTTP слой для профилей клиентов и фрилансеров.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// UpsertClientProfile обрабатывает POST /client/profile.
func (h *ProfileHandler) UpsertClientProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	in, ok := bindProfileInput(c)
	if !ok {
		return
	}

	profile, err := h.profiles.UpsertClientProfile(c.Request.Context(), userID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetClientProfile обрабатывает GET /client/profile.
func (h *ProfileHandler) GetClientProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	profile, err := h.profiles.GetClientProfile(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// SubmitFreelancerProfile обрабатывает POST /freelancer/profile.
func (h *ProfileHandler) SubmitFreelancerProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	in, ok := bindProfileInput(c)
	if !ok {
		return
	}

	profile, err := h.profiles.SubmitFreelancerProfile(c.Request.Context(), userID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// ResubmitFreelancerProfile обрабатывает POST /freelancer/profile/resubmit.
func (h *ProfileHandler) ResubmitFreelancerProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	in, ok := bindProfileInput(c)
	if !ok {
		return
	}

	profile, err := h.profiles.ResubmitFreelancerProfile(c.Request.Context(), userID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetFreelancerProfile обрабатывает GET /freelancer/profile.
func (h *ProfileHandler) GetFreelancerProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	profile, err := h.profiles.GetFreelancerProfile(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetVerificationStatus обрабатывает GET /freelancer/verification-status.
func (h *ProfileHandler) GetVerificationStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	status, err := h.profiles.GetVerificationStatus(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func bindProfileInput(c *gin.Context) (service.ProfileInput, bool) {
	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return service.ProfileInput{}, false
	}

	in := service.ProfileInput{
		FullName: req.FullName,
		Gender:   req.Gender,
		Address:  req.Address,
		Pincode:  req.Pincode,
	}

	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			common.RespondBadRequest(c, "дата рождения должна быть в формате YYYY-MM-DD")
			return service.ProfileInput{}, false
		}
		in.DateOfBirth = &dob
	}

	return in, true
}
