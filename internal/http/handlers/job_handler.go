package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigwork/backend/internal/dto"
	"github.com/gigwork/backend/internal/http/handlers/common"
	"github.com/gigwork/backend/internal/service"
)

// JobHandler предоставляет HTTP слой для работ.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler создаёт хэндлер.
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Create обрабатывает POST /client/jobs.
func (h *JobHandler) Create(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	numberOfPeople := req.NumberOfPeople
	if numberOfPeople == 0 {
		numberOfPeople = 1
	}

	job, err := h.jobs.Create(c.Request.Context(), clientID, service.CreateJobInput{
		Title:            req.Title,
		Description:      req.Description,
		Amount:           req.Amount,
		NumberOfPeople:   numberOfPeople,
		Address:          req.Address,
		GenderPreference: req.GenderPreference,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// ListClientJobs обрабатывает GET /client/jobs.
func (h *JobHandler) ListClientJobs(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	jobs, err := h.jobs.ListClientJobs(c.Request.Context(), clientID, c.Query("status"), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.JobListResponse{Jobs: jobs, Limit: limit, Offset: offset})
}

// ListAvailable обрабатывает GET /freelancer/jobs/available.
func (h *JobHandler) ListAvailable(c *gin.Context) {
	freelancerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	jobs, err := h.jobs.ListAvailable(c.Request.Context(), freelancerID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.JobListResponse{Jobs: jobs, Limit: limit, Offset: offset})
}

// ListAssigned обрабатывает GET /freelancer/jobs/assigned.
func (h *JobHandler) ListAssigned(c *gin.Context) {
	freelancerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	jobs, err := h.jobs.ListAssigned(c.Request.Context(), freelancerID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.JobListResponse{Jobs: jobs, Limit: limit, Offset: offset})
}

// GetActiveStatus обрабатывает GET /freelancer/jobs/active-status.
func (h *JobHandler) GetActiveStatus(c *gin.Context) {
	freelancerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	status, err := h.jobs.GetActiveStatus(c.Request.Context(), freelancerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// MarkWorkDone обрабатывает POST /freelancer/jobs/:id/work-done.
func (h *JobHandler) MarkWorkDone(c *gin.Context) {
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

	job, err := h.jobs.MarkWorkDone(c.Request.Context(), freelancerID, jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Complete обрабатывает POST /freelancer/jobs/:id/complete.
func (h *JobHandler) Complete(c *gin.Context) {
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

	job, err := h.jobs.Complete(c.Request.Context(), freelancerID, jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Cancel обрабатывает POST /client/jobs/:id/cancel.
func (h *JobHandler) Cancel(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CancelJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.Cancel(c.Request.Context(), actorID, jobID, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}
