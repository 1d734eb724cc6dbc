package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigwork/backend/internal/logger"
	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/pkg/apperror"
	"github.com/gigwork/backend/internal/repository"
	"github.com/gigwork/backend/internal/repository/common"
	"github.com/gigwork/backend/internal/validation"
)

// JobRepository описывает зависимости JobService от слоя хранилища.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	List(ctx context.Context, filter repository.JobFilter) ([]models.Job, error)
	GetActiveByFreelancer(ctx context.Context, freelancerID uuid.UUID) (*models.Job, error)
	MarkWorkDone(ctx context.Context, jobID uuid.UUID) error
	Complete(ctx context.Context, jobID uuid.UUID) error
	Cancel(ctx context.Context, jobID uuid.UUID, reason *string) error
}

// JobProfileRepository — доступ JobService к профилям для проверок и счётчиков.
type JobProfileRepository interface {
	GetClientProfile(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error)
	GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error)
	IncrementClientStats(ctx context.Context, userID uuid.UUID, jobsPosted int, spent float64) error
	IncrementFreelancerStats(ctx context.Context, userID uuid.UUID, totalJobs, completedJobs int, earnings float64) error
}

// JobService инкапсулирует жизненный цикл работ.
type JobService struct {
	jobs     JobRepository
	profiles JobProfileRepository
}

// CreateJobInput содержит данные новой работы.
type CreateJobInput struct {
	Title            string
	Description      string
	Amount           float64
	NumberOfPeople   int
	Address          *string
	GenderPreference string
}

// ActiveJobStatus — результат проверки активной работы фрилансера.
type ActiveJobStatus struct {
	HasActiveJob bool        `json:"has_active_job"`
	Job          *models.Job `json:"job,omitempty"`
}

// NewJobService создаёт сервис работ.
func NewJobService(jobs JobRepository, profiles JobProfileRepository) *JobService {
	return &JobService{jobs: jobs, profiles: profiles}
}

// Create размещает новую работу от имени клиента.
// Требует заполненного профиля клиента.
func (s *JobService) Create(ctx context.Context, clientID uuid.UUID, in CreateJobInput) (*models.Job, error) {
	if err := validation.ValidateLength("заголовок", in.Title, validation.MinJobTitleLength, validation.MaxJobTitleLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", in.Description, validation.MinJobDescriptionLength, validation.MaxJobDescriptionLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount("сумма", in.Amount, validation.MinJobAmount, validation.MaxJobAmount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.NumberOfPeople <= 0 || in.NumberOfPeople > validation.MaxNumberOfPeople {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректное число исполнителей")
	}
	if in.GenderPreference == "" {
		in.GenderPreference = models.GenderPreferenceAny
	}
	if _, ok := models.ValidGenderPreferences[in.GenderPreference]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректное предпочтение по полу")
	}

	profile, err := s.profiles.GetClientProfile(ctx, clientID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.New(apperror.ErrCodeValidation, "сначала заполните профиль")
	}
	if err != nil {
		return nil, err
	}
	if !profile.IsProfileComplete {
		return nil, apperror.New(apperror.ErrCodeValidation, "профиль не заполнен до конца")
	}

	job := &models.Job{
		ClientID:         clientID,
		Title:            in.Title,
		Description:      in.Description,
		Amount:           in.Amount,
		NumberOfPeople:   in.NumberOfPeople,
		Address:          in.Address,
		GenderPreference: in.GenderPreference,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := s.profiles.IncrementClientStats(ctx, clientID, 1, 0); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"client_id": clientID,
			"error":     err.Error(),
		}).Warn("job service: не удалось обновить счётчики клиента")
	}

	return job, nil
}

// GetByID возвращает работу по ID.
func (s *JobService) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrJobNotFound
	}
	return job, err
}

// ListClientJobs возвращает работы клиента.
func (s *JobService) ListClientJobs(ctx context.Context, clientID uuid.UUID, status string, limit, offset int) ([]models.Job, error) {
	return s.jobs.List(ctx, repository.JobFilter{
		ClientID: &clientID,
		Status:   status,
		Limit:    limit,
		Offset:   offset,
	})
}

// ListAvailable возвращает открытые работы, подходящие фрилансеру по полу.
func (s *JobService) ListAvailable(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Job, error) {
	filter := repository.JobFilter{
		Status: models.JobStatusOpen,
		Limit:  limit,
		Offset: offset,
	}

	profile, err := s.profiles.GetFreelancerProfile(ctx, freelancerID)
	if err == nil && profile.Gender != nil {
		filter.GenderPreference = *profile.Gender
	}

	return s.jobs.List(ctx, filter)
}

// ListAssigned возвращает работы, назначенные фрилансеру.
func (s *JobService) ListAssigned(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Job, error) {
	return s.jobs.List(ctx, repository.JobFilter{
		FreelancerID: &freelancerID,
		Limit:        limit,
		Offset:       offset,
	})
}

// GetActiveStatus сообщает, есть ли у фрилансера активная работа.
func (s *JobService) GetActiveStatus(ctx context.Context, freelancerID uuid.UUID) (*ActiveJobStatus, error) {
	job, err := s.jobs.GetActiveByFreelancer(ctx, freelancerID)
	if errors.Is(err, common.ErrNotFound) {
		return &ActiveJobStatus{HasActiveJob: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ActiveJobStatus{HasActiveJob: true, Job: job}, nil
}

// MarkWorkDone отмечает работу выполненной от имени назначенного фрилансера:
// assigned -> waiting_for_payment.
func (s *JobService) MarkWorkDone(ctx context.Context, freelancerID, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsAssignedTo(freelancerID) {
		return nil, apperror.ErrJobNotFound
	}
	if job.Status != models.JobStatusAssigned {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "работа не в статусе assigned")
	}

	if err := s.jobs.MarkWorkDone(ctx, jobID); err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "статус работы изменился, повторите запрос")
		}
		return nil, err
	}

	return s.GetByID(ctx, jobID)
}

// Complete закрывает оплаченную работу от имени назначенного фрилансера:
// paid -> completed. Обновляет счётчик завершённых работ.
func (s *JobService) Complete(ctx context.Context, freelancerID, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsAssignedTo(freelancerID) {
		return nil, apperror.ErrJobNotFound
	}
	if job.Status != models.JobStatusPaid {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "работа ещё не оплачена")
	}

	if err := s.jobs.Complete(ctx, jobID); err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "статус работы изменился, повторите запрос")
		}
		return nil, err
	}

	if err := s.profiles.IncrementFreelancerStats(ctx, freelancerID, 0, 1, 0); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"freelancer_id": freelancerID,
			"error":         err.Error(),
		}).Warn("job service: не удалось обновить счётчики фрилансера")
	}

	return s.GetByID(ctx, jobID)
}

// Cancel отменяет работу. Доступно владельцу-клиенту и назначенному фрилансеру
// на нетерминальных статусах.
func (s *JobService) Cancel(ctx context.Context, actorID, jobID uuid.UUID, reason *string) (*models.Job, error) {
	job, err := s.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsOwnedBy(actorID) && !job.IsAssignedTo(actorID) {
		return nil, apperror.ErrJobNotFound
	}
	if job.IsTerminal() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "работа уже завершена")
	}

	if err := s.jobs.Cancel(ctx, jobID, reason); err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "работа не может быть отменена в текущем статусе")
		}
		return nil, err
	}

	return s.GetByID(ctx, jobID)
}
