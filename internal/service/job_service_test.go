package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/pkg/apperror"
	"github.com/gigwork/backend/internal/repository"
	"github.com/gigwork/backend/internal/repository/common"
)

// mockJobRepository реализует JobRepository для тестов.
type mockJobRepository struct {
	jobs       map[uuid.UUID]*models.Job
	lastFilter repository.JobFilter
}

func newMockJobRepository() *mockJobRepository {
	return &mockJobRepository{jobs: make(map[uuid.UUID]*models.Job)}
}

func (m *mockJobRepository) Create(ctx context.Context, job *models.Job) error {
	job.ID = uuid.New()
	job.Status = models.JobStatusOpen
	job.IsActive = true
	m.jobs[job.ID] = job
	return nil
}

func (m *mockJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if job, ok := m.jobs[id]; ok {
		return job, nil
	}
	return nil, common.ErrNotFound
}

func (m *mockJobRepository) List(ctx context.Context, filter repository.JobFilter) ([]models.Job, error) {
	m.lastFilter = filter
	var result []models.Job
	for _, j := range m.jobs {
		result = append(result, *j)
	}
	return result, nil
}

func (m *mockJobRepository) GetActiveByFreelancer(ctx context.Context, freelancerID uuid.UUID) (*models.Job, error) {
	for _, j := range m.jobs {
		if j.IsAssignedTo(freelancerID) {
			for _, status := range models.ActiveJobStatuses {
				if j.Status == status {
					return j, nil
				}
			}
		}
	}
	return nil, common.ErrNotFound
}

func (m *mockJobRepository) MarkWorkDone(ctx context.Context, jobID uuid.UUID) error {
	job, ok := m.jobs[jobID]
	if !ok || job.Status != models.JobStatusAssigned {
		return common.ErrStaleState
	}
	job.Status = models.JobStatusWaitingForPayment
	return nil
}

func (m *mockJobRepository) Complete(ctx context.Context, jobID uuid.UUID) error {
	job, ok := m.jobs[jobID]
	if !ok || job.Status != models.JobStatusPaid {
		return common.ErrStaleState
	}
	job.Status = models.JobStatusCompleted
	return nil
}

func (m *mockJobRepository) Cancel(ctx context.Context, jobID uuid.UUID, reason *string) error {
	job, ok := m.jobs[jobID]
	if !ok {
		return common.ErrStaleState
	}
	if job.IsTerminal() {
		return common.ErrStaleState
	}
	job.Status = models.JobStatusCancelled
	job.CancellationReason = reason
	return nil
}

// mockJobProfileRepository реализует JobProfileRepository для тестов.
type mockJobProfileRepository struct {
	clients     map[uuid.UUID]*models.ClientProfile
	freelancers map[uuid.UUID]*models.FreelancerProfile
}

func newMockJobProfileRepository() *mockJobProfileRepository {
	return &mockJobProfileRepository{
		clients:     make(map[uuid.UUID]*models.ClientProfile),
		freelancers: make(map[uuid.UUID]*models.FreelancerProfile),
	}
}

func (m *mockJobProfileRepository) GetClientProfile(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	if profile, ok := m.clients[userID]; ok {
		return profile, nil
	}
	return nil, common.ErrNotFound
}

func (m *mockJobProfileRepository) GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	if profile, ok := m.freelancers[userID]; ok {
		return profile, nil
	}
	return nil, common.ErrNotFound
}

func (m *mockJobProfileRepository) IncrementClientStats(ctx context.Context, userID uuid.UUID, jobsPosted int, spent float64) error {
	if profile, ok := m.clients[userID]; ok {
		profile.TotalJobsPosted += jobsPosted
		profile.TotalSpent += spent
	}
	return nil
}

func (m *mockJobProfileRepository) IncrementFreelancerStats(ctx context.Context, userID uuid.UUID, totalJobs, completedJobs int, earnings float64) error {
	if profile, ok := m.freelancers[userID]; ok {
		profile.TotalJobs += totalJobs
		profile.CompletedJobs += completedJobs
		profile.TotalEarnings += earnings
	}
	return nil
}

func TestJobService_Create(t *testing.T) {
	jobs := newMockJobRepository()
	profiles := newMockJobProfileRepository()
	service := NewJobService(jobs, profiles)
	ctx := context.Background()

	clientID := uuid.New()
	profiles.clients[clientID] = &models.ClientProfile{UserID: clientID, FullName: "Иван", IsProfileComplete: true}

	job, err := service.Create(ctx, clientID, CreateJobInput{
		Title:          "Покраска забора",
		Description:    "Нужно покрасить забор вокруг участка, краска есть",
		Amount:         1500,
		NumberOfPeople: 1,
	})
	if err != nil {
		t.Fatalf("create вернул ошибку: %v", err)
	}

	if job.Status != models.JobStatusOpen {
		t.Fatalf("новая работа должна быть открытой, статус %s", job.Status)
	}
	if job.GenderPreference != models.GenderPreferenceAny {
		t.Fatalf("по умолчанию предпочтение по полу — any")
	}
	if profiles.clients[clientID].TotalJobsPosted != 1 {
		t.Fatalf("счётчик размещённых работ должен увеличиться")
	}
}

func TestJobService_CreateRequiresCompleteProfile(t *testing.T) {
	jobs := newMockJobRepository()
	profiles := newMockJobProfileRepository()
	service := NewJobService(jobs, profiles)
	ctx := context.Background()

	clientID := uuid.New()
	in := CreateJobInput{
		Title:          "Покраска забора",
		Description:    "Нужно покрасить забор вокруг участка, краска есть",
		Amount:         1500,
		NumberOfPeople: 1,
	}

	var appErr *apperror.AppError

	// Профиля нет вовсе.
	_, err := service.Create(ctx, clientID, in)
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeValidation {
		t.Fatalf("без профиля размещение должно отклоняться, получили %v", err)
	}

	// Профиль есть, но не заполнен.
	profiles.clients[clientID] = &models.ClientProfile{UserID: clientID, IsProfileComplete: false}
	_, err = service.Create(ctx, clientID, in)
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeValidation {
		t.Fatalf("незаполненный профиль должен отклоняться, получили %v", err)
	}
}

func TestJobService_MarkWorkDone(t *testing.T) {
	jobs := newMockJobRepository()
	profiles := newMockJobProfileRepository()
	service := NewJobService(jobs, profiles)
	ctx := context.Background()

	freelancerID := uuid.New()
	job := &models.Job{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: &freelancerID,
		Status:       models.JobStatusAssigned,
	}
	jobs.jobs[job.ID] = job

	updated, err := service.MarkWorkDone(ctx, freelancerID, job.ID)
	if err != nil {
		t.Fatalf("mark work done вернул ошибку: %v", err)
	}
	if updated.Status != models.JobStatusWaitingForPayment {
		t.Fatalf("после выполнения работа ждёт оплаты, статус %s", updated.Status)
	}

	// Чужой фрилансер работу не видит.
	if _, err := service.MarkWorkDone(ctx, uuid.New(), job.ID); !errors.Is(err, apperror.ErrJobNotFound) {
		t.Fatalf("чужая работа не должна раскрываться, получили %v", err)
	}

	// Повторная отметка отклоняется по статусу.
	_, err = service.MarkWorkDone(ctx, freelancerID, job.ID)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeInvalidState {
		t.Fatalf("повторная отметка должна отклоняться, получили %v", err)
	}
}

func TestJobService_Complete(t *testing.T) {
	jobs := newMockJobRepository()
	profiles := newMockJobProfileRepository()
	service := NewJobService(jobs, profiles)
	ctx := context.Background()

	freelancerID := uuid.New()
	profiles.freelancers[freelancerID] = &models.FreelancerProfile{UserID: freelancerID}

	job := &models.Job{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: &freelancerID,
		Status:       models.JobStatusPaid,
	}
	jobs.jobs[job.ID] = job

	updated, err := service.Complete(ctx, freelancerID, job.ID)
	if err != nil {
		t.Fatalf("complete вернул ошибку: %v", err)
	}
	if updated.Status != models.JobStatusCompleted {
		t.Fatalf("работа должна завершиться, статус %s", updated.Status)
	}
	if profiles.freelancers[freelancerID].CompletedJobs != 1 {
		t.Fatalf("счётчик завершённых работ должен увеличиться")
	}
}

func TestJobService_CompleteUnpaid(t *testing.T) {
	jobs := newMockJobRepository()
	service := NewJobService(jobs, newMockJobProfileRepository())
	ctx := context.Background()

	freelancerID := uuid.New()
	job := &models.Job{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: &freelancerID,
		Status:       models.JobStatusWaitingForPayment,
	}
	jobs.jobs[job.ID] = job

	_, err := service.Complete(ctx, freelancerID, job.ID)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeInvalidState {
		t.Fatalf("неоплаченная работа не закрывается, получили %v", err)
	}
}

func TestJobService_Cancel(t *testing.T) {
	jobs := newMockJobRepository()
	service := NewJobService(jobs, newMockJobProfileRepository())
	ctx := context.Background()

	clientID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: clientID, Status: models.JobStatusOpen}
	jobs.jobs[job.ID] = job

	reason := "Передумал"
	cancelled, err := service.Cancel(ctx, clientID, job.ID, &reason)
	if err != nil {
		t.Fatalf("cancel вернул ошибку: %v", err)
	}
	if cancelled.Status != models.JobStatusCancelled {
		t.Fatalf("работа должна отмениться, статус %s", cancelled.Status)
	}

	// Терминальная работа не отменяется повторно.
	_, err = service.Cancel(ctx, clientID, job.ID, nil)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeInvalidState {
		t.Fatalf("повторная отмена должна отклоняться, получили %v", err)
	}

	// Посторонний пользователь работу не видит.
	other := &models.Job{ID: uuid.New(), ClientID: uuid.New(), Status: models.JobStatusOpen}
	jobs.jobs[other.ID] = other
	if _, err := service.Cancel(ctx, uuid.New(), other.ID, nil); !errors.Is(err, apperror.ErrJobNotFound) {
		t.Fatalf("чужая работа не должна раскрываться, получили %v", err)
	}
}

func TestJobService_CancelNonTerminalByFreelancer(t *testing.T) {
	jobs := newMockJobRepository()
	service := NewJobService(jobs, newMockJobProfileRepository())
	ctx := context.Background()

	freelancerID := uuid.New()
	job := &models.Job{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: &freelancerID,
		Status:       models.JobStatusWaitingForPayment,
	}
	jobs.jobs[job.ID] = job

	reason := "Клиент не выходит на связь"
	cancelled, err := service.Cancel(ctx, freelancerID, job.ID, &reason)
	if err != nil {
		t.Fatalf("назначенный фрилансер должен отменять нетерминальную работу: %v", err)
	}
	if cancelled.Status != models.JobStatusCancelled {
		t.Fatalf("работа должна отмениться, статус %s", cancelled.Status)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != reason {
		t.Fatalf("причина отмены должна сохраниться")
	}
}

func TestJobService_GetActiveStatus(t *testing.T) {
	jobs := newMockJobRepository()
	service := NewJobService(jobs, newMockJobProfileRepository())
	ctx := context.Background()

	freelancerID := uuid.New()

	status, err := service.GetActiveStatus(ctx, freelancerID)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if status.HasActiveJob {
		t.Fatalf("без назначенных работ активной быть не может")
	}

	job := &models.Job{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: &freelancerID,
		Status:       models.JobStatusAssigned,
	}
	jobs.jobs[job.ID] = job

	status, err = service.GetActiveStatus(ctx, freelancerID)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !status.HasActiveJob || status.Job.ID != job.ID {
		t.Fatalf("назначенная работа должна считаться активной")
	}
}

func TestJobService_ListAvailableAppliesGenderFilter(t *testing.T) {
	jobs := newMockJobRepository()
	profiles := newMockJobProfileRepository()
	service := NewJobService(jobs, profiles)
	ctx := context.Background()

	freelancerID := uuid.New()
	gender := "female"
	profiles.freelancers[freelancerID] = &models.FreelancerProfile{UserID: freelancerID, Gender: &gender}

	if _, err := service.ListAvailable(ctx, freelancerID, 20, 0); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if jobs.lastFilter.Status != models.JobStatusOpen {
		t.Fatalf("выборка доступных работ фильтрует по статусу open")
	}
	if jobs.lastFilter.GenderPreference != "female" {
		t.Fatalf("пол фрилансера должен попасть в фильтр, получили %q", jobs.lastFilter.GenderPreference)
	}
}
