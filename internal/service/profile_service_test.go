package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/pkg/apperror"
	"github.com/gigwork/backend/internal/repository/common"
)

// mockProfileRepository реализует ProfileRepository для тестов.
type mockProfileRepository struct {
	clients     map[uuid.UUID]*models.ClientProfile
	freelancers map[uuid.UUID]*models.FreelancerProfile
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{
		clients:     make(map[uuid.UUID]*models.ClientProfile),
		freelancers: make(map[uuid.UUID]*models.FreelancerProfile),
	}
}

func (m *mockProfileRepository) CreateClientProfile(ctx context.Context, profile *models.ClientProfile) error {
	if _, ok := m.clients[profile.UserID]; ok {
		return common.ErrAlreadyExists
	}
	m.clients[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepository) GetClientProfile(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	if profile, ok := m.clients[userID]; ok {
		return profile, nil
	}
	return nil, common.ErrNotFound
}

func (m *mockProfileRepository) UpdateClientProfile(ctx context.Context, profile *models.ClientProfile) error {
	m.clients[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepository) CreateFreelancerProfile(ctx context.Context, profile *models.FreelancerProfile) error {
	if _, ok := m.freelancers[profile.UserID]; ok {
		return common.ErrAlreadyExists
	}
	m.freelancers[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepository) GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	if profile, ok := m.freelancers[userID]; ok {
		return profile, nil
	}
	return nil, common.ErrNotFound
}

func (m *mockProfileRepository) UpdateFreelancerProfile(ctx context.Context, profile *models.FreelancerProfile) error {
	m.freelancers[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepository) SetVerificationStatus(ctx context.Context, userID uuid.UUID, from, to string, reason *string) error {
	profile, ok := m.freelancers[userID]
	if !ok || profile.VerificationStatus != from {
		return common.ErrStaleState
	}
	profile.VerificationStatus = to
	profile.RejectionReason = reason
	return nil
}

func freelancerInput() ProfileInput {
	dob := time.Date(1995, 4, 12, 0, 0, 0, 0, time.UTC)
	pincode := "110001"
	return ProfileInput{
		FullName:    "Пётр Смирнов",
		DateOfBirth: &dob,
		Pincode:     &pincode,
	}
}

func TestProfileService_UpsertClientProfile(t *testing.T) {
	repo := newMockProfileRepository()
	service := NewProfileService(repo)
	ctx := context.Background()
	userID := uuid.New()

	// Неполный профиль создаётся, но не считается заполненным.
	profile, err := service.UpsertClientProfile(ctx, userID, ProfileInput{FullName: "Иван"})
	if err != nil {
		t.Fatalf("upsert вернул ошибку: %v", err)
	}
	if profile.IsProfileComplete {
		t.Fatalf("профиль без даты рождения и адреса не заполнен")
	}

	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	address := "ул. Ленина, 1"
	profile, err = service.UpsertClientProfile(ctx, userID, ProfileInput{
		FullName:    "Иван Иванов",
		DateOfBirth: &dob,
		Address:     &address,
	})
	if err != nil {
		t.Fatalf("upsert вернул ошибку: %v", err)
	}
	if !profile.IsProfileComplete {
		t.Fatalf("профиль с именем, датой рождения и адресом заполнен")
	}
	if profile.FullName != "Иван Иванов" {
		t.Fatalf("имя должно обновиться")
	}
}

func TestProfileService_SubmitFreelancerProfile(t *testing.T) {
	repo := newMockProfileRepository()
	service := NewProfileService(repo)
	ctx := context.Background()
	userID := uuid.New()

	profile, err := service.SubmitFreelancerProfile(ctx, userID, freelancerInput())
	if err != nil {
		t.Fatalf("submit вернул ошибку: %v", err)
	}

	if profile.VerificationStatus != models.VerificationStatusPending {
		t.Fatalf("новый профиль уходит на проверку, статус %s", profile.VerificationStatus)
	}
	if profile.FreelancerCode == nil || *profile.FreelancerCode == "" {
		t.Fatalf("фрилансеру должен присвоиться код")
	}

	// Повторная подача существующего профиля — конфликт.
	_, err = service.SubmitFreelancerProfile(ctx, userID, freelancerInput())
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeConflict {
		t.Fatalf("повторный submit должен отклоняться, получили %v", err)
	}
}

func TestProfileService_SubmitRequiresDateOfBirth(t *testing.T) {
	service := NewProfileService(newMockProfileRepository())

	in := freelancerInput()
	in.DateOfBirth = nil

	_, err := service.SubmitFreelancerProfile(context.Background(), uuid.New(), in)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeValidation {
		t.Fatalf("профиль без даты рождения должен отклоняться, получили %v", err)
	}
}

func TestProfileService_Resubmit(t *testing.T) {
	repo := newMockProfileRepository()
	service := NewProfileService(repo)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := service.SubmitFreelancerProfile(ctx, userID, freelancerInput()); err != nil {
		t.Fatalf("submit вернул ошибку: %v", err)
	}

	// Пока профиль на проверке, повторная подача недоступна.
	_, err := service.ResubmitFreelancerProfile(ctx, userID, freelancerInput())
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeInvalidState {
		t.Fatalf("resubmit до отклонения должен отклоняться, получили %v", err)
	}

	reason := "Нечитаемое фото документа"
	repo.freelancers[userID].VerificationStatus = models.VerificationStatusRejected
	repo.freelancers[userID].RejectionReason = &reason

	profile, err := service.ResubmitFreelancerProfile(ctx, userID, freelancerInput())
	if err != nil {
		t.Fatalf("resubmit вернул ошибку: %v", err)
	}
	if profile.VerificationStatus != models.VerificationStatusResubmitted {
		t.Fatalf("профиль должен уйти на повторную проверку, статус %s", profile.VerificationStatus)
	}
	if profile.RejectionReason != nil {
		t.Fatalf("причина отклонения должна сброситься")
	}
}

func TestProfileService_GetVerificationStatus(t *testing.T) {
	repo := newMockProfileRepository()
	service := NewProfileService(repo)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := service.GetVerificationStatus(ctx, userID); !errors.Is(err, apperror.ErrProfileNotFound) {
		t.Fatalf("без профиля должен возвращаться ErrProfileNotFound, получили %v", err)
	}

	if _, err := service.SubmitFreelancerProfile(ctx, userID, freelancerInput()); err != nil {
		t.Fatalf("submit вернул ошибку: %v", err)
	}

	status, err := service.GetVerificationStatus(ctx, userID)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if status.CanWork || status.CanResubmit {
		t.Fatalf("профиль на проверке ещё не допущен к работе")
	}

	repo.freelancers[userID].VerificationStatus = models.VerificationStatusApproved
	status, err = service.GetVerificationStatus(ctx, userID)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !status.CanWork {
		t.Fatalf("одобренный профиль допущен к работе")
	}
}
