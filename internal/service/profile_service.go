package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/pkg/apperror"
	"github.com/gigwork/backend/internal/repository/common"
	"github.com/gigwork/backend/internal/validation"
)

// ProfileRepository описывает зависимости ProfileService от слоя хранилища.
type ProfileRepository interface {
	CreateClientProfile(ctx context.Context, profile *models.ClientProfile) error
	GetClientProfile(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error)
	UpdateClientProfile(ctx context.Context, profile *models.ClientProfile) error
	CreateFreelancerProfile(ctx context.Context, profile *models.FreelancerProfile) error
	GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error)
	UpdateFreelancerProfile(ctx context.Context, profile *models.FreelancerProfile) error
	SetVerificationStatus(ctx context.Context, userID uuid.UUID, from, to string, reason *string) error
}

// ProfileService инкапсулирует логику профилей и верификации фрилансеров.
type ProfileService struct {
	repo ProfileRepository
}

// ProfileInput содержит данные профиля при создании или обновлении.
type ProfileInput struct {
	FullName    string
	DateOfBirth *time.Time
	Gender      *string
	Address     *string
	Pincode     *string
}

// VerificationStatus — отчёт о статусе верификации фрилансера.
type VerificationStatus struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CanWork         bool    `json:"can_work"`
	CanResubmit     bool    `json:"can_resubmit"`
}

// NewProfileService создаёт сервис профилей.
func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// UpsertClientProfile создаёт или обновляет профиль клиента.
func (s *ProfileService) UpsertClientProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.ClientProfile, error) {
	if err := validation.ValidateLength("имя", in.FullName, validation.MinFullNameLength, validation.MaxFullNameLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	profile, err := s.repo.GetClientProfile(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		profile = &models.ClientProfile{
			UserID:            userID,
			FullName:          in.FullName,
			DateOfBirth:       in.DateOfBirth,
			Gender:            in.Gender,
			Address:           in.Address,
			IsProfileComplete: isClientProfileComplete(in),
		}
		if err := s.repo.CreateClientProfile(ctx, profile); err != nil {
			return nil, err
		}
		return profile, nil
	}
	if err != nil {
		return nil, err
	}

	profile.FullName = in.FullName
	profile.DateOfBirth = in.DateOfBirth
	profile.Gender = in.Gender
	profile.Address = in.Address
	profile.IsProfileComplete = isClientProfileComplete(in)

	if err := s.repo.UpdateClientProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetClientProfile возвращает профиль клиента.
func (s *ProfileService) GetClientProfile(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	profile, err := s.repo.GetClientProfile(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrProfileNotFound
	}
	return profile, err
}

// SubmitFreelancerProfile создаёт профиль фрилансера и отправляет его на проверку.
func (s *ProfileService) SubmitFreelancerProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.FreelancerProfile, error) {
	if err := s.validateFreelancerInput(in); err != nil {
		return nil, err
	}

	code := generateFreelancerCode()
	profile := &models.FreelancerProfile{
		UserID:             userID,
		FreelancerCode:     &code,
		FullName:           in.FullName,
		DateOfBirth:        in.DateOfBirth,
		Gender:             in.Gender,
		Address:            in.Address,
		Pincode:            in.Pincode,
		VerificationStatus: models.VerificationStatusPending,
		IsProfileComplete:  true,
	}

	if err := s.repo.CreateFreelancerProfile(ctx, profile); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "профиль уже существует")
		}
		return nil, err
	}
	return profile, nil
}

// ResubmitFreelancerProfile повторно отправляет отклонённый профиль на проверку.
func (s *ProfileService) ResubmitFreelancerProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.FreelancerProfile, error) {
	if err := s.validateFreelancerInput(in); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetFreelancerProfile(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	if !profile.CanResubmit() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "повторная подача доступна только после отклонения")
	}

	profile.FullName = in.FullName
	profile.DateOfBirth = in.DateOfBirth
	profile.Gender = in.Gender
	profile.Address = in.Address
	profile.Pincode = in.Pincode
	profile.VerificationStatus = models.VerificationStatusResubmitted
	profile.RejectionReason = nil

	if err := s.repo.UpdateFreelancerProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetFreelancerProfile возвращает профиль фрилансера.
func (s *ProfileService) GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	profile, err := s.repo.GetFreelancerProfile(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrProfileNotFound
	}
	return profile, err
}

// GetVerificationStatus возвращает отчёт о верификации фрилансера.
func (s *ProfileService) GetVerificationStatus(ctx context.Context, userID uuid.UUID) (*VerificationStatus, error) {
	profile, err := s.GetFreelancerProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &VerificationStatus{
		Status:          profile.VerificationStatus,
		RejectionReason: profile.RejectionReason,
		CanWork:         profile.IsApproved(),
		CanResubmit:     profile.CanResubmit(),
	}, nil
}

func (s *ProfileService) validateFreelancerInput(in ProfileInput) error {
	if err := validation.ValidateLength("имя", in.FullName, validation.MinFullNameLength, validation.MaxFullNameLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.DateOfBirth == nil {
		return apperror.New(apperror.ErrCodeValidation, "дата рождения обязательна")
	}
	if in.Pincode != nil {
		if err := validation.ValidatePincode(*in.Pincode); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	return nil
}

func isClientProfileComplete(in ProfileInput) bool {
	return in.FullName != "" && in.DateOfBirth != nil && in.Address != nil && *in.Address != ""
}

// generateFreelancerCode формирует короткий человекочитаемый код фрилансера.
func generateFreelancerCode() string {
	return fmt.Sprintf("FL%06d", rand.Intn(1000000))
}
