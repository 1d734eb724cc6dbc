package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigwork/backend/internal/logger"
	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/pkg/apperror"
	"github.com/gigwork/backend/internal/repository/common"
	"github.com/gigwork/backend/internal/validation"
)

// OfferRepository описывает зависимости OfferService от слоя хранилища.
type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Offer, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Offer, error)
	HasActiveOffer(ctx context.Context, jobID, freelancerID uuid.UUID) (bool, error)
	Accept(ctx context.Context, offerID uuid.UUID, responseMessage *string) (*models.Offer, error)
	Reject(ctx context.Context, offerID uuid.UUID, responseMessage *string) (*models.Offer, error)
	Withdraw(ctx context.Context, offerID, freelancerID uuid.UUID) error
}

// OfferJobRepository — доступ OfferService к работам.
type OfferJobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetActiveByFreelancer(ctx context.Context, freelancerID uuid.UUID) (*models.Job, error)
}

// OfferProfileRepository — доступ OfferService к профилям фрилансеров.
type OfferProfileRepository interface {
	GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error)
}

// EligibilityChecker проверяет допуск фрилансера по комиссионной книге.
type EligibilityChecker interface {
	CheckEligibility(ctx context.Context, freelancerID uuid.UUID) (*WorkEligibility, error)
}

// Notifier доставляет событийные уведомления пользователям.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, payload map[string]any)
}

// OfferService инкапсулирует отклики на работы и переговоры по ним.
// Перед откликом фрилансер проходит три затвора: верификация профиля,
// отсутствие активной работы, задолженность ниже порога.
type OfferService struct {
	offers      OfferRepository
	jobs        OfferJobRepository
	profiles    OfferProfileRepository
	eligibility EligibilityChecker
	notifier    Notifier
}

// ApplyInput содержит данные отклика.
type ApplyInput struct {
	OfferedAmount float64
	Message       *string
	OfferType     string
}

// RespondInput содержит ответ клиента на отклик.
type RespondInput struct {
	Action          string
	ResponseMessage *string
}

// Действия клиента по отклику.
const (
	RespondActionAccept = "accept"
	RespondActionReject = "reject"
)

// NewOfferService создаёт сервис откликов.
func NewOfferService(
	offers OfferRepository,
	jobs OfferJobRepository,
	profiles OfferProfileRepository,
	eligibility EligibilityChecker,
	notifier Notifier,
) *OfferService {
	return &OfferService{
		offers:      offers,
		jobs:        jobs,
		profiles:    profiles,
		eligibility: eligibility,
		notifier:    notifier,
	}
}

// Apply создаёт отклик фрилансера на работу. Тип direct_apply принимается
// автоматически и сразу назначает работу.
func (s *OfferService) Apply(ctx context.Context, freelancerID, jobID uuid.UUID, in ApplyInput) (*models.Offer, error) {
	if in.OfferType == "" {
		in.OfferType = models.OfferTypeDirectApply
	}
	if _, ok := models.ValidOfferTypes[in.OfferType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип отклика")
	}
	if in.Message != nil {
		if err := validation.ValidateLength("сообщение", *in.Message, 0, validation.MaxMessageLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	// Затвор 1: верификация профиля.
	profile, err := s.profiles.GetFreelancerProfile(ctx, freelancerID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "профиль не прошёл верификацию")
	}
	if err != nil {
		return nil, err
	}
	if !profile.IsApproved() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "профиль не прошёл верификацию").WithDetails(map[string]any{
			"verification_status": profile.VerificationStatus,
		})
	}

	// Затвор 2: задолженность по комиссии ниже порога.
	eligibility, err := s.eligibility.CheckEligibility(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	if !eligibility.CanWork {
		return nil, apperror.New(apperror.ErrCodePaymentRequired, "погасите задолженность по комиссии, чтобы продолжить работу").WithDetails(map[string]any{
			"total_due": eligibility.TotalDue,
			"threshold": eligibility.Threshold,
		})
	}

	// Затвор 3: не более одной активной работы.
	if active, err := s.jobs.GetActiveByFreelancer(ctx, freelancerID); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "завершите текущую работу, прежде чем брать новую").WithDetails(map[string]any{
			"active_job_id":     active.ID,
			"active_job_title":  active.Title,
			"active_job_status": active.Status,
		})
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusOpen {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "работа уже не открыта для откликов")
	}

	if exists, err := s.offers.HasActiveOffer(ctx, jobID, freelancerID); err != nil {
		return nil, err
	} else if exists {
		return nil, apperror.New(apperror.ErrCodeConflict, "вы уже откликнулись на эту работу")
	}

	offeredAmount := in.OfferedAmount
	if in.OfferType != models.OfferTypeNegotiate || offeredAmount <= 0 {
		offeredAmount = job.Amount
	}

	offer := &models.Offer{
		JobID:          jobID,
		FreelancerID:   freelancerID,
		ClientID:       job.ClientID,
		OriginalAmount: job.Amount,
		OfferedAmount:  offeredAmount,
		Message:        in.Message,
		OfferType:      in.OfferType,
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "вы уже откликнулись на эту работу")
		}
		return nil, err
	}

	// Только direct_apply назначает работу без участия клиента;
	// pickup и negotiate ждут ответа клиента.
	if in.OfferType == models.OfferTypeDirectApply {
		accepted, err := s.offers.Accept(ctx, offer.ID, nil)
		if err != nil {
			if errors.Is(err, common.ErrStaleState) || errors.Is(err, common.ErrAlreadyExists) {
				// Проигранная гонка: созданный отклик не должен висеть
				// pending на уже назначенной работе.
				message := "Job already assigned"
				if _, rejectErr := s.offers.Reject(ctx, offer.ID, &message); rejectErr != nil {
					logger.Log.WithFields(map[string]interface{}{
						"offer_id": offer.ID,
						"error":    rejectErr.Error(),
					}).Error("offer service: не удалось отклонить отклик после проигранной гонки")
				}
				return nil, apperror.New(apperror.ErrCodeConflict, "работу уже взял другой исполнитель")
			}
			return nil, err
		}
		offer = accepted
	}

	s.notify(ctx, job.ClientID, "offer.created", map[string]any{
		"offer_id":  offer.ID,
		"job_id":    job.ID,
		"job_title": job.Title,
		"status":    offer.Status,
	})

	return offer, nil
}

// Respond обрабатывает ответ клиента на отклик: принять или отклонить.
// Принятие назначает работу и скопом отклоняет остальные отклики.
func (s *OfferService) Respond(ctx context.Context, clientID, offerID uuid.UUID, in RespondInput) (*models.Offer, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrOfferNotFound
	}
	if err != nil {
		return nil, err
	}
	if offer.ClientID != clientID {
		return nil, apperror.ErrOfferNotFound
	}
	if offer.IsResolved() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "на отклик уже дан ответ")
	}

	var resolved *models.Offer
	switch in.Action {
	case RespondActionAccept:
		resolved, err = s.offers.Accept(ctx, offerID, in.ResponseMessage)
		if err != nil {
			if errors.Is(err, common.ErrStaleState) {
				return nil, apperror.New(apperror.ErrCodeInvalidState, "работа или отклик изменились, повторите запрос")
			}
			if errors.Is(err, common.ErrAlreadyExists) {
				return nil, apperror.New(apperror.ErrCodeConflict, "исполнитель уже занят другой работой")
			}
			return nil, err
		}
	case RespondActionReject:
		resolved, err = s.offers.Reject(ctx, offerID, in.ResponseMessage)
		if err != nil {
			if errors.Is(err, common.ErrStaleState) {
				return nil, apperror.New(apperror.ErrCodeInvalidState, "на отклик уже дан ответ")
			}
			return nil, err
		}
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "действие должно быть accept или reject")
	}

	s.notify(ctx, resolved.FreelancerID, "offer.responded", map[string]any{
		"offer_id": resolved.ID,
		"job_id":   resolved.JobID,
		"status":   resolved.Status,
	})

	return resolved, nil
}

// ListByJob возвращает отклики на работу клиента.
func (s *OfferService) ListByJob(ctx context.Context, clientID, jobID uuid.UUID) ([]models.Offer, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	if !job.IsOwnedBy(clientID) {
		return nil, apperror.ErrJobNotFound
	}
	return s.offers.ListByJob(ctx, jobID)
}

// ListByFreelancer возвращает отклики фрилансера.
func (s *OfferService) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Offer, error) {
	return s.offers.ListByFreelancer(ctx, freelancerID)
}

// Withdraw отзывает нерешённый отклик фрилансера.
func (s *OfferService) Withdraw(ctx context.Context, freelancerID, offerID uuid.UUID) error {
	if err := s.offers.Withdraw(ctx, offerID, freelancerID); err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return apperror.New(apperror.ErrCodeInvalidState, "отклик уже решён")
		}
		return err
	}
	return nil
}

func (s *OfferService) notify(ctx context.Context, userID uuid.UUID, event string, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("panic", r).Error("offer service: panic в уведомлении")
		}
	}()
	s.notifier.Notify(ctx, userID, event, payload)
}
