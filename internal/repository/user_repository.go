package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/repository/common"
)

// UserRepository отвечает за работу с таблицами users, sessions,
// client_profiles и freelancer_profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, phone, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Email, user.Phone, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByID возвращает пользователя по ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, r.db, "users", id, common.ErrNotFound)
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return common.GetByField[models.User](ctx, r.db, "users", "email", email, common.ErrNotFound)
}

// UpdateLastLogin обновляет время последнего входа.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user repository: update last login %w", err)
	}
	return nil
}

// CreateSession сохраняет refresh-сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		session.UserID, session.RefreshToken, session.UserAgent, session.IPAddress, session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}
	return nil
}

// GetSessionByToken возвращает активную сессию по refresh-токену.
func (r *UserRepository) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	query := `SELECT * FROM sessions WHERE refresh_token = $1 AND expires_at > NOW()`
	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("user repository: get session %w", err)
	}
	return &session, nil
}

// DeleteSession удаляет сессию по refresh-токену.
func (r *UserRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, token)
	if err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}
	return nil
}

// DeleteExpiredSessions чистит просроченные сессии. Вызывается фоновой задачей.
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("user repository: delete expired sessions %w", err)
	}
	return res.RowsAffected()
}

// CreateClientProfile создаёт профиль клиента.
func (r *UserRepository) CreateClientProfile(ctx context.Context, profile *models.ClientProfile) error {
	query := `
		INSERT INTO client_profiles (user_id, full_name, date_of_birth, gender, address, is_profile_complete)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		profile.UserID, profile.FullName, profile.DateOfBirth, profile.Gender, profile.Address, profile.IsProfileComplete,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("user repository: create client profile %w", err)
	}
	return nil
}

// GetClientProfile возвращает профиль клиента.
func (r *UserRepository) GetClientProfile(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	return common.GetByField[models.ClientProfile](ctx, r.db, "client_profiles", "user_id", userID, common.ErrNotFound)
}

// UpdateClientProfile обновляет поля профиля клиента.
func (r *UserRepository) UpdateClientProfile(ctx context.Context, profile *models.ClientProfile) error {
	query := `
		UPDATE client_profiles
		SET full_name = $2, date_of_birth = $3, gender = $4, address = $5,
		    is_profile_complete = $6, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		profile.UserID, profile.FullName, profile.DateOfBirth, profile.Gender, profile.Address, profile.IsProfileComplete,
	).Scan(&profile.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("user repository: update client profile %w", err)
	}
	return nil
}

// CreateFreelancerProfile создаёт профиль фрилансера со статусом pending.
func (r *UserRepository) CreateFreelancerProfile(ctx context.Context, profile *models.FreelancerProfile) error {
	query := `
		INSERT INTO freelancer_profiles
			(user_id, freelancer_code, full_name, date_of_birth, gender, address, pincode,
			 verification_status, is_profile_complete)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		profile.UserID, profile.FreelancerCode, profile.FullName, profile.DateOfBirth,
		profile.Gender, profile.Address, profile.Pincode,
		profile.VerificationStatus, profile.IsProfileComplete,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("user repository: create freelancer profile %w", err)
	}
	return nil
}

// GetFreelancerProfile возвращает профиль фрилансера.
func (r *UserRepository) GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	return common.GetByField[models.FreelancerProfile](ctx, r.db, "freelancer_profiles", "user_id", userID, common.ErrNotFound)
}

// UpdateFreelancerProfile обновляет поля профиля фрилансера.
func (r *UserRepository) UpdateFreelancerProfile(ctx context.Context, profile *models.FreelancerProfile) error {
	query := `
		UPDATE freelancer_profiles
		SET full_name = $2, date_of_birth = $3, gender = $4, address = $5, pincode = $6,
		    verification_status = $7, rejection_reason = $8, is_profile_complete = $9, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		profile.UserID, profile.FullName, profile.DateOfBirth, profile.Gender,
		profile.Address, profile.Pincode,
		profile.VerificationStatus, profile.RejectionReason, profile.IsProfileComplete,
	).Scan(&profile.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("user repository: update freelancer profile %w", err)
	}
	return nil
}

// SetVerificationStatus переводит статус верификации.
// Условие WHERE по текущему статусу защищает от параллельных решений модератора.
func (r *UserRepository) SetVerificationStatus(ctx context.Context, userID uuid.UUID, from, to string, reason *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE freelancer_profiles
		SET verification_status = $3, rejection_reason = $4, updated_at = NOW()
		WHERE user_id = $1 AND verification_status = $2
	`, userID, from, to, reason)
	if err != nil {
		return fmt.Errorf("user repository: set verification status %w", err)
	}
	return common.RequireRowsAffected(res)
}

// IncrementClientStats атомарно увеличивает счётчики клиента.
func (r *UserRepository) IncrementClientStats(ctx context.Context, userID uuid.UUID, jobsPosted int, spent float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE client_profiles
		SET total_jobs_posted = total_jobs_posted + $2, total_spent = total_spent + $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, jobsPosted, spent)
	if err != nil {
		return fmt.Errorf("user repository: increment client stats %w", err)
	}
	return nil
}

// IncrementFreelancerStats атомарно увеличивает счётчики фрилансера.
func (r *UserRepository) IncrementFreelancerStats(ctx context.Context, userID uuid.UUID, totalJobs, completedJobs int, earnings float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE freelancer_profiles
		SET total_jobs = total_jobs + $2, completed_jobs = completed_jobs + $3,
		    total_earnings = total_earnings + $4, updated_at = NOW()
		WHERE user_id = $1
	`, userID, totalJobs, completedJobs, earnings)
	if err != nil {
		return fmt.Errorf("user repository: increment freelancer stats %w", err)
	}
	return nil
}
