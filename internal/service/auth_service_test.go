package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gigwork/backend/internal/logger"
	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/pkg/apperror"
	"github.com/gigwork/backend/internal/repository/common"
)

func init() {
	logger.Init("error")
}

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
	sessions     map[string]*models.Session
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
		sessions:     make(map[string]*models.Session),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return common.ErrAlreadyExists
	}
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, common.ErrNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, common.ErrNotFound
}

func (m *mockAuthRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	if user, ok := m.usersByID[id]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func (m *mockAuthRepository) CreateSession(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	m.sessions[session.RefreshToken] = session
	return nil
}

func (m *mockAuthRepository) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	if session, ok := m.sessions[token]; ok {
		return session, nil
	}
	return nil, common.ErrNotFound
}

func (m *mockAuthRepository) DeleteSession(ctx context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	res, err := service.Register(ctx, RegisterInput{
		Email:    "Client@Example.com",
		Password: "Password1",
		Role:     models.RoleClient,
	}, SessionMeta{IPAddress: "127.0.0.1"})
	if err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	if res.User.ID == uuid.Nil {
		t.Fatalf("user ID должен быть установлен")
	}
	if res.User.Email != "client@example.com" {
		t.Fatalf("email должен нормализоваться к нижнему регистру, получили %s", res.User.Email)
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("ожидалась одна сессия, получили %d", len(repo.sessions))
	}

	loginRes, err := service.Login(ctx, LoginInput{
		Email:    "client@example.com",
		Password: "Password1",
	}, SessionMeta{})
	if err != nil {
		t.Fatalf("login вернул ошибку: %v", err)
	}
	if loginRes.TokenPair.AccessToken == "" {
		t.Fatalf("ожидался access токен")
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, NewTokenManager("a", "r", time.Minute, time.Hour))
	ctx := context.Background()

	cases := []RegisterInput{
		{Email: "bad-email", Password: "Password1", Role: models.RoleClient},
		{Email: "user@example.com", Password: "short", Role: models.RoleClient},
		{Email: "user@example.com", Password: "Password1", Role: "admin"},
	}
	for _, in := range cases {
		if _, err := service.Register(ctx, in, SessionMeta{}); err == nil {
			t.Fatalf("ожидалась ошибка валидации для %+v", in)
		}
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, NewTokenManager("a", "r", time.Minute, time.Hour))
	ctx := context.Background()

	in := RegisterInput{Email: "dup@example.com", Password: "Password1", Role: models.RoleFreelancer}
	if _, err := service.Register(ctx, in, SessionMeta{}); err != nil {
		t.Fatalf("первая регистрация должна пройти: %v", err)
	}

	_, err := service.Register(ctx, in, SessionMeta{})
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeConflict {
		t.Fatalf("повторная регистрация должна вернуть конфликт, получили %v", err)
	}
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, NewTokenManager("a", "r", time.Minute, time.Hour))
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("Password1"), bcrypt.DefaultCost)
	user := &models.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: string(hash), Role: models.RoleClient, IsActive: true}
	repo.usersByEmail[user.Email] = user
	repo.usersByID[user.ID] = user

	if _, err := service.Login(ctx, LoginInput{Email: "user@example.com", Password: "wrong"}, SessionMeta{}); !errors.Is(err, apperror.ErrInvalidCreds) {
		t.Fatalf("неверный пароль должен давать единую ошибку, получили %v", err)
	}
	if _, err := service.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "Password1"}, SessionMeta{}); !errors.Is(err, apperror.ErrInvalidCreds) {
		t.Fatalf("неизвестный email должен давать единую ошибку, получили %v", err)
	}

	user.IsActive = false
	_, err := service.Login(ctx, LoginInput{Email: "user@example.com", Password: "Password1"}, SessionMeta{})
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeForbidden {
		t.Fatalf("заблокированный аккаунт должен отклоняться, получили %v", err)
	}
}

func TestAuthService_RefreshRotatesSession(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)
	ctx := context.Background()

	res, err := service.Register(ctx, RegisterInput{
		Email:    "user@example.com",
		Password: "Password1",
		Role:     models.RoleFreelancer,
	}, SessionMeta{})
	if err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	oldToken := res.TokenPair.RefreshToken
	refreshed, err := service.Refresh(ctx, oldToken, SessionMeta{})
	if err != nil {
		t.Fatalf("refresh вернул ошибку: %v", err)
	}
	if refreshed.TokenPair.RefreshToken == oldToken {
		t.Fatalf("ожидался новый refresh токен")
	}
	if _, ok := repo.sessions[oldToken]; ok {
		t.Fatalf("старая сессия должна быть закрыта")
	}

	// Повторное использование отозванного токена отклоняется.
	if _, err := service.Refresh(ctx, oldToken, SessionMeta{}); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("отозванный refresh токен должен отклоняться, получили %v", err)
	}
}
