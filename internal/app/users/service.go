package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"billing/internal/auth"
	"billing/internal/domain"
	"billing/internal/repository/users_repo"
)

type UserService interface {
	Register(ctx context.Context, email, password, firstName, lastName, address string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type userService struct {
	db       *sql.DB
	userRepo users_repo.UserRepository
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

func NewUserService(db *sql.DB, userRepo users_repo.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) UserService {
	return &userService{db: db, userRepo: userRepo, tokens: tokens, logger: logger}
}

func (s *userService) Register(ctx context.Context, email, password, firstName, lastName, address string) (*domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("не удалось захешировать пароль: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Address:      address,
		Balance:      decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.userRepo.CreateTx(ctx, s.db, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			s.logger.Warn("Попытка повторной регистрации", zap.String("email", email))
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("не удалось создать пользователя %s: %w", email, err)
	}
	user.ID = id

	s.logger.Info("Пользователь зарегистрирован", zap.Int64("user_id", id), zap.String("email", email))
	return user, nil
}

// Login отвечает одинаково на неизвестный email и неверный пароль.
func (s *userService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmailTx(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("не удалось получить пользователя %s: %w", email, err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Warn("Неудачная попытка входа", zap.Int64("user_id", user.ID))
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("не удалось выпустить токен для пользователя %d: %w", user.ID, err)
	}
	return token, nil
}
