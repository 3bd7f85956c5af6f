package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"go.uber.org/zap"
)

// UserRepository хранилище пользователей бота
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type UserService struct {
	userRepo UserRepository
	staffIDs map[int64]struct{}
	logger   *zap.Logger
}

// NewUserService staffTelegramIDs - администраторы из конфигурации, получают роль staff при регистрации
func NewUserService(userRepo UserRepository, staffTelegramIDs []int64, logger *zap.Logger) *UserService {
	staff := make(map[int64]struct{}, len(staffTelegramIDs))
	for _, id := range staffTelegramIDs {
		staff[id] = struct{}{}
	}

	return &UserService{
		userRepo: userRepo,
		staffIDs: staff,
		logger:   logger,
	}
}

// RegisterUser регистрирует или обновляет пользователя
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, error) {
	// Проверяем существует ли пользователь
	existingUser, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	// Если пользователь уже существует, обновляем данные
	if existingUser != nil {
		existingUser.Username = username
		existingUser.FirstName = firstName
		existingUser.LastName = lastName
		if s.isStaff(telegramID) {
			existingUser.Role = model.RoleStaff
		}

		err = s.userRepo.Update(ctx, existingUser)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		s.logger.Info("User updated",
			zap.Int64("telegram_id", telegramID),
			zap.String("username", username),
			zap.String("role", string(existingUser.Role)),
		)

		return existingUser, nil
	}

	// Создаём нового пользователя
	user := &model.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       model.RoleTrainee, // По умолчанию клиент
	}
	if s.isStaff(telegramID) {
		user.Role = model.RoleStaff
	}

	err = s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// ResolveActor возвращает контекст инициатора по Telegram ID
func (s *UserService) ResolveActor(ctx context.Context, telegramID int64) (model.Actor, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return model.Actor{}, fmt.Errorf("get user: %w", err)
	}

	if user == nil {
		return model.Actor{}, fmt.Errorf("%w: user with telegram id %d", ErrNotFound, telegramID)
	}

	actor := user.Actor()
	if s.isStaff(telegramID) {
		actor.Role = model.RoleStaff
	}

	return actor, nil
}

func (s *UserService) isStaff(telegramID int64) bool {
	_, ok := s.staffIDs[telegramID]
	return ok
}
