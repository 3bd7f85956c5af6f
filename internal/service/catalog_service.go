package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"go.uber.org/zap"
)

// PackageRepository каталог пакетов тренировок
type PackageRepository interface {
	GetActive(ctx context.Context) ([]*model.TrainingPackage, error)
}

// CatalogService пакеты, доступные для покупки
type CatalogService struct {
	packages PackageRepository
	logger   *zap.Logger
}

func NewCatalogService(packages PackageRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		packages: packages,
		logger:   logger,
	}
}

// ActivePackages возвращает активные пакеты
func (s *CatalogService) ActivePackages(ctx context.Context) ([]*model.TrainingPackage, error) {
	packages, err := s.packages.GetActive(ctx)
	if err != nil {
		s.logger.Error("Failed to load training packages", zap.Error(err))
		return nil, storeError("get active packages", fmt.Errorf("load packages: %w", err))
	}
	return packages, nil
}
