package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/repository/base"
	"go.uber.org/zap"
)

// PackageRepository пакеты тренировок
type PackageRepository struct {
	db     *base.Repository
	logger *zap.Logger
}

func NewPackageRepository(db *base.Repository, logger *zap.Logger) *PackageRepository {
	return &PackageRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID получает пакет по ID
func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*model.TrainingPackage, error) {
	query := `
		SELECT id, name, weeks, sessions_per_week, open_ended, is_active, created_at
		FROM training_packages
		WHERE id = $1
	`

	var pkg model.TrainingPackage
	err := r.db.QueryRow(ctx, query, id).Scan(
		&pkg.ID,
		&pkg.Name,
		&pkg.Weeks,
		&pkg.SessionsPerWeek,
		&pkg.OpenEnded,
		&pkg.IsActive,
		&pkg.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get training package by id: %w", err)
	}

	return &pkg, nil
}

// GetActive получает все активные пакеты
func (r *PackageRepository) GetActive(ctx context.Context) ([]*model.TrainingPackage, error) {
	query := `
		SELECT id, name, weeks, sessions_per_week, open_ended, is_active, created_at
		FROM training_packages
		WHERE is_active = true
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active training packages: %w", err)
	}
	defer rows.Close()

	var packages []*model.TrainingPackage
	for rows.Next() {
		var pkg model.TrainingPackage
		err := rows.Scan(
			&pkg.ID,
			&pkg.Name,
			&pkg.Weeks,
			&pkg.SessionsPerWeek,
			&pkg.OpenEnded,
			&pkg.IsActive,
			&pkg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan training package: %w", err)
		}
		packages = append(packages, &pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training packages: %w", err)
	}

	r.logger.Debug("Active training packages loaded", zap.Int("count", len(packages)))

	return packages, nil
}
