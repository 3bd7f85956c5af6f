package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/repository/base"
)

type GroupLessonRepository struct {
	db *base.Repository
}

func NewGroupLessonRepository(db *base.Repository) *GroupLessonRepository {
	return &GroupLessonRepository{db: db}
}

// GetByID получает групповое занятие по ID
func (r *GroupLessonRepository) GetByID(ctx context.Context, id int64) (*model.GroupLesson, error) {
	query := `
		SELECT id, name, room_id, trainer_id, time_slots, capacity, created_at
		FROM group_lessons
		WHERE id = $1
	`

	var lesson model.GroupLesson
	err := r.db.QueryRow(ctx, query, id).Scan(
		&lesson.ID,
		&lesson.Name,
		&lesson.RoomID,
		&lesson.TrainerID,
		&lesson.Pattern,
		&lesson.Capacity,
		&lesson.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get group lesson by id: %w", err)
	}

	return &lesson, nil
}
