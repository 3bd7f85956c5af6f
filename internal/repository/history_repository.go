package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/repository/base"
)

// HistoryRepository журнал изменений занятий
type HistoryRepository struct {
	db *base.Repository
}

func NewHistoryRepository(db *base.Repository) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// CreateBatch записывает журнал одним запросом
func (r *HistoryRepository) CreateBatch(ctx context.Context, entries []*model.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query, args, err := buildHistoryInsert(entries)
	if err != nil {
		return fmt.Errorf("build history insert: %w", err)
	}

	if _, err := r.db.ExecAffected(ctx, query, args...); err != nil {
		return fmt.Errorf("create appointment history: %w", err)
	}

	return nil
}

func buildHistoryInsert(entries []*model.HistoryEntry) (string, []any, error) {
	builder := base.Psql.
		Insert("appointment_history").
		Columns(
			"appointment_id", "actor_id", "action",
			"from_room_id", "to_room_id",
			"from_trainer_id", "to_trainer_id",
			"from_date", "to_date",
			"from_hour", "to_hour",
		)

	for _, e := range entries {
		builder = builder.Values(
			e.AppointmentID, e.ActorID, e.Action,
			e.FromRoomID, e.ToRoomID,
			e.FromTrainerID, e.ToTrainerID,
			e.FromDate, e.ToDate,
			e.FromHour, e.ToHour,
		)
	}

	return builder.ToSql()
}
