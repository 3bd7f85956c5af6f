package service

import (
	"context"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"go.uber.org/zap"
)

// recordHistory пишет журнал изменений после коммита. Ошибка только логируется.
func recordHistory(ctx context.Context, store Store, logger *zap.Logger, actor model.Actor, action string, changes []Change) {
	if len(changes) == 0 {
		return
	}

	entries := make([]*model.HistoryEntry, 0, len(changes))
	for _, c := range changes {
		fromRoom := c.From.RoomID
		fromDate := c.From.Date
		fromHour := c.From.Hour

		entries = append(entries, &model.HistoryEntry{
			AppointmentID: c.AppointmentID,
			ActorID:       actor.UserID,
			Action:        action,
			FromRoomID:    &fromRoom,
			ToRoomID:      c.To.RoomID,
			FromTrainerID: c.From.TrainerID,
			ToTrainerID:   c.To.TrainerID,
			FromDate:      &fromDate,
			ToDate:        c.To.Date,
			FromHour:      &fromHour,
			ToHour:        c.To.Hour,
		})
	}

	if err := store.RecordHistory(ctx, entries); err != nil {
		logger.Warn("Failed to record appointment history",
			zap.Error(err),
			zap.String("action", action),
			zap.Int("count", len(entries)),
		)
	}
}
