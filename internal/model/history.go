package model

import "time"

// HistoryEntry запись журнала изменений занятия
type HistoryEntry struct {
	ID            int64      `json:"id"`
	AppointmentID int64      `json:"appointment_id"`
	ActorID       int64      `json:"actor_id"`
	Action        string     `json:"action"`
	FromRoomID    *int64     `json:"from_room_id"`
	ToRoomID      int64      `json:"to_room_id"`
	FromTrainerID *int64     `json:"from_trainer_id"`
	ToTrainerID   *int64     `json:"to_trainer_id"`
	FromDate      *time.Time `json:"from_date"`
	ToDate        time.Time  `json:"to_date"`
	FromHour      *int       `json:"from_hour"`
	ToHour        int        `json:"to_hour"`
	CreatedAt     time.Time  `json:"created_at"`
}
