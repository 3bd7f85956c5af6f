package model

import "time"

// Booking оплаченный блок регулярных занятий (покупка пакета)
type Booking struct {
	ID                   int64      `json:"id"`
	PackageID            int64      `json:"package_id"`
	TraineeID            int64      `json:"trainee_id"`
	RoomID               int64      `json:"room_id"`
	TrainerID            *int64     `json:"trainer_id"` // nil - аренда зала без тренера
	StartDate            time.Time  `json:"start_date"`
	EndDate              *time.Time `json:"end_date"` // nil - бессрочное бронирование
	Pattern              Pattern    `json:"time_slots"`
	RemainingReschedules int        `json:"remaining_reschedules"`
	SuccessorID          *int64     `json:"successor_id"` // следующее бронирование в цепочке продлений
	CreatedAt            time.Time  `json:"created_at"`
}

// IsTerminal проверяет что бронирование последнее в цепочке продлений
func (b *Booking) IsTerminal() bool {
	return b.SuccessorID == nil
}

// BookingUpdate изменяемые поля бронирования (nil - не менять)
type BookingUpdate struct {
	RemainingReschedules *int
}

// GroupLesson групповое занятие с общим залом и тренером
type GroupLesson struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	RoomID    int64     `json:"room_id"`
	TrainerID *int64    `json:"trainer_id"`
	Pattern   Pattern   `json:"time_slots"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

// Enrollment запись ученика на бронирование (индивидуальные) или на конкретное занятие (групповые)
type Enrollment struct {
	ID            int64     `json:"id"`
	TraineeID     int64     `json:"trainee_id"`
	BookingID     *int64    `json:"booking_id"`
	AppointmentID *int64    `json:"appointment_id"`
	SessionNumber *int      `json:"session_number"`
	TotalSessions *int      `json:"total_sessions"`
	CreatedAt     time.Time `json:"created_at"`
}
