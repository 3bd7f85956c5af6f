package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment конкретное занятие: зал, тренер, дата и час
type Appointment struct {
	ID            int64             `json:"id"`
	BookingID     *int64            `json:"booking_id"`      // индивидуальное бронирование
	GroupLessonID *int64            `json:"group_lesson_id"` // либо групповое занятие
	RoomID        int64             `json:"room_id"`
	TrainerID     *int64            `json:"trainer_id"`
	Date          time.Time         `json:"date"`
	Hour          int               `json:"hour"`
	Status        AppointmentStatus `json:"status"`
	SeriesID      uuid.UUID         `json:"series_id"`      // общий для всех занятий одной генерации
	SessionNumber *int              `json:"session_number"` // 1..N в порядке генерации
	TotalSessions *int              `json:"total_sessions"` // nil для бессрочных бронирований
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// IsScheduled проверяет что занятие запланировано (не проведено и не отменено)
func (a *Appointment) IsScheduled() bool {
	return a.Status == AppointmentStatusScheduled
}

// Before сравнивает занятия по (дата, час), при равенстве по ID
func (a *Appointment) Before(other *Appointment) bool {
	if !a.Date.Equal(other.Date) {
		return a.Date.Before(other.Date)
	}
	if a.Hour != other.Hour {
		return a.Hour < other.Hour
	}
	return a.ID < other.ID
}

// Owner возвращает ссылку на серию, которой принадлежит занятие
func (a *Appointment) Owner() SeriesRef {
	if a.GroupLessonID != nil {
		return SeriesRef{Kind: SeriesKindGroupLesson, ID: *a.GroupLessonID}
	}
	if a.BookingID != nil {
		return SeriesRef{Kind: SeriesKindBooking, ID: *a.BookingID}
	}
	return SeriesRef{}
}

// StartsAt возвращает момент начала занятия в указанной локации
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), a.Hour, 0, 0, 0, loc)
}

// AppointmentUpdate изменение размещения занятия (nil - не менять)
type AppointmentUpdate struct {
	ID        int64
	RoomID    *int64
	TrainerID *int64
	Date      *time.Time
	Hour      *int
}

// Resource вид ресурса, который нельзя занять дважды в один слот
type Resource string

const (
	ResourceRoom    Resource = "room"
	ResourceTrainer Resource = "trainer"
)

// OccupancyQuery поиск занятия, занимающего ресурс в слот
type OccupancyQuery struct {
	Resource   Resource
	ResourceID int64
	Date       time.Time
	Hour       int
	Status     AppointmentStatus
	ExcludeIDs []int64
}
