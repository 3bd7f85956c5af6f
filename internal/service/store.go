package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/model"
)

// Store хранилище, через которое работает планировщик.
// Чтения одной записи возвращают (nil, nil), если запись не найдена.
type Store interface {
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	GetPredecessor(ctx context.Context, bookingID int64) (*model.Booking, error)
	GetGroupLesson(ctx context.Context, id int64) (*model.GroupLesson, error)
	GetPackage(ctx context.Context, id int64) (*model.TrainingPackage, error)
	GetAppointment(ctx context.Context, id int64) (*model.Appointment, error)

	ListAppointmentsByBooking(ctx context.Context, bookingID int64) ([]*model.Appointment, error)
	ListAppointmentsByGroupLesson(ctx context.Context, groupLessonID int64) ([]*model.Appointment, error)
	ListEnrollmentsByBooking(ctx context.Context, bookingID int64) ([]*model.Enrollment, error)
	FindOccupying(ctx context.Context, q model.OccupancyQuery) (*model.Appointment, error)

	InsertBooking(ctx context.Context, booking *model.Booking) error
	// SetSuccessor проставляет successor_id, только если он ещё пуст. false - бронирование уже продлено.
	SetSuccessor(ctx context.Context, bookingID, successorID int64) (bool, error)
	UpdateBooking(ctx context.Context, id int64, upd model.BookingUpdate) error
	InsertAppointments(ctx context.Context, batch []*model.Appointment) error
	InsertEnrollments(ctx context.Context, batch []*model.Enrollment) error
	UpdateAppointments(ctx context.Context, batch []model.AppointmentUpdate) error
	RecordHistory(ctx context.Context, entries []*model.HistoryEntry) error
	// CompletePast помечает проведёнными запланированные занятия раньше (date, hour)
	CompletePast(ctx context.Context, date time.Time, hour int) (int64, error)

	// WithinTx выполняет fn в одной транзакции. Вложенные вызовы используют внешнюю транзакцию.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock источник текущего времени. Локация Now() задаёт часовой пояс клуба.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock возвращает часы реального времени в указанном часовом поясе
func NewSystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}
