package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store объединяет репозитории в хранилище планировщика.
// Транзакция, открытая WithinTx, передаётся через контекст во все репозитории.
type Store struct {
	db           *base.Repository
	Bookings     *BookingRepository
	Appointments *AppointmentRepository
	Enrollments  *EnrollmentRepository
	GroupLessons *GroupLessonRepository
	Packages     *PackageRepository
	History      *HistoryRepository
	Users        *UserRepository
}

func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	db := base.NewRepository(pool)

	return &Store{
		db:           db,
		Bookings:     NewBookingRepository(db),
		Appointments: NewAppointmentRepository(db, logger),
		Enrollments:  NewEnrollmentRepository(db),
		GroupLessons: NewGroupLessonRepository(db),
		Packages:     NewPackageRepository(db, logger),
		History:      NewHistoryRepository(db),
		Users:        NewUserRepository(db),
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithinTx(ctx, fn)
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	return s.Bookings.GetByID(ctx, id)
}

func (s *Store) GetPredecessor(ctx context.Context, bookingID int64) (*model.Booking, error) {
	return s.Bookings.GetPredecessor(ctx, bookingID)
}

func (s *Store) GetGroupLesson(ctx context.Context, id int64) (*model.GroupLesson, error) {
	return s.GroupLessons.GetByID(ctx, id)
}

func (s *Store) GetPackage(ctx context.Context, id int64) (*model.TrainingPackage, error) {
	return s.Packages.GetByID(ctx, id)
}

func (s *Store) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	return s.Appointments.GetByID(ctx, id)
}

func (s *Store) ListAppointmentsByBooking(ctx context.Context, bookingID int64) ([]*model.Appointment, error) {
	return s.Appointments.GetByBookingID(ctx, bookingID)
}

func (s *Store) ListAppointmentsByGroupLesson(ctx context.Context, groupLessonID int64) ([]*model.Appointment, error) {
	return s.Appointments.GetByGroupLessonID(ctx, groupLessonID)
}

func (s *Store) ListEnrollmentsByBooking(ctx context.Context, bookingID int64) ([]*model.Enrollment, error) {
	return s.Enrollments.GetByBookingID(ctx, bookingID)
}

func (s *Store) FindOccupying(ctx context.Context, q model.OccupancyQuery) (*model.Appointment, error) {
	return s.Appointments.FindOccupying(ctx, q)
}

func (s *Store) InsertBooking(ctx context.Context, booking *model.Booking) error {
	return s.Bookings.Create(ctx, booking)
}

func (s *Store) SetSuccessor(ctx context.Context, bookingID, successorID int64) (bool, error) {
	return s.Bookings.SetSuccessor(ctx, bookingID, successorID)
}

func (s *Store) UpdateBooking(ctx context.Context, id int64, upd model.BookingUpdate) error {
	return s.Bookings.Update(ctx, id, upd)
}

func (s *Store) InsertAppointments(ctx context.Context, batch []*model.Appointment) error {
	return s.Appointments.CreateBatch(ctx, batch)
}

func (s *Store) InsertEnrollments(ctx context.Context, batch []*model.Enrollment) error {
	return s.Enrollments.CreateBatch(ctx, batch)
}

func (s *Store) UpdateAppointments(ctx context.Context, batch []model.AppointmentUpdate) error {
	return s.Appointments.UpdateBatch(ctx, batch)
}

func (s *Store) RecordHistory(ctx context.Context, entries []*model.HistoryEntry) error {
	return s.History.CreateBatch(ctx, entries)
}

func (s *Store) CompletePast(ctx context.Context, date time.Time, hour int) (int64, error) {
	return s.Appointments.CompletePast(ctx, date, hour)
}
