package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, package_id, trainee_id, room_id, trainer_id, start_date, end_date,
	time_slots, remaining_reschedules, successor_id, created_at`

type BookingRepository struct {
	db *base.Repository
}

func NewBookingRepository(db *base.Repository) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (package_id, trainee_id, room_id, trainer_id, start_date, end_date, time_slots, remaining_reschedules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		booking.PackageID,
		booking.TraineeID,
		booking.RoomID,
		booking.TrainerID,
		booking.StartDate,
		booking.EndDate,
		booking.Pattern,
		booking.RemainingReschedules,
	).Scan(&booking.ID, &booking.CreatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// GetPredecessor получает бронирование, которое продлено бронированием bookingID
func (r *BookingRepository) GetPredecessor(ctx context.Context, bookingID int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE successor_id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, bookingID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking predecessor: %w", err)
	}

	return booking, nil
}

// SetSuccessor связывает бронирование с продлением, если оно ещё не продлено
func (r *BookingRepository) SetSuccessor(ctx context.Context, bookingID, successorID int64) (bool, error) {
	query := `
		UPDATE bookings
		SET successor_id = $2
		WHERE id = $1 AND successor_id IS NULL
	`

	affected, err := r.db.ExecAffected(ctx, query, bookingID, successorID)
	if err != nil {
		return false, fmt.Errorf("set booking successor: %w", err)
	}

	return affected == 1, nil
}

// Update обновляет изменяемые поля бронирования
func (r *BookingRepository) Update(ctx context.Context, id int64, upd model.BookingUpdate) error {
	if upd.RemainingReschedules == nil {
		return nil
	}

	query := `
		UPDATE bookings
		SET remaining_reschedules = $2
		WHERE id = $1
	`

	affected, err := r.db.ExecAffected(ctx, query, id, *upd.RemainingReschedules)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update booking: booking %d: %w", id, pgx.ErrNoRows)
	}

	return nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.PackageID,
		&booking.TraineeID,
		&booking.RoomID,
		&booking.TrainerID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.Pattern,
		&booking.RemainingReschedules,
		&booking.SuccessorID,
		&booking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
