package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/repository/base"
)

type EnrollmentRepository struct {
	db *base.Repository
}

func NewEnrollmentRepository(db *base.Repository) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CreateBatch записывает клиентов на бронирования или занятия
func (r *EnrollmentRepository) CreateBatch(ctx context.Context, enrollments []*model.Enrollment) error {
	query := `
		INSERT INTO enrollments (trainee_id, booking_id, appointment_id, session_number, total_sessions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	for i, e := range enrollments {
		err := r.db.QueryRow(
			ctx, query,
			e.TraineeID,
			e.BookingID,
			e.AppointmentID,
			e.SessionNumber,
			e.TotalSessions,
		).Scan(&e.ID, &e.CreatedAt)

		if err != nil {
			return &BatchError{Index: i, Err: fmt.Errorf("create enrollment: %w", err)}
		}
	}

	return nil
}

// GetByBookingID получает записи клиентов на бронирование
func (r *EnrollmentRepository) GetByBookingID(ctx context.Context, bookingID int64) ([]*model.Enrollment, error) {
	query := `
		SELECT id, trainee_id, booking_id, appointment_id, session_number, total_sessions, created_at
		FROM enrollments
		WHERE booking_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get enrollments by booking: %w", err)
	}
	defer rows.Close()

	var enrollments []*model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		err := rows.Scan(
			&e.ID,
			&e.TraineeID,
			&e.BookingID,
			&e.AppointmentID,
			&e.SessionNumber,
			&e.TotalSessions,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	return enrollments, nil
}
