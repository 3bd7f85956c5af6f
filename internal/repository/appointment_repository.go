package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/repository/base"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var appointmentColumns = []string{
	"id", "booking_id", "group_lesson_id", "room_id", "trainer_id", "date", "hour", "status",
	"series_id", "session_number", "total_sessions", "created_at", "updated_at",
}

// AppointmentRepository управляет занятиями в базе данных
type AppointmentRepository struct {
	db     *base.Repository
	logger *zap.Logger
}

func NewAppointmentRepository(db *base.Repository, logger *zap.Logger) *AppointmentRepository {
	return &AppointmentRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch создаёт занятия по одному, ошибка содержит индекс упавшего элемента
func (r *AppointmentRepository) CreateBatch(ctx context.Context, appointments []*model.Appointment) error {
	query := `
		INSERT INTO appointments (booking_id, group_lesson_id, room_id, trainer_id, date, hour, status, series_id, session_number, total_sessions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	for i, a := range appointments {
		err := r.db.QueryRow(
			ctx, query,
			a.BookingID,
			a.GroupLessonID,
			a.RoomID,
			a.TrainerID,
			a.Date,
			a.Hour,
			a.Status,
			a.SeriesID,
			a.SessionNumber,
			a.TotalSessions,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

		if err != nil {
			return &BatchError{Index: i, Err: slotError("create appointment", err)}
		}
	}

	r.logger.Debug("Appointments created", zap.Int("count", len(appointments)))

	return nil
}

// GetByID получает занятие по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	query, args, err := base.Psql.
		Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get appointment query: %w", err)
	}

	appointment, err := scanAppointment(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}

	return appointment, nil
}

// GetByBookingID получает все занятия бронирования
func (r *AppointmentRepository) GetByBookingID(ctx context.Context, bookingID int64) ([]*model.Appointment, error) {
	return r.list(ctx, squirrel.Eq{"booking_id": bookingID})
}

// GetByGroupLessonID получает все занятия группового занятия
func (r *AppointmentRepository) GetByGroupLessonID(ctx context.Context, groupLessonID int64) ([]*model.Appointment, error) {
	return r.list(ctx, squirrel.Eq{"group_lesson_id": groupLessonID})
}

func (r *AppointmentRepository) list(ctx context.Context, where squirrel.Eq) ([]*model.Appointment, error) {
	query, args, err := base.Psql.
		Select(appointmentColumns...).
		From("appointments").
		Where(where).
		OrderBy("date", "hour", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list appointments query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}

	return appointments, nil
}

// FindOccupying ищет занятие, занимающее зал или тренера в указанный слот
func (r *AppointmentRepository) FindOccupying(ctx context.Context, q model.OccupancyQuery) (*model.Appointment, error) {
	query, args, err := buildFindOccupyingQuery(q)
	if err != nil {
		return nil, fmt.Errorf("build find occupying query: %w", err)
	}

	appointment, err := scanAppointment(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find occupying appointment: %w", err)
	}

	return appointment, nil
}

// UpdateBatch обновляет занятия в переданном порядке
func (r *AppointmentRepository) UpdateBatch(ctx context.Context, updates []model.AppointmentUpdate) error {
	for i, upd := range updates {
		query, args, err := buildAppointmentUpdate(upd)
		if err != nil {
			return &BatchError{Index: i, Err: fmt.Errorf("build update appointment query: %w", err)}
		}

		affected, err := r.db.ExecAffected(ctx, query, args...)
		if err != nil {
			return &BatchError{Index: i, Err: slotError("update appointment", err)}
		}
		if affected == 0 {
			return &BatchError{Index: i, Err: fmt.Errorf("update appointment %d: %w", upd.ID, pgx.ErrNoRows)}
		}
	}

	return nil
}

// CompletePast помечает проведёнными запланированные занятия раньше (date, hour)
func (r *AppointmentRepository) CompletePast(ctx context.Context, date time.Time, hour int) (int64, error) {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND (date < $3 OR (date = $3 AND hour < $4))
	`

	affected, err := r.db.ExecAffected(ctx, query,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusScheduled,
		date,
		hour,
	)
	if err != nil {
		return 0, fmt.Errorf("complete past appointments: %w", err)
	}

	return affected, nil
}

func buildFindOccupyingQuery(q model.OccupancyQuery) (string, []any, error) {
	column := "room_id"
	if q.Resource == model.ResourceTrainer {
		column = "trainer_id"
	}

	builder := base.Psql.
		Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{
			column:   q.ResourceID,
			"date":   q.Date,
			"hour":   q.Hour,
			"status": q.Status,
		})

	if len(q.ExcludeIDs) > 0 {
		builder = builder.Where(squirrel.NotEq{"id": q.ExcludeIDs})
	}

	return builder.OrderBy("id").Limit(1).ToSql()
}

func buildAppointmentUpdate(upd model.AppointmentUpdate) (string, []any, error) {
	builder := base.Psql.
		Update("appointments").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": upd.ID})

	if upd.RoomID != nil {
		builder = builder.Set("room_id", *upd.RoomID)
	}
	if upd.TrainerID != nil {
		builder = builder.Set("trainer_id", *upd.TrainerID)
	}
	if upd.Date != nil {
		builder = builder.Set("date", *upd.Date)
	}
	if upd.Hour != nil {
		builder = builder.Set("hour", *upd.Hour)
	}

	return builder.ToSql()
}

func slotError(op string, err error) error {
	if base.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrSlotTaken, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.BookingID,
		&a.GroupLessonID,
		&a.RoomID,
		&a.TrainerID,
		&a.Date,
		&a.Hour,
		&a.Status,
		&a.SeriesID,
		&a.SessionNumber,
		&a.TotalSessions,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
