package service

import (
	"context"
	"sort"

	"github.com/Freeeeeet/training_scheduler/internal/model"
)

// AppointmentLister чтение занятий серии по владельцу
type AppointmentLister interface {
	ListAppointmentsByBooking(ctx context.Context, bookingID int64) ([]*model.Appointment, error)
	ListAppointmentsByGroupLesson(ctx context.Context, groupLessonID int64) ([]*model.Appointment, error)
}

// appointmentsForSeries возвращает занятия серии по (дата, час) независимо от вида владельца
func appointmentsForSeries(ctx context.Context, store AppointmentLister, ref model.SeriesRef) ([]*model.Appointment, error) {
	var (
		appointments []*model.Appointment
		err          error
	)

	switch ref.Kind {
	case model.SeriesKindBooking:
		appointments, err = store.ListAppointmentsByBooking(ctx, ref.ID)
	case model.SeriesKindGroupLesson:
		appointments, err = store.ListAppointmentsByGroupLesson(ctx, ref.ID)
	default:
		return nil, validationf("unknown series kind %q", ref.Kind)
	}
	if err != nil {
		return nil, storeError("list appointments", err)
	}

	sortAppointments(appointments)
	return appointments, nil
}

func sortAppointments(appointments []*model.Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		return appointments[i].Before(appointments[j])
	})
}

func appointmentIDs(appointments []*model.Appointment) []int64 {
	ids := make([]int64, len(appointments))
	for i, a := range appointments {
		ids[i] = a.ID
	}
	return ids
}
