package service

import (
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/model"
)

// ReschedulePolicy ограничения на перенос занятий клиентом.
// Администратор и тренер переносят без ограничений.
type ReschedulePolicy struct {
	MaxReschedules int           // переносов на одно бронирование
	MinNotice      time.Duration // минимальное время до начала переносимого занятия
}

func DefaultReschedulePolicy() ReschedulePolicy {
	return ReschedulePolicy{
		MaxReschedules: 2,
		MinNotice:      23 * time.Hour,
	}
}

// check проверяет перенос клиентом. bookings содержит бронирования выбранных занятий.
func (p ReschedulePolicy) check(actor model.Actor, now time.Time, selected []*model.Appointment, bookings map[int64]*model.Booking) error {
	if !actor.IsTrainee() {
		return nil
	}

	for _, a := range selected {
		if a.BookingID == nil {
			return validationf("appointment %d belongs to a group lesson and cannot be moved by a trainee", a.ID)
		}
		if a.StartsAt(now.Location()).Sub(now) < p.MinNotice {
			return validationf("appointment %d starts in less than %s", a.ID, p.MinNotice)
		}
	}

	for id, booking := range bookings {
		if booking.RemainingReschedules <= 0 {
			return validationf("booking %d has no reschedules left", id)
		}
	}

	return nil
}

// bookingsOf ID бронирований выбранных занятий без повторов
func bookingsOf(selected []*model.Appointment) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, a := range selected {
		if a.BookingID == nil {
			continue
		}
		if _, ok := seen[*a.BookingID]; ok {
			continue
		}
		seen[*a.BookingID] = struct{}{}
		ids = append(ids, *a.BookingID)
	}
	return ids
}
