package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var staff = model.Actor{UserID: 1, Role: model.RoleStaff}

func newSeriesService(store *memStore, now time.Time) *SeriesService {
	return NewSeriesService(store, fixedClock{now: now}, DefaultReschedulePolicy(), nil, zap.NewNop())
}

func seedBooking(store *memStore) *model.Booking {
	store.packages[1] = &model.TrainingPackage{ID: 1, Name: "8 weeks", Weeks: 8, SessionsPerWeek: 2}
	return store.addBooking(&model.Booking{
		PackageID:            1,
		TraineeID:            100,
		RoomID:               7,
		TrainerID:            int64Ptr(3),
		StartDate:            model.Date(2024, time.May, 6),
		Pattern:              monWed9,
		RemainingReschedules: 2,
	})
}

func TestSeriesService_GenerateSeries_RoundTrip(t *testing.T) {
	store := newMemStore()
	booking := seedBooking(store)
	svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	anchor := Anchor{Date: model.Date(2024, time.May, 6)}
	result, err := svc.GenerateSeries(context.Background(), staff, GenerateSeriesRequest{
		Owner:   model.BookingSeries(booking.ID),
		Pattern: monWed9,
		Anchor:  anchor,
		Horizon: Weeks(2),
		Bounded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Count)
	assert.Equal(t, booking.ID, result.BookingID)

	appointments, err := svc.Appointments(context.Background(), model.BookingSeries(booking.ID))
	require.NoError(t, err)
	require.Len(t, appointments, 4)

	assert.Equal(t, GenerateSlots(monWed9, anchor, Weeks(2)), store.scheduledSlots(booking.ID))
	for i, a := range appointments {
		require.NotNil(t, a.SessionNumber)
		assert.Equal(t, i+1, *a.SessionNumber)
		assert.Equal(t, 4, *a.TotalSessions)
		assert.Equal(t, result.SeriesID, a.SeriesID)
		assert.Equal(t, int64(7), a.RoomID)
		assert.Equal(t, int64(3), *a.TrainerID)
	}

	enrollments, err := store.ListEnrollmentsByBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, int64(100), enrollments[0].TraineeID)
}

func TestSeriesService_GenerateSeries_OpenEnded(t *testing.T) {
	store := newMemStore()
	booking := seedBooking(store)
	svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	_, err := svc.GenerateSeries(context.Background(), staff, GenerateSeriesRequest{
		Owner:   model.BookingSeries(booking.ID),
		Pattern: monWed9,
		Anchor:  Anchor{Date: model.Date(2024, time.May, 6)},
		Horizon: Weeks(1),
	})
	require.NoError(t, err)

	appointments, err := svc.Appointments(context.Background(), model.BookingSeries(booking.ID))
	require.NoError(t, err)
	require.Len(t, appointments, 2)
	for i, a := range appointments {
		require.NotNil(t, a.SessionNumber)
		assert.Equal(t, i+1, *a.SessionNumber)
		assert.Nil(t, a.TotalSessions)
	}
}

func TestSeriesService_GenerateSeries_GroupLesson(t *testing.T) {
	store := newMemStore()
	store.lessons[5] = &model.GroupLesson{ID: 5, Name: "Yoga", RoomID: 2, TrainerID: int64Ptr(8), Capacity: 3}
	svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	result, err := svc.GenerateSeries(context.Background(), staff, GenerateSeriesRequest{
		Owner:      model.GroupLessonSeries(5),
		Pattern:    model.Pattern{{Weekday: time.Tuesday, Hour: 19}},
		Anchor:     Anchor{Date: model.Date(2024, time.May, 6)},
		Horizon:    Count(3),
		Bounded:    true,
		TraineeIDs: []int64{100, 101},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.Zero(t, result.BookingID)

	appointments, err := svc.Appointments(context.Background(), model.GroupLessonSeries(5))
	require.NoError(t, err)
	require.Len(t, appointments, 3)
	for _, a := range appointments {
		assert.Nil(t, a.BookingID)
		assert.Equal(t, int64(2), a.RoomID)
	}

	// По записи на каждое занятие для каждого клиента
	assert.Len(t, store.enrollments, 6)
	for _, e := range store.enrollments {
		require.NotNil(t, e.AppointmentID)
		require.NotNil(t, e.SessionNumber)
		assert.Equal(t, *store.appointments[*e.AppointmentID].SessionNumber, *e.SessionNumber)
	}
}

func TestSeriesService_GenerateSeries_GroupLessonOverCapacity(t *testing.T) {
	store := newMemStore()
	store.lessons[5] = &model.GroupLesson{ID: 5, RoomID: 2, Capacity: 1}
	svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	_, err := svc.GenerateSeries(context.Background(), staff, GenerateSeriesRequest{
		Owner:      model.GroupLessonSeries(5),
		Pattern:    model.Pattern{{Weekday: time.Tuesday, Hour: 19}},
		Anchor:     Anchor{Date: model.Date(2024, time.May, 6)},
		Horizon:    Count(1),
		TraineeIDs: []int64{100, 101},
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestSeriesService_GenerateSeries_Validation(t *testing.T) {
	store := newMemStore()
	svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		req  GenerateSeriesRequest
	}{
		{
			name: "empty pattern",
			req: GenerateSeriesRequest{
				Owner: model.BookingSeries(1), Anchor: Anchor{Date: model.Date(2024, time.May, 6)}, Horizon: Weeks(1),
			},
		},
		{
			name: "duplicate slots",
			req: GenerateSeriesRequest{
				Owner:   model.BookingSeries(1),
				Pattern: model.Pattern{{Weekday: time.Monday, Hour: 9}, {Weekday: time.Monday, Hour: 9}},
				Anchor:  Anchor{Date: model.Date(2024, time.May, 6)},
				Horizon: Weeks(1),
			},
		},
		{
			name: "hour out of range",
			req: GenerateSeriesRequest{
				Owner:   model.BookingSeries(1),
				Pattern: model.Pattern{{Weekday: time.Monday, Hour: 24}},
				Anchor:  Anchor{Date: model.Date(2024, time.May, 6)},
				Horizon: Weeks(1),
			},
		},
		{
			name: "no horizon",
			req: GenerateSeriesRequest{
				Owner: model.BookingSeries(1), Pattern: monWed9, Anchor: Anchor{Date: model.Date(2024, time.May, 6)},
			},
		},
		{
			name: "no anchor",
			req:  GenerateSeriesRequest{Owner: model.BookingSeries(1), Pattern: monWed9, Horizon: Weeks(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateSeries(context.Background(), staff, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Zero(t, store.calls["GetBooking"], "validation must happen before any store access")
}

func TestSeriesService_GenerateSeries_NotFound(t *testing.T) {
	svc := newSeriesService(newMemStore(), time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	_, err := svc.GenerateSeries(context.Background(), staff, GenerateSeriesRequest{
		Owner:   model.BookingSeries(404),
		Pattern: monWed9,
		Anchor:  Anchor{Date: model.Date(2024, time.May, 6)},
		Horizon: Weeks(1),
	})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeriesService_GenerateSeries_ConflictCreatesNothing(t *testing.T) {
	store := newMemStore()
	booking := seedBooking(store)
	other := store.addAppointment(&model.Appointment{RoomID: 7, Date: model.Date(2024, time.May, 13), Hour: 9})
	svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	_, err := svc.GenerateSeries(context.Background(), staff, GenerateSeriesRequest{
		Owner:   model.BookingSeries(booking.ID),
		Pattern: monWed9,
		Anchor:  Anchor{Date: model.Date(2024, time.May, 6)},
		Horizon: Weeks(2),
		Bounded: true,
	})

	require.ErrorIs(t, err, ErrConflict)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.True(t, conflictErr.Conflicts[0].RoomConflict)
	assert.Equal(t, other.ID, conflictErr.Conflicts[0].RoomAppointmentID)

	assert.Len(t, store.appointments, 1)
	assert.Zero(t, store.calls["InsertAppointments"])
}

func TestSeriesService_GenerateSeries_PartialWriteRolledBack(t *testing.T) {
	store := newMemStore()
	booking := seedBooking(store)
	store.failInsertAt = 2
	svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	_, err := svc.GenerateSeries(context.Background(), staff, GenerateSeriesRequest{
		Owner:   model.BookingSeries(booking.ID),
		Pattern: monWed9,
		Anchor:  Anchor{Date: model.Date(2024, time.May, 6)},
		Horizon: Weeks(2),
	})

	require.ErrorIs(t, err, ErrStoreUnavailable)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, 2, storeErr.Index)
	assert.Equal(t, "insert appointments", storeErr.Op)
	assert.Empty(t, store.appointments)
}

func TestSeriesService_PurchaseBooking(t *testing.T) {
	store := newMemStore()
	store.packages[1] = &model.TrainingPackage{ID: 1, Weeks: 4, SessionsPerWeek: 2}
	svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	result, err := svc.PurchaseBooking(context.Background(), staff, NewBookingRequest{
		PackageID: 1,
		TraineeID: 100,
		RoomID:    7,
		TrainerID: int64Ptr(3),
		Pattern:   monWed9,
		StartDate: model.Date(2024, time.May, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, result.Count)

	booking := store.bookings[result.BookingID]
	require.NotNil(t, booking)
	assert.Equal(t, model.Date(2024, time.May, 6), booking.StartDate)
	require.NotNil(t, booking.EndDate)
	assert.Equal(t, model.Date(2024, time.May, 29), *booking.EndDate)
	assert.Equal(t, 2, booking.RemainingReschedules)
	assert.Equal(t, monWed9.Canonical(), booking.Pattern)
	assert.Len(t, store.scheduledSlots(booking.ID), 8)
}

func TestSeriesService_ExtendChain_FutureLastAppointment(t *testing.T) {
	store := newMemStore()
	booking := seedBooking(store)
	store.packages[1].Weeks = 2
	svc := newSeriesService(store, time.Date(2024, time.May, 7, 12, 0, 0, 0, time.UTC))

	_, err := svc.GenerateSeries(context.Background(), staff, GenerateSeriesRequest{
		Owner:   model.BookingSeries(booking.ID),
		Pattern: monWed9,
		Anchor:  Anchor{Date: model.Date(2024, time.May, 6)},
		Horizon: Weeks(2),
		Bounded: true,
	})
	require.NoError(t, err)

	result, err := svc.ExtendChain(context.Background(), staff, booking.ID, ExtendRequest{})
	require.NoError(t, err)

	// Последнее занятие 15 мая, продление с 16 мая: ближайшие Mon/Wed - 20 и 22 мая
	assert.Equal(t, 4, result.Count)
	assert.Equal(t, Slot{Date: model.Date(2024, time.May, 20), Hour: 9}, result.FirstSlot)
	assert.Equal(t, Slot{Date: model.Date(2024, time.May, 29), Hour: 9}, result.LastSlot)

	prev := store.bookings[booking.ID]
	require.NotNil(t, prev.SuccessorID)
	assert.Equal(t, result.BookingID, *prev.SuccessorID)

	next := store.bookings[result.BookingID]
	assert.Nil(t, next.SuccessorID)
	assert.Equal(t, booking.TraineeID, next.TraineeID)
	assert.Equal(t, booking.RoomID, next.RoomID)

	enrollments, err := store.ListEnrollmentsByBooking(context.Background(), result.BookingID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, int64(100), enrollments[0].TraineeID)
}

func TestSeriesService_ExtendChain_PastLastAppointment(t *testing.T) {
	store := newMemStore()
	booking := seedBooking(store)
	store.packages[1].Weeks = 1
	store.addAppointment(&model.Appointment{
		BookingID: &booking.ID,
		RoomID:    7,
		Date:      model.Date(2024, time.May, 1),
		Hour:      9,
		Status:    model.AppointmentStatusCompleted,
	})
	// Сегодня среда 8 мая: продление с понедельника 13 мая
	svc := newSeriesService(store, time.Date(2024, time.May, 8, 12, 0, 0, 0, time.UTC))

	result, err := svc.ExtendChain(context.Background(), staff, booking.ID, ExtendRequest{})
	require.NoError(t, err)

	assert.Equal(t, []Slot{
		{Date: model.Date(2024, time.May, 13), Hour: 9},
		{Date: model.Date(2024, time.May, 15), Hour: 9},
	}, store.scheduledSlots(result.BookingID))
}

func TestSeriesService_ExtendChain_AppendsAfterTerminal(t *testing.T) {
	store := newMemStore()
	store.packages[1] = &model.TrainingPackage{ID: 1, Weeks: 1}
	linkChain(store, 1, 2)
	store.bookings[2].Pattern = monWed9
	store.addAppointment(&model.Appointment{BookingID: int64Ptr(1), RoomID: 1, Date: model.Date(2024, time.May, 6), Hour: 9})
	store.addAppointment(&model.Appointment{BookingID: int64Ptr(2), RoomID: 1, Date: model.Date(2024, time.May, 13), Hour: 9})
	svc := newSeriesService(store, time.Date(2024, time.May, 7, 12, 0, 0, 0, time.UTC))

	result, err := svc.ExtendChain(context.Background(), staff, 1, ExtendRequest{})
	require.NoError(t, err)

	require.NotNil(t, store.bookings[2].SuccessorID)
	assert.Equal(t, result.BookingID, *store.bookings[2].SuccessorID)
	assert.Equal(t, int64(2), *store.bookings[1].SuccessorID)
	assert.Equal(t, Slot{Date: model.Date(2024, time.May, 15), Hour: 9}, result.FirstSlot)
}

func TestSeriesService_ExtendChain_ConcurrentExtension(t *testing.T) {
	store := newMemStore()
	booking := seedBooking(store)
	store.addAppointment(&model.Appointment{BookingID: &booking.ID, RoomID: 7, Date: model.Date(2024, time.May, 6), Hour: 9})
	svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	// Другое продление успело проставить successor_id после обхода цепочки
	concurrent := &concurrentExtender{memStore: store, bookingID: booking.ID}
	svc.store = concurrent

	_, err := svc.ExtendChain(context.Background(), staff, booking.ID, ExtendRequest{Weeks: 1})

	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, store.bookings, 1, "successor booking must be rolled back")
}

func TestSeriesService_ExtendChain_FailedWriteRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		breaks func(store *memStore)
		op     string
		index  int
	}{
		{
			name:   "appointment insert fails mid batch",
			breaks: func(store *memStore) { store.failInsertAt = 1 },
			op:     "insert appointments",
			index:  1,
		},
		{
			name:   "enrollment insert fails",
			breaks: func(store *memStore) { store.fail["InsertEnrollments"] = errInjected },
			op:     "insert enrollments",
			index:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			booking := seedBooking(store)
			store.addAppointment(&model.Appointment{BookingID: &booking.ID, RoomID: 7, Date: model.Date(2024, time.May, 6), Hour: 9})
			svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))
			tt.breaks(store)

			_, err := svc.ExtendChain(context.Background(), staff, booking.ID, ExtendRequest{Weeks: 2})

			var storeErr *StoreError
			require.ErrorAs(t, err, &storeErr)
			assert.Equal(t, tt.op, storeErr.Op)
			assert.Equal(t, tt.index, storeErr.Index)

			assert.Len(t, store.bookings, 1, "successor booking must be rolled back")
			assert.Nil(t, store.bookings[booking.ID].SuccessorID)
			assert.Len(t, store.appointments, 1)
			assert.Empty(t, store.enrollments)
		})
	}
}

func TestSeriesService_ExtendChain_NoAppointments(t *testing.T) {
	store := newMemStore()
	booking := seedBooking(store)
	svc := newSeriesService(store, time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	_, err := svc.ExtendChain(context.Background(), staff, booking.ID, ExtendRequest{})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestSeriesService_CompletePastAppointments(t *testing.T) {
	store := newMemStore()
	store.addAppointment(&model.Appointment{RoomID: 1, Date: model.Date(2024, time.May, 6), Hour: 9})
	store.addAppointment(&model.Appointment{RoomID: 1, Date: model.Date(2024, time.May, 8), Hour: 9})
	store.addAppointment(&model.Appointment{RoomID: 1, Date: model.Date(2024, time.May, 8), Hour: 15})
	svc := newSeriesService(store, time.Date(2024, time.May, 8, 12, 0, 0, 0, time.UTC))

	completed, err := svc.CompletePastAppointments(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), completed)
}

// concurrentExtender имитирует продление, выполненное параллельно между чтением и записью
type concurrentExtender struct {
	*memStore
	bookingID int64
}

func (c *concurrentExtender) SetSuccessor(ctx context.Context, bookingID, successorID int64) (bool, error) {
	if bookingID == c.bookingID {
		c.memStore.bookings[bookingID].SuccessorID = int64Ptr(999)
	}
	return c.memStore.SetSuccessor(ctx, bookingID, successorID)
}
