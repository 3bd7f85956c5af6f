package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/repository"
)

var errInjected = errors.New("injected store failure")

// memStore хранилище в памяти для тестов. Транзакция откатывается восстановлением снимка.
type memStore struct {
	mu sync.Mutex

	bookings     map[int64]*model.Booking
	lessons      map[int64]*model.GroupLesson
	packages     map[int64]*model.TrainingPackage
	appointments map[int64]*model.Appointment
	enrollments  map[int64]*model.Enrollment
	history      []*model.HistoryEntry

	nextID int64

	// fail возвращает ошибку для метода, если задана
	fail map[string]error
	// failInsertAt индекс занятия в пачке, на котором InsertAppointments падает (-1 - никогда)
	failInsertAt int
	// failUpdateAt индекс обновления в пачке, на котором UpdateAppointments падает (-1 - никогда)
	failUpdateAt int
	// updateLog порядок применения обновлений
	updateLog []int64
	calls     map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		bookings:     make(map[int64]*model.Booking),
		lessons:      make(map[int64]*model.GroupLesson),
		packages:     make(map[int64]*model.TrainingPackage),
		appointments: make(map[int64]*model.Appointment),
		enrollments:  make(map[int64]*model.Enrollment),
		nextID:       1000,
		fail:         make(map[string]error),
		failInsertAt: -1,
		failUpdateAt: -1,
		calls:        make(map[string]int),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) call(name string) error {
	m.calls[name]++
	return m.fail[name]
}

// addBooking добавляет бронирование напрямую, минуя сервис
func (m *memStore) addBooking(b *model.Booking) *model.Booking {
	if b.ID == 0 {
		b.ID = m.id()
	}
	m.bookings[b.ID] = b
	return b
}

func (m *memStore) addAppointment(a *model.Appointment) *model.Appointment {
	if a.ID == 0 {
		a.ID = m.id()
	}
	if a.Status == "" {
		a.Status = model.AppointmentStatusScheduled
	}
	m.appointments[a.ID] = a
	return a
}

func (m *memStore) GetBooking(_ context.Context, id int64) (*model.Booking, error) {
	if err := m.call("GetBooking"); err != nil {
		return nil, err
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) GetPredecessor(_ context.Context, bookingID int64) (*model.Booking, error) {
	if err := m.call("GetPredecessor"); err != nil {
		return nil, err
	}
	for _, b := range m.bookings {
		if b.SuccessorID != nil && *b.SuccessorID == bookingID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetGroupLesson(_ context.Context, id int64) (*model.GroupLesson, error) {
	if err := m.call("GetGroupLesson"); err != nil {
		return nil, err
	}
	l, ok := m.lessons[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (m *memStore) GetPackage(_ context.Context, id int64) (*model.TrainingPackage, error) {
	if err := m.call("GetPackage"); err != nil {
		return nil, err
	}
	p, ok := m.packages[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetAppointment(_ context.Context, id int64) (*model.Appointment, error) {
	if err := m.call("GetAppointment"); err != nil {
		return nil, err
	}
	a, ok := m.appointments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListAppointmentsByBooking(_ context.Context, bookingID int64) ([]*model.Appointment, error) {
	if err := m.call("ListAppointmentsByBooking"); err != nil {
		return nil, err
	}
	var out []*model.Appointment
	for _, a := range m.appointments {
		if a.BookingID != nil && *a.BookingID == bookingID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListAppointmentsByGroupLesson(_ context.Context, groupLessonID int64) ([]*model.Appointment, error) {
	if err := m.call("ListAppointmentsByGroupLesson"); err != nil {
		return nil, err
	}
	var out []*model.Appointment
	for _, a := range m.appointments {
		if a.GroupLessonID != nil && *a.GroupLessonID == groupLessonID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListEnrollmentsByBooking(_ context.Context, bookingID int64) ([]*model.Enrollment, error) {
	if err := m.call("ListEnrollmentsByBooking"); err != nil {
		return nil, err
	}
	var out []*model.Enrollment
	for _, e := range m.enrollments {
		if e.BookingID != nil && *e.BookingID == bookingID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) FindOccupying(_ context.Context, q model.OccupancyQuery) (*model.Appointment, error) {
	if err := m.call("FindOccupying"); err != nil {
		return nil, err
	}
	exclude := NewIDSet(q.ExcludeIDs...)

	var found *model.Appointment
	for _, a := range m.appointments {
		if exclude.Has(a.ID) || a.Status != q.Status || !a.Date.Equal(q.Date) || a.Hour != q.Hour {
			continue
		}
		switch q.Resource {
		case model.ResourceRoom:
			if a.RoomID != q.ResourceID {
				continue
			}
		case model.ResourceTrainer:
			if a.TrainerID == nil || *a.TrainerID != q.ResourceID {
				continue
			}
		}
		if found == nil || a.ID < found.ID {
			found = a
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (m *memStore) InsertBooking(_ context.Context, booking *model.Booking) error {
	if err := m.call("InsertBooking"); err != nil {
		return err
	}
	booking.ID = m.id()
	booking.CreatedAt = time.Now()
	cp := *booking
	m.bookings[booking.ID] = &cp
	return nil
}

func (m *memStore) SetSuccessor(_ context.Context, bookingID, successorID int64) (bool, error) {
	if err := m.call("SetSuccessor"); err != nil {
		return false, err
	}
	b, ok := m.bookings[bookingID]
	if !ok || b.SuccessorID != nil {
		return false, nil
	}
	b.SuccessorID = &successorID
	return true, nil
}

func (m *memStore) UpdateBooking(_ context.Context, id int64, upd model.BookingUpdate) error {
	if err := m.call("UpdateBooking"); err != nil {
		return err
	}
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("booking %d not found", id)
	}
	if upd.RemainingReschedules != nil {
		b.RemainingReschedules = *upd.RemainingReschedules
	}
	return nil
}

func (m *memStore) InsertAppointments(_ context.Context, batch []*model.Appointment) error {
	if err := m.call("InsertAppointments"); err != nil {
		return err
	}
	for i, a := range batch {
		if i == m.failInsertAt {
			return &repository.BatchError{Index: i, Err: errInjected}
		}
		if m.slotTaken(a.ID, a.RoomID, a.TrainerID, a.Date, a.Hour) {
			return &repository.BatchError{Index: i, Err: repository.ErrSlotTaken}
		}
		a.ID = m.id()
		cp := *a
		m.appointments[a.ID] = &cp
	}
	return nil
}

func (m *memStore) InsertEnrollments(_ context.Context, batch []*model.Enrollment) error {
	if err := m.call("InsertEnrollments"); err != nil {
		return err
	}
	for _, e := range batch {
		e.ID = m.id()
		cp := *e
		m.enrollments[e.ID] = &cp
	}
	return nil
}

func (m *memStore) UpdateAppointments(_ context.Context, batch []model.AppointmentUpdate) error {
	if err := m.call("UpdateAppointments"); err != nil {
		return err
	}
	for i, upd := range batch {
		if i == m.failUpdateAt {
			return &repository.BatchError{Index: i, Err: errInjected}
		}
		a, ok := m.appointments[upd.ID]
		if !ok {
			return &repository.BatchError{Index: i, Err: fmt.Errorf("appointment %d not found", upd.ID)}
		}
		next := *a
		if upd.RoomID != nil {
			next.RoomID = *upd.RoomID
		}
		if upd.TrainerID != nil {
			next.TrainerID = upd.TrainerID
		}
		if upd.Date != nil {
			next.Date = *upd.Date
		}
		if upd.Hour != nil {
			next.Hour = *upd.Hour
		}
		// Эмуляция частичных уникальных индексов
		if m.slotTaken(next.ID, next.RoomID, next.TrainerID, next.Date, next.Hour) {
			return &repository.BatchError{Index: i, Err: repository.ErrSlotTaken}
		}
		m.appointments[upd.ID] = &next
		m.updateLog = append(m.updateLog, upd.ID)
	}
	return nil
}

func (m *memStore) slotTaken(selfID, roomID int64, trainerID *int64, date time.Time, hour int) bool {
	for _, a := range m.appointments {
		if a.ID == selfID || a.Status != model.AppointmentStatusScheduled || !a.Date.Equal(date) || a.Hour != hour {
			continue
		}
		if a.RoomID == roomID {
			return true
		}
		if trainerID != nil && a.TrainerID != nil && *a.TrainerID == *trainerID {
			return true
		}
	}
	return false
}

func (m *memStore) RecordHistory(_ context.Context, entries []*model.HistoryEntry) error {
	if err := m.call("RecordHistory"); err != nil {
		return err
	}
	m.history = append(m.history, entries...)
	return nil
}

func (m *memStore) CompletePast(_ context.Context, date time.Time, hour int) (int64, error) {
	if err := m.call("CompletePast"); err != nil {
		return 0, err
	}
	var n int64
	for _, a := range m.appointments {
		if a.Status != model.AppointmentStatusScheduled {
			continue
		}
		if a.Date.Before(date) || (a.Date.Equal(date) && a.Hour < hour) {
			a.Status = model.AppointmentStatusCompleted
			n++
		}
	}
	return n, nil
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := m.call("WithinTx"); err != nil {
		return err
	}

	m.mu.Lock()
	snapshot := m.snapshot()
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.restore(snapshot)
		m.mu.Unlock()
		return err
	}
	return nil
}

type memSnapshot struct {
	bookings     map[int64]model.Booking
	appointments map[int64]model.Appointment
	enrollments  map[int64]model.Enrollment
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		bookings:     make(map[int64]model.Booking, len(m.bookings)),
		appointments: make(map[int64]model.Appointment, len(m.appointments)),
		enrollments:  make(map[int64]model.Enrollment, len(m.enrollments)),
	}
	for id, b := range m.bookings {
		s.bookings[id] = *b
	}
	for id, a := range m.appointments {
		s.appointments[id] = *a
	}
	for id, e := range m.enrollments {
		s.enrollments[id] = *e
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.bookings = make(map[int64]*model.Booking, len(s.bookings))
	for id, b := range s.bookings {
		b := b
		m.bookings[id] = &b
	}
	m.appointments = make(map[int64]*model.Appointment, len(s.appointments))
	for id, a := range s.appointments {
		a := a
		m.appointments[id] = &a
	}
	m.enrollments = make(map[int64]*model.Enrollment, len(s.enrollments))
	for id, e := range s.enrollments {
		e := e
		m.enrollments[id] = &e
	}
}

// scheduledSlots занятия бронирования как слоты по порядку
func (m *memStore) scheduledSlots(bookingID int64) []Slot {
	appointments, _ := m.ListAppointmentsByBooking(context.Background(), bookingID)
	sortAppointments(appointments)

	slots := make([]Slot, 0, len(appointments))
	for _, a := range appointments {
		slots = append(slots, Slot{Date: a.Date, Hour: a.Hour})
	}
	return slots
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func int64Ptr(v int64) *int64 { return &v }
