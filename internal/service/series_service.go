package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/metrics"
	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	opGenerateSeries  = "generate_series"
	opPurchaseBooking = "purchase_booking"
	opExtendChain     = "extend_chain"
)

// SeriesService генерация серий занятий и продление цепочек бронирований
type SeriesService struct {
	store     Store
	chain     *ChainResolver
	conflicts *ConflictChecker
	clock     Clock
	policy    ReschedulePolicy
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewSeriesService(
	store Store,
	clock Clock,
	policy ReschedulePolicy,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) *SeriesService {
	return &SeriesService{
		store:     store,
		chain:     NewChainResolver(store),
		conflicts: NewConflictChecker(store),
		clock:     clock,
		policy:    policy,
		metrics:   metrics,
		logger:    logger,
	}
}

// GenerateSeriesRequest параметры генерации новой серии
type GenerateSeriesRequest struct {
	Owner      model.SeriesRef
	Pattern    model.Pattern
	Anchor     Anchor
	Horizon    Horizon
	Bounded    bool    // true - проставить total_sessions, false - бессрочная серия
	TraineeIDs []int64 // для бронирования по умолчанию его клиент
}

// NewBookingRequest покупка пакета
type NewBookingRequest struct {
	PackageID int64
	TraineeID int64
	RoomID    int64
	TrainerID *int64
	Pattern   model.Pattern
	StartDate time.Time
	StartHour int
	Weeks     int // 0 - длительность пакета
}

// ExtendRequest продление цепочки. Пустые поля берутся из последнего бронирования.
type ExtendRequest struct {
	Weeks     int
	Pattern   model.Pattern
	RoomID    *int64
	TrainerID *int64
}

// SeriesResult созданная серия
type SeriesResult struct {
	BookingID      int64
	SeriesID       uuid.UUID
	AppointmentIDs []int64
	Count          int
	FirstSlot      Slot
	LastSlot       Slot
}

// placement владелец серии и ресурсы, на которые ставятся занятия
type placement struct {
	bookingID     *int64
	groupLessonID *int64
	roomID        int64
	trainerID     *int64
}

// GenerateSeries создаёт серию занятий для бронирования или группового занятия
func (s *SeriesService) GenerateSeries(ctx context.Context, actor model.Actor, req GenerateSeriesRequest) (result *SeriesResult, err error) {
	started := time.Now()
	defer func() { s.observe(opGenerateSeries, started, err) }()

	if err := req.Pattern.Validate(); err != nil {
		return nil, validationf("%v", err)
	}
	if err := req.Horizon.validate(); err != nil {
		return nil, err
	}
	if req.Anchor.Date.IsZero() {
		return nil, validationf("anchor date is required")
	}
	if req.Anchor.Hour < 0 || req.Anchor.Hour > 23 {
		return nil, validationf("anchor hour %d out of range 0-23", req.Anchor.Hour)
	}
	if req.Owner.ID <= 0 {
		return nil, validationf("series owner is required")
	}

	var (
		place    placement
		trainees = req.TraineeIDs
		capacity int
	)

	switch req.Owner.Kind {
	case model.SeriesKindBooking:
		booking, err := s.store.GetBooking(ctx, req.Owner.ID)
		if err != nil {
			return nil, storeError("get booking", err)
		}
		if booking == nil {
			return nil, notFound("booking", req.Owner.ID)
		}
		place = placement{bookingID: &booking.ID, roomID: booking.RoomID, trainerID: booking.TrainerID}
		if len(trainees) == 0 {
			trainees = []int64{booking.TraineeID}
		}
	case model.SeriesKindGroupLesson:
		lesson, err := s.store.GetGroupLesson(ctx, req.Owner.ID)
		if err != nil {
			return nil, storeError("get group lesson", err)
		}
		if lesson == nil {
			return nil, notFound("group lesson", req.Owner.ID)
		}
		place = placement{groupLessonID: &lesson.ID, roomID: lesson.RoomID, trainerID: lesson.TrainerID}
		capacity = lesson.Capacity
	default:
		return nil, validationf("unknown series kind %q", req.Owner.Kind)
	}

	if capacity > 0 && len(trainees) > capacity {
		return nil, validationf("group lesson %d holds %d trainees, got %d", req.Owner.ID, capacity, len(trainees))
	}

	slots := GenerateSlots(req.Pattern, req.Anchor, req.Horizon)
	if len(slots) == 0 {
		return nil, validationf("pattern produced no occurrences")
	}

	appointments := buildSeries(place, slots, req.Bounded)
	if err := s.checkFree(ctx, opGenerateSeries, appointments); err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.InsertAppointments(ctx, appointments); err != nil {
			return storeError("insert appointments", err)
		}

		enrollments, err := s.seriesEnrollments(ctx, place, appointments, trainees, req.Bounded)
		if err != nil {
			return err
		}
		if err := s.store.InsertEnrollments(ctx, enrollments); err != nil {
			return storeError("insert enrollments", err)
		}
		return nil
	})
	if err != nil {
		return nil, storeError("generate series", err)
	}

	result = newSeriesResult(appointments, slots)
	if place.bookingID != nil {
		result.BookingID = *place.bookingID
	}

	s.metrics.AddAppointments(opGenerateSeries, result.Count)
	s.logger.Info("Series generated",
		zap.String("owner", req.Owner.String()),
		zap.String("series_id", result.SeriesID.String()),
		zap.Int("count", result.Count),
		zap.Int64("actor_id", actor.UserID),
	)

	return result, nil
}

// PurchaseBooking создаёт бронирование по пакету вместе с первой серией занятий
func (s *SeriesService) PurchaseBooking(ctx context.Context, actor model.Actor, req NewBookingRequest) (result *SeriesResult, err error) {
	started := time.Now()
	defer func() { s.observe(opPurchaseBooking, started, err) }()

	if err := req.Pattern.Validate(); err != nil {
		return nil, validationf("%v", err)
	}
	if req.PackageID <= 0 || req.TraineeID <= 0 || req.RoomID <= 0 {
		return nil, validationf("package, trainee and room are required")
	}
	if req.StartDate.IsZero() {
		return nil, validationf("start date is required")
	}
	if req.StartHour < 0 || req.StartHour > 23 {
		return nil, validationf("start hour %d out of range 0-23", req.StartHour)
	}
	if req.Weeks < 0 {
		return nil, validationf("weeks must not be negative")
	}

	pkg, err := s.store.GetPackage(ctx, req.PackageID)
	if err != nil {
		return nil, storeError("get package", err)
	}
	if pkg == nil {
		return nil, notFound("package", req.PackageID)
	}

	weeks := req.Weeks
	if weeks == 0 {
		weeks = pkg.Weeks
	}
	if weeks <= 0 {
		return nil, validationf("package %d has no duration, weeks are required", pkg.ID)
	}
	bounded := !pkg.OpenEnded

	slots := GenerateSlots(req.Pattern, Anchor{Date: req.StartDate, Hour: req.StartHour}, Weeks(weeks))
	booking := &model.Booking{
		PackageID:            pkg.ID,
		TraineeID:            req.TraineeID,
		RoomID:               req.RoomID,
		TrainerID:            req.TrainerID,
		StartDate:            slots[0].Date,
		Pattern:              req.Pattern.Canonical(),
		RemainingReschedules: s.policy.MaxReschedules,
	}
	if bounded {
		end := slots[len(slots)-1].Date
		booking.EndDate = &end
	}

	appointments := buildSeries(placement{roomID: req.RoomID, trainerID: req.TrainerID}, slots, bounded)
	if err := s.checkFree(ctx, opPurchaseBooking, appointments); err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.InsertBooking(ctx, booking); err != nil {
			return storeError("insert booking", err)
		}
		return s.insertBookingSeries(ctx, booking, appointments, []int64{booking.TraineeID}, bounded)
	})
	if err != nil {
		return nil, storeError("purchase booking", err)
	}

	result = newSeriesResult(appointments, slots)
	result.BookingID = booking.ID

	s.metrics.AddAppointments(opPurchaseBooking, result.Count)
	s.logger.Info("Booking purchased",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("package_id", pkg.ID),
		zap.Int64("trainee_id", req.TraineeID),
		zap.String("series_id", result.SeriesID.String()),
		zap.Int("count", result.Count),
		zap.Int64("actor_id", actor.UserID),
	)

	return result, nil
}

// ExtendChain продлевает цепочку: новое бронирование после последнего в цепочке
func (s *SeriesService) ExtendChain(ctx context.Context, actor model.Actor, bookingID int64, req ExtendRequest) (result *SeriesResult, err error) {
	started := time.Now()
	defer func() { s.observe(opExtendChain, started, err) }()

	if req.Weeks < 0 || req.Weeks > 52 {
		return nil, validationf("weeks must be within 0-52, got %d", req.Weeks)
	}
	if len(req.Pattern) > 0 {
		if err := req.Pattern.Validate(); err != nil {
			return nil, validationf("%v", err)
		}
	}

	terminal, err := s.chain.FindTerminal(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListAppointmentsByBooking(ctx, terminal.ID)
	if err != nil {
		return nil, storeError("list appointments", err)
	}
	if len(existing) == 0 {
		return nil, validationf("booking %d has no appointments to extend from", terminal.ID)
	}
	sortAppointments(existing)
	last := existing[len(existing)-1]

	pkg, err := s.store.GetPackage(ctx, terminal.PackageID)
	if err != nil {
		return nil, storeError("get package", err)
	}
	if pkg == nil {
		return nil, notFound("package", terminal.PackageID)
	}

	weeks := req.Weeks
	if weeks == 0 {
		weeks = pkg.Weeks
	}
	if weeks <= 0 {
		return nil, validationf("package %d has no duration, weeks are required", pkg.ID)
	}
	bounded := !pkg.OpenEnded

	pattern := terminal.Pattern
	if len(req.Pattern) > 0 {
		pattern = req.Pattern
	}
	if err := pattern.Validate(); err != nil {
		return nil, validationf("booking %d: %v", terminal.ID, err)
	}

	roomID := terminal.RoomID
	if req.RoomID != nil {
		roomID = *req.RoomID
	}
	trainerID := terminal.TrainerID
	if req.TrainerID != nil {
		trainerID = req.TrainerID
	}

	today := model.DateOf(s.clock.Now())
	anchor := ExtensionAnchor(last.Date, today)
	slots := GenerateSlots(pattern, Anchor{Date: anchor}, Weeks(weeks))

	successor := &model.Booking{
		PackageID:            terminal.PackageID,
		TraineeID:            terminal.TraineeID,
		RoomID:               roomID,
		TrainerID:            trainerID,
		StartDate:            slots[0].Date,
		Pattern:              pattern.Canonical(),
		RemainingReschedules: s.policy.MaxReschedules,
	}
	if bounded {
		end := slots[len(slots)-1].Date
		successor.EndDate = &end
	}

	appointments := buildSeries(placement{roomID: roomID, trainerID: trainerID}, slots, bounded)
	if err := s.checkFree(ctx, opExtendChain, appointments); err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.InsertBooking(ctx, successor); err != nil {
			return storeError("insert booking", err)
		}

		linked, err := s.store.SetSuccessor(ctx, terminal.ID, successor.ID)
		if err != nil {
			return storeError("set successor", err)
		}
		if !linked {
			return conflictf("booking %d was extended concurrently", terminal.ID)
		}

		enrolled, err := s.store.ListEnrollmentsByBooking(ctx, terminal.ID)
		if err != nil {
			return storeError("list enrollments", err)
		}
		trainees := make([]int64, 0, len(enrolled))
		for _, e := range enrolled {
			trainees = append(trainees, e.TraineeID)
		}
		if len(trainees) == 0 {
			trainees = []int64{terminal.TraineeID}
		}

		return s.insertBookingSeries(ctx, successor, appointments, trainees, bounded)
	})
	if err != nil {
		return nil, storeError("extend chain", err)
	}

	result = newSeriesResult(appointments, slots)
	result.BookingID = successor.ID

	s.metrics.AddAppointments(opExtendChain, result.Count)
	s.logger.Info("Booking chain extended",
		zap.Int64("booking_id", bookingID),
		zap.Int64("terminal_booking_id", terminal.ID),
		zap.Int64("successor_booking_id", successor.ID),
		zap.Time("anchor", anchor),
		zap.String("series_id", result.SeriesID.String()),
		zap.Int("count", result.Count),
		zap.Int64("actor_id", actor.UserID),
	)

	return result, nil
}

// Appointments возвращает занятия серии по (дата, час)
func (s *SeriesService) Appointments(ctx context.Context, ref model.SeriesRef) ([]*model.Appointment, error) {
	return appointmentsForSeries(ctx, s.store, ref)
}

// Chain возвращает всю цепочку продлений, в которую входит бронирование
func (s *SeriesService) Chain(ctx context.Context, bookingID int64) ([]*model.Booking, error) {
	return s.chain.ResolveFullChain(ctx, bookingID)
}

// CompletePastAppointments помечает прошедшие занятия проведёнными.
// Вызывается периодически из фонового планировщика.
func (s *SeriesService) CompletePastAppointments(ctx context.Context) (int64, error) {
	now := s.clock.Now()

	completed, err := s.store.CompletePast(ctx, model.DateOf(now), now.Hour())
	if err != nil {
		return 0, storeError("complete past appointments", err)
	}

	if completed > 0 {
		s.logger.Info("Past appointments completed", zap.Int64("count", completed))
	}

	return completed, nil
}

// insertBookingSeries пишет занятия бронирования и записи клиентов на него
func (s *SeriesService) insertBookingSeries(ctx context.Context, booking *model.Booking, appointments []*model.Appointment, trainees []int64, bounded bool) error {
	for _, a := range appointments {
		a.BookingID = &booking.ID
	}
	if err := s.store.InsertAppointments(ctx, appointments); err != nil {
		return storeError("insert appointments", err)
	}

	enrollments, err := s.seriesEnrollments(ctx, placement{bookingID: &booking.ID}, appointments, trainees, bounded)
	if err != nil {
		return err
	}
	if err := s.store.InsertEnrollments(ctx, enrollments); err != nil {
		return storeError("insert enrollments", err)
	}
	return nil
}

// seriesEnrollments записи клиентов: на бронирование целиком или на каждое групповое занятие
func (s *SeriesService) seriesEnrollments(ctx context.Context, place placement, appointments []*model.Appointment, trainees []int64, bounded bool) ([]*model.Enrollment, error) {
	var enrollments []*model.Enrollment

	if place.groupLessonID != nil {
		for _, a := range appointments {
			for _, traineeID := range trainees {
				enrollments = append(enrollments, &model.Enrollment{
					TraineeID:     traineeID,
					AppointmentID: &a.ID,
					SessionNumber: a.SessionNumber,
					TotalSessions: a.TotalSessions,
				})
			}
		}
		return enrollments, nil
	}

	existing, err := s.store.ListEnrollmentsByBooking(ctx, *place.bookingID)
	if err != nil {
		return nil, storeError("list enrollments", err)
	}
	already := make(map[int64]struct{}, len(existing))
	for _, e := range existing {
		already[e.TraineeID] = struct{}{}
	}

	var total *int
	if bounded {
		n := len(appointments)
		total = &n
	}

	for _, traineeID := range trainees {
		if _, ok := already[traineeID]; ok {
			continue
		}
		already[traineeID] = struct{}{}
		enrollments = append(enrollments, &model.Enrollment{
			TraineeID:     traineeID,
			BookingID:     place.bookingID,
			TotalSessions: total,
		})
	}

	return enrollments, nil
}

// checkFree проверяет, что новая серия не пересекается с уже запланированными занятиями
func (s *SeriesService) checkFree(ctx context.Context, op string, appointments []*model.Appointment) error {
	candidates := make([]Candidate, len(appointments))
	for i, a := range appointments {
		candidates[i] = Candidate{
			RoomID:    &a.RoomID,
			TrainerID: a.TrainerID,
			Date:      a.Date,
			Hour:      a.Hour,
			Exclude:   NewIDSet(),
		}
	}

	conflicts, err := s.conflicts.Check(ctx, candidates)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		s.metrics.AddConflicts(op, len(conflicts))
		s.logger.Warn("Series rejected due to conflicts",
			zap.String("operation", op),
			zap.Int("conflicts", len(conflicts)),
		)
		return &ConflictError{Conflicts: conflicts}
	}

	return nil
}

func (s *SeriesService) observe(op string, started time.Time, err error) {
	s.metrics.ObserveOperation(op, outcomeOf(err), time.Since(started))
}

// buildSeries строит занятия серии с общим series_id и нумерацией 1..N в порядке слотов.
// total_sessions проставляется только для ограниченной серии.
func buildSeries(place placement, slots []Slot, bounded bool) []*model.Appointment {
	seriesID := uuid.New()
	total := len(slots)

	appointments := make([]*model.Appointment, len(slots))
	for i, slot := range slots {
		a := &model.Appointment{
			BookingID:     place.bookingID,
			GroupLessonID: place.groupLessonID,
			RoomID:        place.roomID,
			TrainerID:     place.trainerID,
			Date:          slot.Date,
			Hour:          slot.Hour,
			Status:        model.AppointmentStatusScheduled,
			SeriesID:      seriesID,
		}
		number := i + 1
		a.SessionNumber = &number
		if bounded {
			a.TotalSessions = &total
		}
		appointments[i] = a
	}

	return appointments
}

func newSeriesResult(appointments []*model.Appointment, slots []Slot) *SeriesResult {
	result := &SeriesResult{
		AppointmentIDs: appointmentIDs(appointments),
		Count:          len(appointments),
	}
	if len(appointments) > 0 {
		result.SeriesID = appointments[0].SeriesID
		result.FirstSlot = slots[0]
		result.LastSlot = slots[len(slots)-1]
	}
	return result
}
