package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/metrics"
	"github.com/Freeeeeet/training_scheduler/internal/model"
	"go.uber.org/zap"
)

const (
	opTransfer    = "transfer"
	opShiftByTime = "shift_by_time"
	opShiftBySlot = "shift_by_slot"

	minShiftWeeks = -51
	maxShiftWeeks = 52
	maxShiftSlots = 20
)

// Scope какие занятия серии затрагивает перенос
type Scope string

const (
	ScopeSingle       Scope = "single"        // только выбранное занятие
	ScopeFromSelected Scope = "from_selected" // выбранное и все следующие, включая продления
	ScopeAllFromNow   Scope = "all_from_now"  // вся цепочка начиная с сегодняшнего дня
)

// ParseScope разбирает scope из строки
func ParseScope(raw string) (Scope, error) {
	switch scope := Scope(raw); scope {
	case ScopeSingle, ScopeFromSelected, ScopeAllFromNow:
		return scope, nil
	default:
		return "", validationf("unknown scope %q", raw)
	}
}

// Placement размещение занятия
type Placement struct {
	RoomID    int64
	TrainerID *int64
	Date      time.Time
	Hour      int
}

func placementOf(a *model.Appointment) Placement {
	return Placement{RoomID: a.RoomID, TrainerID: a.TrainerID, Date: a.Date, Hour: a.Hour}
}

// Change изменение одного занятия
type Change struct {
	AppointmentID int64
	From          Placement
	To            Placement
}

// MoveResult результат переноса
type MoveResult struct {
	AppointmentIDs []int64
	Count          int
	Changes        []Change
	DryRun         bool // ничего не записано, только проверка
}

type TransferRequest struct {
	AppointmentID int64
	Scope         Scope
	RoomID        *int64
	TrainerID     *int64
	DryRun        bool
}

type ShiftByTimeRequest struct {
	AppointmentID int64
	Scope         Scope
	Weeks         int // со знаком, от -51 до 52, кроме 0
	DryRun        bool
}

type ShiftBySlotRequest struct {
	AppointmentID int64
	Scope         Scope // допускается только from_selected (пусто - from_selected)
	Shift         int   // на сколько позиций шаблона сдвинуть, 1..20
	DryRun        bool
}

// TransferService перенос занятий на другой зал, тренера или время
type TransferService struct {
	store     Store
	chain     *ChainResolver
	conflicts *ConflictChecker
	clock     Clock
	policy    ReschedulePolicy
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewTransferService(
	store Store,
	clock Clock,
	policy ReschedulePolicy,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) *TransferService {
	return &TransferService{
		store:     store,
		chain:     NewChainResolver(store),
		conflicts: NewConflictChecker(store),
		clock:     clock,
		policy:    policy,
		metrics:   metrics,
		logger:    logger,
	}
}

// Transfer меняет зал и/или тренера у выбранных занятий, даты не меняются
func (s *TransferService) Transfer(ctx context.Context, actor model.Actor, req TransferRequest) (result *MoveResult, err error) {
	started := time.Now()
	defer func() { s.observe(opTransfer, started, err) }()

	if req.RoomID == nil && req.TrainerID == nil {
		return nil, validationf("room or trainer is required")
	}
	if req.RoomID != nil && *req.RoomID <= 0 {
		return nil, validationf("invalid room id %d", *req.RoomID)
	}
	if req.TrainerID != nil && *req.TrainerID <= 0 {
		return nil, validationf("invalid trainer id %d", *req.TrainerID)
	}
	if _, err := ParseScope(string(req.Scope)); err != nil {
		return nil, err
	}

	selected, err := s.selectAppointments(ctx, req.AppointmentID, req.Scope)
	if err != nil {
		return nil, err
	}

	changes := make([]Change, len(selected))
	for i, a := range selected {
		to := placementOf(a)
		if req.RoomID != nil {
			to.RoomID = *req.RoomID
		}
		if req.TrainerID != nil {
			to.TrainerID = req.TrainerID
		}
		changes[i] = Change{AppointmentID: a.ID, From: placementOf(a), To: to}
	}

	return s.apply(ctx, actor, opTransfer, selected, changes, req.DryRun)
}

// ShiftByTime сдвигает выбранные занятия на целое число недель, час не меняется
func (s *TransferService) ShiftByTime(ctx context.Context, actor model.Actor, req ShiftByTimeRequest) (result *MoveResult, err error) {
	started := time.Now()
	defer func() { s.observe(opShiftByTime, started, err) }()

	if req.Weeks == 0 {
		return nil, validationf("shift must be non-zero")
	}
	if req.Weeks < minShiftWeeks || req.Weeks > maxShiftWeeks {
		return nil, validationf("shift must be within %d..%d weeks, got %d", minShiftWeeks, maxShiftWeeks, req.Weeks)
	}
	if _, err := ParseScope(string(req.Scope)); err != nil {
		return nil, err
	}

	selected, err := s.selectAppointments(ctx, req.AppointmentID, req.Scope)
	if err != nil {
		return nil, err
	}

	changes := make([]Change, len(selected))
	for i, a := range selected {
		to := placementOf(a)
		to.Date = a.Date.AddDate(0, 0, 7*req.Weeks)
		changes[i] = Change{AppointmentID: a.ID, From: placementOf(a), To: to}
	}

	return s.apply(ctx, actor, opShiftByTime, selected, changes, req.DryRun)
}

// ShiftBySlot сдвигает выбранные занятия на Shift позиций недельного шаблона вперёд
func (s *TransferService) ShiftBySlot(ctx context.Context, actor model.Actor, req ShiftBySlotRequest) (result *MoveResult, err error) {
	started := time.Now()
	defer func() { s.observe(opShiftBySlot, started, err) }()

	scope := req.Scope
	if scope == "" {
		scope = ScopeFromSelected
	}
	if scope != ScopeFromSelected {
		return nil, validationf("shift by slot supports only %s scope, got %q", ScopeFromSelected, req.Scope)
	}
	if req.Shift < 1 || req.Shift > maxShiftSlots {
		return nil, validationf("shift must be within 1..%d slots, got %d", maxShiftSlots, req.Shift)
	}

	selected, err := s.selectAppointments(ctx, req.AppointmentID, scope)
	if err != nil {
		return nil, err
	}

	targets := planSlotShift(selected, req.Shift)
	changes := make([]Change, len(selected))
	for i, a := range selected {
		to := placementOf(a)
		to.Date = targets[i].Date
		to.Hour = targets[i].Hour
		changes[i] = Change{AppointmentID: a.ID, From: placementOf(a), To: to}
	}

	return s.apply(ctx, actor, opShiftBySlot, selected, changes, req.DryRun)
}

// planSlotShift возвращает новые слоты выбранных занятий: i-е занятие переходит в слот i+shift
// последовательности, сгенерированной из их же шаблона от первого занятия
func planSlotShift(selected []*model.Appointment, shift int) []Slot {
	if len(selected) == 0 {
		return nil
	}

	first := selected[0]
	slots := GenerateSlots(
		patternOf(selected),
		Anchor{Date: first.Date, Hour: first.Hour},
		Count(len(selected)+shift),
	)

	return slots[shift:]
}

// selectAppointments выбирает запланированные занятия по scope относительно занятия appointmentID
func (s *TransferService) selectAppointments(ctx context.Context, appointmentID int64, scope Scope) ([]*model.Appointment, error) {
	if appointmentID <= 0 {
		return nil, validationf("appointment id is required")
	}

	selected, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, storeError("get appointment", err)
	}
	if selected == nil {
		return nil, notFound("appointment", appointmentID)
	}
	if !selected.IsScheduled() {
		return nil, validationf("appointment %d is %s", appointmentID, selected.Status)
	}

	owner := selected.Owner()
	var candidates []*model.Appointment

	switch scope {
	case ScopeSingle:
		return []*model.Appointment{selected}, nil

	case ScopeFromSelected:
		own, err := appointmentsForSeries(ctx, s.store, owner)
		if err != nil {
			return nil, err
		}
		for _, a := range own {
			if a.ID == selected.ID || !a.Before(selected) || sameSlot(a, selected) {
				candidates = append(candidates, a)
			}
		}

		if owner.Kind == model.SeriesKindBooking {
			chain, err := s.chain.ResolveChain(ctx, owner.ID)
			if err != nil {
				return nil, err
			}
			for _, booking := range chain[1:] {
				following, err := appointmentsForSeries(ctx, s.store, model.BookingSeries(booking.ID))
				if err != nil {
					return nil, err
				}
				candidates = append(candidates, following...)
			}
		}

	case ScopeAllFromNow:
		today := model.DateOf(s.clock.Now())

		refs := []model.SeriesRef{owner}
		if owner.Kind == model.SeriesKindBooking {
			chain, err := s.chain.ResolveFullChain(ctx, owner.ID)
			if err != nil {
				return nil, err
			}
			refs = refs[:0]
			for _, booking := range chain {
				refs = append(refs, model.BookingSeries(booking.ID))
			}
		}

		for _, ref := range refs {
			appointments, err := appointmentsForSeries(ctx, s.store, ref)
			if err != nil {
				return nil, err
			}
			for _, a := range appointments {
				if !a.Date.Before(today) {
					candidates = append(candidates, a)
				}
			}
		}

	default:
		return nil, validationf("unknown scope %q", scope)
	}

	seen := NewIDSet()
	result := make([]*model.Appointment, 0, len(candidates))
	for _, a := range candidates {
		if !a.IsScheduled() || seen.Has(a.ID) {
			continue
		}
		seen[a.ID] = struct{}{}
		result = append(result, a)
	}
	if len(result) == 0 {
		return nil, validationf("no scheduled appointments in scope %s", scope)
	}
	sortAppointments(result)

	return result, nil
}

// apply проверяет политику и конфликты всей пачки, затем записывает изменения в одной транзакции
func (s *TransferService) apply(
	ctx context.Context,
	actor model.Actor,
	op string,
	selected []*model.Appointment,
	changes []Change,
	dryRun bool,
) (*MoveResult, error) {
	bookings, err := s.loadBookings(ctx, actor, selected)
	if err != nil {
		return nil, err
	}
	if err := s.policy.check(actor, s.clock.Now(), selected, bookings); err != nil {
		return nil, err
	}

	exclude := NewIDSet(appointmentIDs(selected)...)
	candidates := make([]Candidate, len(changes))
	for i, c := range changes {
		roomID := c.To.RoomID
		candidates[i] = Candidate{
			RoomID:    &roomID,
			TrainerID: c.To.TrainerID,
			Date:      c.To.Date,
			Hour:      c.To.Hour,
			Exclude:   exclude,
		}
	}

	conflicts, err := s.conflicts.Check(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		s.metrics.AddConflicts(op, len(conflicts))
		s.logger.Warn("Move rejected due to conflicts",
			zap.String("operation", op),
			zap.Int64("appointment_id", selected[0].ID),
			zap.Int("selected", len(selected)),
			zap.Int("conflicts", len(conflicts)),
		)
		return nil, &ConflictError{Conflicts: conflicts}
	}

	result := &MoveResult{
		AppointmentIDs: appointmentIDs(selected),
		Count:          len(selected),
		Changes:        changes,
		DryRun:         dryRun,
	}
	if dryRun {
		return result, nil
	}

	updates := orderedUpdates(changes)
	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateAppointments(ctx, updates); err != nil {
			return storeError("update appointments", err)
		}

		if !actor.IsTrainee() {
			return nil
		}
		for id, booking := range bookings {
			remaining := booking.RemainingReschedules - 1
			if err := s.store.UpdateBooking(ctx, id, model.BookingUpdate{RemainingReschedules: &remaining}); err != nil {
				return storeError("update booking", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError(op, err)
	}

	recordHistory(ctx, s.store, s.logger, actor, op, changes)

	s.metrics.AddAppointments(op, result.Count)
	s.logger.Info("Appointments moved",
		zap.String("operation", op),
		zap.Int64("appointment_id", selected[0].ID),
		zap.Int("count", result.Count),
		zap.Int64("actor_id", actor.UserID),
	)

	return result, nil
}

// loadBookings читает бронирования выбранных занятий для проверки политики переноса
func (s *TransferService) loadBookings(ctx context.Context, actor model.Actor, selected []*model.Appointment) (map[int64]*model.Booking, error) {
	bookings := make(map[int64]*model.Booking)
	if !actor.IsTrainee() {
		return bookings, nil
	}

	for _, id := range bookingsOf(selected) {
		booking, err := s.store.GetBooking(ctx, id)
		if err != nil {
			return nil, storeError("get booking", err)
		}
		if booking == nil {
			return nil, notFound("booking", id)
		}
		bookings[id] = booking
	}

	return bookings, nil
}

func (s *TransferService) observe(op string, started time.Time, err error) {
	s.metrics.ObserveOperation(op, outcomeOf(err), time.Since(started))
}

// orderedUpdates строит обновления в порядке commitOrder
func orderedUpdates(changes []Change) []model.AppointmentUpdate {
	updates := make([]model.AppointmentUpdate, 0, len(changes))
	for _, i := range commitOrder(changes) {
		c := changes[i]

		update := model.AppointmentUpdate{ID: c.AppointmentID}
		if c.To.RoomID != c.From.RoomID {
			roomID := c.To.RoomID
			update.RoomID = &roomID
		}
		if !sameTrainer(c.From.TrainerID, c.To.TrainerID) {
			update.TrainerID = c.To.TrainerID
		}
		if !c.To.Date.Equal(c.From.Date) {
			date := c.To.Date
			update.Date = &date
		}
		if c.To.Hour != c.From.Hour {
			hour := c.To.Hour
			update.Hour = &hour
		}
		updates = append(updates, update)
	}
	return updates
}

// commitOrder возвращает индексы изменений в порядке записи: занятие переезжает только после того,
// как другие занятия пачки освободили его целевые зал и тренера в этом слоте.
// При равенстве сохраняется исходный порядок. Если пачка заблокирована по кругу,
// остаток пишется как есть и уникальный индекс отклонит транзакцию.
func commitOrder(changes []Change) []int {
	holders := make(map[occupancyKey]int, len(changes)*2)
	for i, c := range changes {
		for _, key := range placementKeys(c.From) {
			holders[key] = i
		}
	}

	blockers := make([][]int, len(changes))
	for i, c := range changes {
		for _, key := range placementKeys(c.To) {
			if j, ok := holders[key]; ok && j != i {
				blockers[i] = append(blockers[i], j)
			}
		}
	}

	order := make([]int, 0, len(changes))
	done := make([]bool, len(changes))
	for len(order) < len(changes) {
		progressed := false
		for i := range changes {
			if done[i] || !allDone(blockers[i], done) {
				continue
			}
			done[i] = true
			order = append(order, i)
			progressed = true
		}
		if progressed {
			continue
		}

		for i := range changes {
			if !done[i] {
				done[i] = true
				order = append(order, i)
			}
		}
	}

	return order
}

func placementKeys(p Placement) []occupancyKey {
	date := model.DateOf(p.Date)
	keys := []occupancyKey{{resource: model.ResourceRoom, id: p.RoomID, date: date, hour: p.Hour}}
	if p.TrainerID != nil {
		keys = append(keys, occupancyKey{resource: model.ResourceTrainer, id: *p.TrainerID, date: date, hour: p.Hour})
	}
	return keys
}

func allDone(indexes []int, done []bool) bool {
	for _, i := range indexes {
		if !done[i] {
			return false
		}
	}
	return true
}

func sameTrainer(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameSlot(a, b *model.Appointment) bool {
	return a.Date.Equal(b.Date) && a.Hour == b.Hour
}
