package service

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/model"
)

// IDSet множество ID занятий
type IDSet map[int64]struct{}

func NewIDSet(ids ...int64) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// IDs возвращает отсортированный список ID
func (s IDSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Candidate предполагаемое размещение занятия
type Candidate struct {
	RoomID    *int64
	TrainerID *int64
	Date      time.Time
	Hour      int
	Exclude   IDSet // занятия, которые не считаются конфликтом (своя серия или перемещаемая пачка)
}

// Conflict коллизия кандидата с уже запланированным занятием
type Conflict struct {
	Candidate       Candidate
	RoomConflict    bool
	TrainerConflict bool
	// ID занятий, с которыми столкнулся кандидат (0 - столкновение внутри самой пачки)
	RoomAppointmentID    int64
	TrainerAppointmentID int64
}

// OccupancyFinder ищет запланированное занятие, занимающее ресурс в слот
type OccupancyFinder interface {
	FindOccupying(ctx context.Context, q model.OccupancyQuery) (*model.Appointment, error)
}

type ConflictChecker struct {
	finder OccupancyFinder
}

func NewConflictChecker(finder OccupancyFinder) *ConflictChecker {
	return &ConflictChecker{finder: finder}
}

type occupancyKey struct {
	resource model.Resource
	id       int64
	date     time.Time
	hour     int
}

// Check проверяет кандидатов на занятость зала и тренера.
// Пустой результат означает отсутствие конфликтов.
func (c *ConflictChecker) Check(ctx context.Context, candidates []Candidate) ([]Conflict, error) {
	var conflicts []Conflict
	taken := make(map[occupancyKey]struct{}, len(candidates)*2)

	for _, candidate := range candidates {
		conflict := Conflict{Candidate: candidate}

		if candidate.RoomID != nil {
			busy, appointmentID, err := c.occupied(ctx, taken, model.ResourceRoom, *candidate.RoomID, candidate)
			if err != nil {
				return nil, err
			}
			conflict.RoomConflict = busy
			conflict.RoomAppointmentID = appointmentID
		}

		if candidate.TrainerID != nil {
			busy, appointmentID, err := c.occupied(ctx, taken, model.ResourceTrainer, *candidate.TrainerID, candidate)
			if err != nil {
				return nil, err
			}
			conflict.TrainerConflict = busy
			conflict.TrainerAppointmentID = appointmentID
		}

		if conflict.RoomConflict || conflict.TrainerConflict {
			conflicts = append(conflicts, conflict)
		}
	}

	return conflicts, nil
}

func (c *ConflictChecker) occupied(
	ctx context.Context,
	taken map[occupancyKey]struct{},
	resource model.Resource,
	resourceID int64,
	candidate Candidate,
) (bool, int64, error) {
	date := model.DateOf(candidate.Date)
	key := occupancyKey{resource: resource, id: resourceID, date: date, hour: candidate.Hour}

	// Два кандидата одной пачки на один ресурс в один слот
	if _, ok := taken[key]; ok {
		return true, 0, nil
	}
	taken[key] = struct{}{}

	existing, err := c.finder.FindOccupying(ctx, model.OccupancyQuery{
		Resource:   resource,
		ResourceID: resourceID,
		Date:       date,
		Hour:       candidate.Hour,
		Status:     model.AppointmentStatusScheduled,
		ExcludeIDs: candidate.Exclude.IDs(),
	})
	if err != nil {
		return false, 0, storeError("find occupying appointment", err)
	}
	if existing == nil {
		return false, 0, nil
	}

	return true, existing.ID, nil
}
