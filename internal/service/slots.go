package service

import (
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/model"
)

// Slot конкретное вхождение шаблона: календарная дата и час
type Slot struct {
	Date time.Time
	Hour int
}

// Before сравнивает слоты по (дата, час)
func (s Slot) Before(other Slot) bool {
	if !s.Date.Equal(other.Date) {
		return s.Date.Before(other.Date)
	}
	return s.Hour < other.Hour
}

// Anchor точка отсчёта генерации. Вхождения раньше (Date, Hour) пропускаются.
type Anchor struct {
	Date time.Time
	Hour int
}

// Horizon горизонт генерации: число недель или явное число вхождений (Count имеет приоритет)
type Horizon struct {
	Weeks int
	Count int
}

func Weeks(n int) Horizon { return Horizon{Weeks: n} }

func Count(n int) Horizon { return Horizon{Count: n} }

// Total число вхождений для шаблона заданного размера
func (h Horizon) Total(patternSize int) int {
	if h.Count > 0 {
		return h.Count
	}
	return h.Weeks * patternSize
}

func (h Horizon) validate() error {
	if h.Count < 0 || h.Weeks < 0 {
		return validationf("horizon must not be negative")
	}
	if h.Count == 0 && h.Weeks == 0 {
		return validationf("horizon must set weeks or count")
	}
	return nil
}

// GenerateSlots разворачивает недельный шаблон в упорядоченную последовательность слотов.
// Недели начинаются с понедельника недели anchor. Результат строго возрастает по (дата, час).
func GenerateSlots(pattern model.Pattern, anchor Anchor, horizon Horizon) []Slot {
	canonical := pattern.Canonical()
	total := horizon.Total(len(canonical))
	if len(canonical) == 0 || total <= 0 {
		return []Slot{}
	}

	start := Slot{Date: model.DateOf(anchor.Date), Hour: anchor.Hour}
	week := model.WeekStart(start.Date)

	slots := make([]Slot, 0, total)
	for len(slots) < total {
		for _, entry := range canonical {
			slot := Slot{
				Date: week.AddDate(0, 0, model.WeekdayIndex(entry.Weekday)),
				Hour: entry.Hour,
			}
			if slot.Before(start) {
				continue
			}

			slots = append(slots, slot)
			if len(slots) == total {
				break
			}
		}
		week = week.AddDate(0, 0, 7)
	}

	return slots
}

// ExtensionAnchor дата начала продления: следующий день после последнего занятия,
// если оно ещё впереди, иначе ближайший следующий понедельник
func ExtensionAnchor(lastDate, today time.Time) time.Time {
	lastDate = model.DateOf(lastDate)
	today = model.DateOf(today)

	if lastDate.After(today) {
		return lastDate.AddDate(0, 0, 1)
	}
	return model.NextMonday(today)
}

// patternOf восстанавливает недельный шаблон из занятий
func patternOf(appointments []*model.Appointment) model.Pattern {
	pattern := make(model.Pattern, 0, len(appointments))
	for _, a := range appointments {
		pattern = append(pattern, model.SlotEntry{Weekday: a.Date.Weekday(), Hour: a.Hour})
	}
	return pattern.Canonical()
}
