package model

import (
	"fmt"
	"sort"
	"time"
)

// SlotEntry элемент недельного шаблона: день недели и час начала занятия
type SlotEntry struct {
	Weekday time.Weekday `json:"weekday"` // 0 = Sunday, 6 = Saturday
	Hour    int          `json:"hour"`    // 0-23
}

// Pattern недельный шаблон занятий бронирования
type Pattern []SlotEntry

// WeekdayIndex возвращает номер дня в неделе, начинающейся с понедельника (0 = Monday, 6 = Sunday)
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Less сравнивает элементы шаблона в каноническом порядке: день недели (с понедельника), затем час
func (e SlotEntry) Less(other SlotEntry) bool {
	if WeekdayIndex(e.Weekday) != WeekdayIndex(other.Weekday) {
		return WeekdayIndex(e.Weekday) < WeekdayIndex(other.Weekday)
	}
	return e.Hour < other.Hour
}

func (e SlotEntry) String() string {
	return fmt.Sprintf("%s %02d:00", e.Weekday.String()[:3], e.Hour)
}

// Canonical возвращает копию шаблона без дублей, отсортированную в каноническом порядке
func (p Pattern) Canonical() Pattern {
	seen := make(map[SlotEntry]struct{}, len(p))
	out := make(Pattern, 0, len(p))
	for _, e := range p {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Validate проверяет что шаблон не пуст, часы в диапазоне и нет повторяющихся пар
func (p Pattern) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("time-slot pattern is empty")
	}

	seen := make(map[SlotEntry]struct{}, len(p))
	for _, e := range p {
		if e.Weekday < time.Sunday || e.Weekday > time.Saturday {
			return fmt.Errorf("invalid weekday %d", e.Weekday)
		}
		if e.Hour < 0 || e.Hour > 23 {
			return fmt.Errorf("hour %d out of range 0-23", e.Hour)
		}
		if _, ok := seen[e]; ok {
			return fmt.Errorf("duplicate slot %s", e)
		}
		seen[e] = struct{}{}
	}

	return nil
}

// Date возвращает календарную дату (полночь UTC)
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf отбрасывает время суток, сохраняя календарный день в локации t
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// WeekStart возвращает понедельник недели, в которую входит дата
func WeekStart(date time.Time) time.Time {
	date = DateOf(date)
	return date.AddDate(0, 0, -WeekdayIndex(date.Weekday()))
}

// NextMonday возвращает понедельник следующей недели (всегда строго после date)
func NextMonday(date time.Time) time.Time {
	return WeekStart(date).AddDate(0, 0, 7)
}
