package model

import (
	"fmt"
	"time"
)

// TrainingPackage пакет тренировок, который покупает ученик
type TrainingPackage struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Weeks           int       `json:"weeks"`             // длительность периода в неделях
	SessionsPerWeek int       `json:"sessions_per_week"` // занятий в неделю
	OpenEnded       bool      `json:"open_ended"`        // без фиксированного числа занятий
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// SeriesKind вид владельца серии занятий
type SeriesKind string

const (
	SeriesKindBooking     SeriesKind = "booking"
	SeriesKindGroupLesson SeriesKind = "group_lesson"
)

// SeriesRef единая ссылка на серию занятий: индивидуальное бронирование или групповое занятие
type SeriesRef struct {
	Kind SeriesKind
	ID   int64
}

// BookingSeries ссылка на серию индивидуального бронирования
func BookingSeries(bookingID int64) SeriesRef {
	return SeriesRef{Kind: SeriesKindBooking, ID: bookingID}
}

// GroupLessonSeries ссылка на серию группового занятия
func GroupLessonSeries(groupLessonID int64) SeriesRef {
	return SeriesRef{Kind: SeriesKindGroupLesson, ID: groupLessonID}
}

func (r SeriesRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}
