package repository

import (
	"errors"
	"fmt"
)

// ErrSlotTaken уникальный индекс по (зал|тренер, дата, час) для запланированных занятий
var ErrSlotTaken = errors.New("slot already taken")

// BatchError ошибка записи элемента пачки с индексом Index
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch item %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
