package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/training_scheduler/internal/repository"
)

var (
	// ErrValidation некорректные или отсутствующие параметры запроса
	ErrValidation = errors.New("validation error")
	// ErrNotFound бронирование, занятие или пакет не найдены
	ErrNotFound = errors.New("not found")
	// ErrConflict целевые слоты заняты
	ErrConflict = errors.New("conflict detected")
	// ErrChainIntegrity цепочка продлений повреждена (цикл или висячая ссылка)
	ErrChainIntegrity = errors.New("chain integrity error")
	// ErrStoreUnavailable ошибка чтения или записи в хранилище
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ConflictError список коллизий, из-за которых операция отклонена целиком
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict detected: %d slot(s) already occupied", len(e.Conflicts))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// ChainIntegrityError обход цепочки прерван на бронировании BookingID
type ChainIntegrityError struct {
	StartID   int64
	BookingID int64
	Reason    string
}

func (e *ChainIntegrityError) Error() string {
	return fmt.Sprintf("chain integrity error: chain from booking %d: %s at booking %d", e.StartID, e.Reason, e.BookingID)
}

func (e *ChainIntegrityError) Unwrap() error {
	return ErrChainIntegrity
}

// StoreError ошибка хранилища с именем операции и индексом упавшего элемента пачки (-1 если не пачка)
type StoreError struct {
	Op    string
	Index int
	Err   error
}

func (e *StoreError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("store unavailable: %s failed at index %d: %v", e.Op, e.Index, e.Err)
	}
	return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
}

// storeError оборачивает ошибку хранилища, не трогая уже типизированные ошибки сервиса
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isServiceError(err) {
		return err
	}

	// Уникальный индекс по слоту сработал при записи, уже после проверки конфликтов
	if errors.Is(err, repository.ErrSlotTaken) {
		return fmt.Errorf("%w: %s: slot taken at commit: %v", ErrConflict, op, err)
	}

	index := -1
	var batchErr *repository.BatchError
	if errors.As(err, &batchErr) {
		index = batchErr.Index
	}

	return &StoreError{Op: op, Index: index, Err: err}
}

func isServiceError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrChainIntegrity) ||
		errors.Is(err, ErrStoreUnavailable)
}

// outcomeOf метка результата операции для метрик
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrChainIntegrity):
		return "chain_integrity"
	default:
		return "store_unavailable"
	}
}
