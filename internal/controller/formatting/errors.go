package formatting

import (
	"errors"

	"github.com/Freeeeeet/training_scheduler/internal/service"
)

// FormatError возвращает текст ошибки сервиса для пользователя
func FormatError(err error) string {
	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		return FormatConflicts(conflictErr.Conflicts)
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		return "❌ Некорректный запрос: " + err.Error()
	case errors.Is(err, service.ErrNotFound):
		return "❌ Не найдено: " + err.Error()
	case errors.Is(err, service.ErrConflict):
		return "⚠️ Слот уже занят. Ничего не изменено."
	case errors.Is(err, service.ErrChainIntegrity):
		return "❌ Цепочка продлений повреждена. Обратитесь к администратору."
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}
