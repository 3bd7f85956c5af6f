package state

import (
	"context"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/service"
)

// UserState представляет текущее состояние чата
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Перенос проверен вхолостую и ждёт /confirm
	StateAwaitingConfirmation UserState = "awaiting_confirmation"
)

const dataPending = "pending"

// PendingOperation перенос, ожидающий подтверждения
type PendingOperation struct {
	Command   string
	Commit    func(ctx context.Context) (*service.MoveResult, error)
	CreatedAt time.Time
}

// UserData хранит временные данные чата во время диалога
type UserData struct {
	State UserState
	Data  map[string]interface{}
}
