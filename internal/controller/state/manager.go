package state

import (
	"sync"
	"time"
)

// Manager управляет состояниями чатов
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // chatID -> UserData
	ttl    time.Duration
}

// NewManager создаёт новый менеджер состояний. Неподтверждённые операции старше ttl отбрасываются.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
		ttl:    ttl,
	}
}

// GetState получает текущее состояние чата
func (sm *Manager) GetState(chatID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[chatID]; exists {
		return userData.State
	}
	return StateNone
}

// ClearState очищает состояние и данные чата
func (sm *Manager) ClearState(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, chatID)
}

// SetPending сохраняет операцию до подтверждения, заменяя предыдущую
func (sm *Manager) SetPending(chatID int64, op *PendingOperation) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.states[chatID] = &UserData{
		State: StateAwaitingConfirmation,
		Data:  map[string]interface{}{dataPending: op},
	}
}

// TakePending забирает ожидающую операцию. Состояние чата сбрасывается в любом случае.
func (sm *Manager) TakePending(chatID int64, now time.Time) (*PendingOperation, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	userData, exists := sm.states[chatID]
	if !exists || userData.State != StateAwaitingConfirmation {
		return nil, false
	}
	delete(sm.states, chatID)

	op, ok := userData.Data[dataPending].(*PendingOperation)
	if !ok {
		return nil, false
	}
	if sm.ttl > 0 && now.Sub(op.CreatedAt) > sm.ttl {
		return nil, false
	}
	return op, true
}
