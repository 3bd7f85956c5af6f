package handlers

import (
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/controller/state"
	"github.com/Freeeeeet/training_scheduler/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService     *service.UserService
	catalogService  *service.CatalogService
	seriesService   *service.SeriesService
	transferService *service.TransferService
	stateManager    *state.Manager
	location        *time.Location
	logger          *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	catalogService *service.CatalogService,
	seriesService *service.SeriesService,
	transferService *service.TransferService,
	stateManager *state.Manager,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:     userService,
		catalogService:  catalogService,
		seriesService:   seriesService,
		transferService: transferService,
		stateManager:    stateManager,
		location:        location,
		logger:          logger,
	}
}

// today текущая дата в часовом поясе клуба
func (h *Handlers) today() time.Time {
	return time.Now().In(h.location)
}
