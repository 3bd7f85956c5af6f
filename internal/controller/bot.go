package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/training_scheduler/internal/controller/state"
	"github.com/Freeeeeet/training_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// pendingTTL сколько ждать /confirm после проверки переноса
const pendingTTL = 10 * time.Minute

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	userService *service.UserService,
	catalogService *service.CatalogService,
	seriesService *service.SeriesService,
	transferService *service.TransferService,
	location *time.Location,
	logger *zap.Logger,
) *BotController {
	// Создаём менеджер состояний
	stateManager := state.NewManager(pendingTTL)

	cmdHandlers := handlers.NewHandlers(
		userService,
		catalogService,
		seriesService,
		transferService,
		stateManager,
		location,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	commands := map[string]bot.HandlerFunc{
		"start":     c.handlers.HandleStart,
		"help":      c.handlers.HandleHelp,
		"cancel":    c.handlers.HandleCancel,
		"confirm":   c.handlers.HandleConfirm,
		"packages":  c.handlers.HandlePackages,
		"chain":     c.handlers.HandleChain,
		"series":    c.handlers.HandleSeries,
		"purchase":  c.handlers.HandlePurchase,
		"generate":  c.handlers.HandleGenerate,
		"extend":    c.handlers.HandleExtend,
		"transfer":  c.handlers.HandleTransfer,
		"shift":     c.handlers.HandleShift,
		"shiftslot": c.handlers.HandleShiftSlot,
	}

	// Команда сравнивается целиком, поэтому /shift не перехватывает /shiftslot
	for name, handler := range commands {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, name, bot.MatchTypeCommandStartOnly, handler)
	}

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "packages", Description: "🧾 Пакеты тренировок"},
		{Command: "chain", Description: "🔗 Цепочка продлений"},
		{Command: "series", Description: "📅 Занятия серии"},
		{Command: "purchase", Description: "🧾 Оформить пакет"},
		{Command: "generate", Description: "➕ Создать серию по шаблону"},
		{Command: "extend", Description: "⏩ Продлить цепочку"},
		{Command: "transfer", Description: "🏠 Сменить зал или тренера"},
		{Command: "shift", Description: "🗓 Сдвинуть на недели"},
		{Command: "shiftslot", Description: "🔀 Сдвинуть по шаблону"},
		{Command: "confirm", Description: "✅ Подтвердить перенос"},
		{Command: "cancel", Description: "❌ Отменить перенос"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает бота, блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}
