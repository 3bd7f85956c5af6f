package handlers

import (
	"context"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/training_scheduler/internal/controller/state"
	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	usageChain     = "<бронирование>"
	usageSeries    = "<бронирование|gID>"
	usagePurchase  = "<пакет> <клиент> <зал> <шаблон> <ГГГГ-ММ-ДД> [hour=<час>] [trainer=<id>] [weeks=<n>]"
	usageGenerate  = "<бронирование|gID> <недель> <шаблон> [ГГГГ-ММ-ДД]"
	usageExtend    = "<бронирование> [недель] [шаблон] [room=<id>] [trainer=<id>]"
	usageTransfer  = "<занятие> <scope> [room=<id>] [trainer=<id>]"
	usageShift     = "<занятие> <scope> <недель со знаком>"
	usageShiftSlot = "<занятие> <позиций>"
)

// HandlePackages показывает активные пакеты тренировок
func (h *Handlers) HandlePackages(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireStaff(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	packages, err := h.catalogService.ActivePackages(ctx)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, "/packages", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatting.FormatPackages(packages))
}

// HandleChain показывает цепочку продлений бронирования
func (h *Handlers) HandleChain(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireStaff(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		h.sendUsage(ctx, b, chatID, errUsage, "/chain "+usageChain)
		return
	}
	bookingID, err := parseID(args[0], "ID бронирования")
	if err != nil {
		h.sendUsage(ctx, b, chatID, err, "/chain "+usageChain)
		return
	}

	chain, err := h.seriesService.Chain(ctx, bookingID)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, "/chain", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatting.FormatChain(chain))
}

// HandleSeries показывает занятия бронирования или группового занятия
func (h *Handlers) HandleSeries(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireStaff(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		h.sendUsage(ctx, b, chatID, errUsage, "/series "+usageSeries)
		return
	}
	ref, err := parseSeriesRef(args[0])
	if err != nil {
		h.sendUsage(ctx, b, chatID, err, "/series "+usageSeries)
		return
	}

	appointments, err := h.seriesService.Appointments(ctx, ref)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, "/series", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatting.FormatAppointments(ref, appointments))
}

// HandlePurchase оформляет покупку пакета и создаёт занятия
func (h *Handlers) HandlePurchase(ctx context.Context, b *bot.Bot, update *models.Update) {
	actor, ok := h.requireStaff(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	req, err := parsePurchaseArgs(commandArgs(update.Message.Text))
	if err != nil {
		h.sendUsage(ctx, b, chatID, err, "/purchase "+usagePurchase)
		return
	}

	result, err := h.seriesService.PurchaseBooking(ctx, actor, req)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, "/purchase", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatting.FormatSeriesResult("Пакет оформлен", result))
}

// HandleGenerate создаёт серию занятий по шаблону
func (h *Handlers) HandleGenerate(ctx context.Context, b *bot.Bot, update *models.Update) {
	actor, ok := h.requireStaff(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	req, err := parseGenerateArgs(commandArgs(update.Message.Text), model.DateOf(h.today()))
	if err != nil {
		h.sendUsage(ctx, b, chatID, err, "/generate "+usageGenerate)
		return
	}

	result, err := h.seriesService.GenerateSeries(ctx, actor, req)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, "/generate", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatting.FormatSeriesResult("Серия создана", result))
}

// HandleExtend продлевает цепочку бронирований
func (h *Handlers) HandleExtend(ctx context.Context, b *bot.Bot, update *models.Update) {
	actor, ok := h.requireStaff(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	bookingID, req, err := parseExtendArgs(commandArgs(update.Message.Text))
	if err != nil {
		h.sendUsage(ctx, b, chatID, err, "/extend "+usageExtend)
		return
	}

	result, err := h.seriesService.ExtendChain(ctx, actor, bookingID, req)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, "/extend", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatting.FormatSeriesResult("Цепочка продлена", result))
}

// HandleTransfer переносит занятия в другой зал или к другому тренеру
func (h *Handlers) HandleTransfer(ctx context.Context, b *bot.Bot, update *models.Update) {
	actor, ok := h.requireStaff(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	req, err := parseTransferArgs(commandArgs(update.Message.Text))
	if err != nil {
		h.sendUsage(ctx, b, chatID, err, "/transfer "+usageTransfer)
		return
	}

	h.dryRunThenStage(ctx, b, chatID, update.Message.Text, func(ctx context.Context, dryRun bool) (*service.MoveResult, error) {
		r := req
		r.DryRun = dryRun
		return h.transferService.Transfer(ctx, actor, r)
	})
}

// HandleShift сдвигает занятия на целое число недель
func (h *Handlers) HandleShift(ctx context.Context, b *bot.Bot, update *models.Update) {
	actor, ok := h.requireStaff(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	req, err := parseShiftArgs(commandArgs(update.Message.Text))
	if err != nil {
		h.sendUsage(ctx, b, chatID, err, "/shift "+usageShift)
		return
	}

	h.dryRunThenStage(ctx, b, chatID, update.Message.Text, func(ctx context.Context, dryRun bool) (*service.MoveResult, error) {
		r := req
		r.DryRun = dryRun
		return h.transferService.ShiftByTime(ctx, actor, r)
	})
}

// HandleShiftSlot сдвигает занятия на N позиций недельного шаблона
func (h *Handlers) HandleShiftSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	actor, ok := h.requireStaff(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	req, err := parseShiftSlotArgs(commandArgs(update.Message.Text))
	if err != nil {
		h.sendUsage(ctx, b, chatID, err, "/shiftslot "+usageShiftSlot)
		return
	}

	h.dryRunThenStage(ctx, b, chatID, update.Message.Text, func(ctx context.Context, dryRun bool) (*service.MoveResult, error) {
		r := req
		r.DryRun = dryRun
		return h.transferService.ShiftBySlot(ctx, actor, r)
	})
}

// dryRunThenStage проверяет перенос без записи и сохраняет его до /confirm
func (h *Handlers) dryRunThenStage(
	ctx context.Context,
	b *bot.Bot,
	chatID int64,
	command string,
	run func(ctx context.Context, dryRun bool) (*service.MoveResult, error),
) {
	preview, err := run(ctx, true)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, command, err)
		return
	}

	h.stateManager.SetPending(chatID, &state.PendingOperation{
		Command: command,
		Commit: func(ctx context.Context) (*service.MoveResult, error) {
			return run(ctx, false)
		},
		CreatedAt: time.Now(),
	})

	h.sendMessage(ctx, b, chatID, formatting.FormatMoveResult(preview))
}
