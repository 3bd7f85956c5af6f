package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/training_scheduler/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Справка по командам:\n\n" +
	"/packages - пакеты тренировок\n" +
	"/chain <бронирование> - цепочка продлений\n" +
	"/series <бронирование|gID> - занятия серии\n" +
	"/purchase " + usagePurchase + "\n" +
	"/generate " + usageGenerate + "\n" +
	"/extend " + usageExtend + "\n\n" +
	"Переносы (сначала проверка, затем /confirm):\n" +
	"/transfer " + usageTransfer + "\n" +
	"/shift " + usageShift + "\n" +
	"/shiftslot " + usageShiftSlot + "\n\n" +
	"scope: single, from_selected, all_from_now\n" +
	"Шаблон: mon:9,wed:18\n\n" +
	"/confirm - подтвердить перенос\n" +
	"/cancel - отменить перенос"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user := update.Message.From

	registeredUser, err := h.userService.RegisterUser(
		ctx,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
	)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	text := fmt.Sprintf("👋 Привет, %s!\n\nЭто бот расписания тренировок.", registeredUser.FirstName)
	if registeredUser.CanManageSchedule() {
		text += "\n\n" + helpText
	} else {
		text += "\n\nУправление расписанием доступно администраторам клуба."
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, text)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCancel обрабатывает команду /cancel - отмена ожидающего переноса
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	if h.stateManager.GetState(chatID) == state.StateNone {
		h.sendMessage(ctx, b, chatID, "❌ Нет активных операций для отмены.")
		return
	}

	h.stateManager.ClearState(chatID)
	h.sendMessage(ctx, b, chatID, "✅ Операция отменена.")
}

// HandleConfirm обрабатывает команду /confirm - выполнение проверенного переноса
func (h *Handlers) HandleConfirm(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireStaff(ctx, b, update); !ok {
		return
	}

	chatID := update.Message.Chat.ID
	op, ok := h.stateManager.TakePending(chatID, time.Now())
	if !ok {
		h.sendMessage(ctx, b, chatID, "❌ Нет операций, ожидающих подтверждения.")
		return
	}

	result, err := op.Commit(ctx)
	if err != nil {
		h.sendServiceError(ctx, b, chatID, op.Command, err)
		return
	}

	h.logger.Info("Confirmed operation committed",
		zap.Int64("chat_id", chatID),
		zap.String("command", op.Command),
		zap.Int("count", result.Count),
	)

	h.sendMessage(ctx, b, chatID, formatting.FormatMoveResult(result))
}
