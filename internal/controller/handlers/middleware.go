package handlers

import (
	"context"
	"errors"

	"github.com/Freeeeeet/training_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireStaff проверяет что пользователь зарегистрирован и может управлять расписанием
// Возвращает контекст инициатора и true если OK
func (h *Handlers) requireStaff(ctx context.Context, b *bot.Bot, update *models.Update) (model.Actor, bool) {
	if update.Message == nil || update.Message.From == nil {
		return model.Actor{}, false
	}

	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	actor, err := h.userService.ResolveActor(ctx, telegramID)
	if errors.Is(err, service.ErrNotFound) {
		h.sendMessage(ctx, b, chatID, "❌ Пользователь не найден. Используйте /start для регистрации.")
		return model.Actor{}, false
	}
	if err != nil {
		h.logger.Error("Failed to resolve actor", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return model.Actor{}, false
	}

	if actor.IsTrainee() {
		h.sendMessage(ctx, b, chatID, "❌ Эта команда доступна только администраторам и тренерам.")
		return model.Actor{}, false
	}

	return actor, true
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// sendUsage сообщает об ошибке разбора аргументов и напоминает формат команды
func (h *Handlers) sendUsage(ctx context.Context, b *bot.Bot, chatID int64, err error, usage string) {
	h.sendMessage(ctx, b, chatID, "❌ "+err.Error()+"\n\nФормат: "+usage)
}

// sendServiceError отправляет пользователю текст ошибки сервиса
func (h *Handlers) sendServiceError(ctx context.Context, b *bot.Bot, chatID int64, command string, err error) {
	h.logger.Debug("Command rejected", zap.String("command", command), zap.Error(err))
	h.sendMessage(ctx, b, chatID, formatting.FormatError(err))
}
