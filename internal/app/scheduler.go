package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PastCompleter закрывает прошедшие занятия
type PastCompleter interface {
	CompletePastAppointments(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	completer PastCompleter
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	done      chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(completer PastCompleter, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		completer: completer,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runCompletionTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прогона
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runCompletionTask периодически помечает прошедшие занятия проведёнными
func (s *Scheduler) runCompletionTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.completePast(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.completePast(ctx)
		case <-s.stopChan:
			s.logger.Info("Appointment completion task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Appointment completion task cancelled")
			return
		}
	}
}

func (s *Scheduler) completePast(ctx context.Context) {
	completed, err := s.completer.CompletePastAppointments(ctx)
	if err != nil {
		s.logger.Error("Failed to complete past appointments", zap.Error(err))
		return
	}

	s.logger.Debug("Appointment completion run finished", zap.Int64("completed", completed))
}
