package formatting

import "github.com/Freeeeeet/training_scheduler/internal/model"

// StatusDisplay представляет отображение статуса занятия
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetAppointmentStatusDisplay возвращает emoji и текст для статуса занятия
func GetAppointmentStatusDisplay(status model.AppointmentStatus) StatusDisplay {
	displays := map[model.AppointmentStatus]StatusDisplay{
		model.AppointmentStatusScheduled: {"🟢", "Запланировано"},
		model.AppointmentStatusCompleted: {"✔️", "Проведено"},
		model.AppointmentStatusCancelled: {"❌", "Отменено"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}
