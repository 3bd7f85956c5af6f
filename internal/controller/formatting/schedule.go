package formatting

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/service"
)

// maxListedAppointments сколько занятий показывать в одном сообщении
const maxListedAppointments = 30

// FormatPattern форматирует недельный шаблон: "Пн 09:00, Ср 18:00"
func FormatPattern(pattern model.Pattern) string {
	parts := make([]string, 0, len(pattern))
	for _, e := range pattern.Canonical() {
		parts = append(parts, fmt.Sprintf("%s %02d:00", GetWeekdayShort(int(e.Weekday)), e.Hour))
	}
	return strings.Join(parts, ", ")
}

// FormatTrainer форматирует тренера, nil - без тренера
func FormatTrainer(trainerID *int64) string {
	if trainerID == nil {
		return "без тренера"
	}
	return fmt.Sprintf("тренер #%d", *trainerID)
}

// FormatPackages форматирует список пакетов
func FormatPackages(packages []*model.TrainingPackage) string {
	if len(packages) == 0 {
		return "📭 Нет активных пакетов"
	}

	var sb strings.Builder
	sb.WriteString("🧾 Пакеты тренировок:\n")
	for _, p := range packages {
		if p.OpenEnded {
			fmt.Fprintf(&sb, "\n#%d %s: %d в неделю, бессрочно", p.ID, p.Name, p.SessionsPerWeek)
			continue
		}
		fmt.Fprintf(&sb, "\n#%d %s: %d в неделю, %d %s", p.ID, p.Name, p.SessionsPerWeek, p.Weeks, PluralizeWeeks(p.Weeks))
	}
	return sb.String()
}

// FormatChain форматирует цепочку продлений
func FormatChain(chain []*model.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔗 Цепочка из %d бронирований\n", len(chain))

	for i, b := range chain {
		end := "бессрочно"
		if b.EndDate != nil {
			end = FormatDate(*b.EndDate)
		}
		fmt.Fprintf(&sb, "\n%d. Бронирование #%d (пакет #%d)\n", i+1, b.ID, b.PackageID)
		fmt.Fprintf(&sb, "   📅 %s - %s\n", FormatDate(b.StartDate), end)
		fmt.Fprintf(&sb, "   🕐 %s\n", FormatPattern(b.Pattern))
		fmt.Fprintf(&sb, "   🏠 зал #%d, %s\n", b.RoomID, FormatTrainer(b.TrainerID))
		fmt.Fprintf(&sb, "   🔁 осталось переносов: %d", b.RemainingReschedules)
	}

	return sb.String()
}

// FormatAppointments форматирует занятия серии
func FormatAppointments(ref model.SeriesRef, appointments []*model.Appointment) string {
	if len(appointments) == 0 {
		return fmt.Sprintf("📭 У серии %s нет занятий", ref)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 Серия %s: %d %s\n\n", ref, len(appointments), PluralizeAppointments(len(appointments)))

	for i, a := range appointments {
		if i == maxListedAppointments {
			fmt.Fprintf(&sb, "... и ещё %d", len(appointments)-maxListedAppointments)
			break
		}
		display := GetAppointmentStatusDisplay(a.Status)
		session := ""
		switch {
		case a.SessionNumber != nil && a.TotalSessions != nil:
			session = fmt.Sprintf(" [%d/%d]", *a.SessionNumber, *a.TotalSessions)
		case a.SessionNumber != nil:
			session = fmt.Sprintf(" [%d]", *a.SessionNumber)
		}
		fmt.Fprintf(&sb, "%s #%d %s, зал #%d, %s%s\n",
			display.Emoji, a.ID, FormatSlot(a.Date, a.Hour), a.RoomID, FormatTrainer(a.TrainerID), session)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatSeriesResult форматирует созданную серию
func FormatSeriesResult(title string, result *service.SeriesResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ %s\n\n", title)
	if result.BookingID != 0 {
		fmt.Fprintf(&sb, "📋 Бронирование #%d\n", result.BookingID)
	}
	fmt.Fprintf(&sb, "📅 Создано %d %s\n", result.Count, PluralizeAppointments(result.Count))
	fmt.Fprintf(&sb, "▶️ Первое: %s\n", FormatSlot(result.FirstSlot.Date, result.FirstSlot.Hour))
	fmt.Fprintf(&sb, "⏹ Последнее: %s", FormatSlot(result.LastSlot.Date, result.LastSlot.Hour))
	return sb.String()
}

// FormatMoveResult форматирует результат переноса или его предварительной проверки
func FormatMoveResult(result *service.MoveResult) string {
	var sb strings.Builder
	if result.DryRun {
		fmt.Fprintf(&sb, "🔍 Будет перенесено %d %s:\n\n", result.Count, PluralizeAppointments(result.Count))
	} else {
		fmt.Fprintf(&sb, "✅ Перенесено %d %s:\n\n", result.Count, PluralizeAppointments(result.Count))
	}

	for i, c := range result.Changes {
		if i == maxListedAppointments {
			fmt.Fprintf(&sb, "... и ещё %d\n", len(result.Changes)-maxListedAppointments)
			break
		}
		fmt.Fprintf(&sb, "#%d %s → %s\n", c.AppointmentID, formatPlacement(c.From), formatPlacement(c.To))
	}

	if result.DryRun {
		sb.WriteString("\nПодтвердить: /confirm\nОтменить: /cancel")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatPlacement(p service.Placement) string {
	return fmt.Sprintf("%s (зал #%d, %s)", FormatSlot(p.Date, p.Hour), p.RoomID, FormatTrainer(p.TrainerID))
}

// FormatConflicts форматирует список коллизий: дата, час, занятый ресурс
func FormatConflicts(conflicts []service.Conflict) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️ Слоты заняты (%d):\n\n", len(conflicts))

	for i, c := range conflicts {
		if i == maxListedAppointments {
			fmt.Fprintf(&sb, "... и ещё %d\n", len(conflicts)-maxListedAppointments)
			break
		}

		var busy []string
		if c.RoomConflict && c.Candidate.RoomID != nil {
			busy = append(busy, fmt.Sprintf("зал #%d", *c.Candidate.RoomID))
		}
		if c.TrainerConflict && c.Candidate.TrainerID != nil {
			busy = append(busy, fmt.Sprintf("тренер #%d", *c.Candidate.TrainerID))
		}
		fmt.Fprintf(&sb, "• %s: %s\n", FormatSlot(c.Candidate.Date, c.Candidate.Hour), strings.Join(busy, ", "))
	}

	sb.WriteString("\nНичего не изменено.")
	return sb.String()
}
