package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/Freeeeeet/training_scheduler/internal/service"
)

var errUsage = errors.New("неверные аргументы команды")

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday, "thu": time.Thursday,
	"fri": time.Friday, "sat": time.Saturday, "sun": time.Sunday,
	"пн": time.Monday, "вт": time.Tuesday, "ср": time.Wednesday, "чт": time.Thursday,
	"пт": time.Friday, "сб": time.Saturday, "вс": time.Sunday,
}

// commandArgs возвращает аргументы команды без самой команды
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("некорректный %s: %q", what, raw)
	}
	return id, nil
}

func parseInt(raw, what string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("некорректное значение %s: %q", what, raw)
	}
	return n, nil
}

// parseSeriesRef разбирает ссылку на серию: "42" - бронирование, "g42" - групповое занятие
func parseSeriesRef(raw string) (model.SeriesRef, error) {
	if rest, ok := strings.CutPrefix(strings.ToLower(raw), "g"); ok {
		id, err := parseID(rest, "ID группового занятия")
		if err != nil {
			return model.SeriesRef{}, err
		}
		return model.GroupLessonSeries(id), nil
	}

	id, err := parseID(raw, "ID бронирования")
	if err != nil {
		return model.SeriesRef{}, err
	}
	return model.BookingSeries(id), nil
}

// parsePattern разбирает шаблон вида "mon:9,wed:18"
func parsePattern(raw string) (model.Pattern, error) {
	var pattern model.Pattern
	for _, part := range strings.Split(raw, ",") {
		day, hour, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("некорректный элемент шаблона %q, ожидается день:час", part)
		}

		weekday, ok := weekdayNames[strings.ToLower(day)]
		if !ok {
			return nil, fmt.Errorf("неизвестный день недели %q", day)
		}

		h, err := parseInt(hour, "часа")
		if err != nil {
			return nil, err
		}

		pattern = append(pattern, model.SlotEntry{Weekday: weekday, Hour: h})
	}
	return pattern, nil
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("некорректная дата %q, ожидается ГГГГ-ММ-ДД", raw)
	}
	return model.DateOf(t), nil
}

// splitOptions отделяет позиционные аргументы от опций key=value
func splitOptions(args []string) ([]string, map[string]string) {
	var positional []string
	options := make(map[string]string)
	for _, arg := range args {
		if key, value, ok := strings.Cut(arg, "="); ok {
			options[strings.ToLower(key)] = value
			continue
		}
		positional = append(positional, arg)
	}
	return positional, options
}

func optionalID(options map[string]string, key, what string) (*int64, error) {
	raw, ok := options[key]
	if !ok {
		return nil, nil
	}
	id, err := parseID(raw, what)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// /generate <бронирование|gID> <недель> <шаблон> [ГГГГ-ММ-ДД]
func parseGenerateArgs(args []string, today time.Time) (service.GenerateSeriesRequest, error) {
	if len(args) < 3 || len(args) > 4 {
		return service.GenerateSeriesRequest{}, errUsage
	}

	ref, err := parseSeriesRef(args[0])
	if err != nil {
		return service.GenerateSeriesRequest{}, err
	}
	weeks, err := parseInt(args[1], "недель")
	if err != nil {
		return service.GenerateSeriesRequest{}, err
	}
	pattern, err := parsePattern(args[2])
	if err != nil {
		return service.GenerateSeriesRequest{}, err
	}

	anchor := today
	if len(args) == 4 {
		if anchor, err = parseDate(args[3]); err != nil {
			return service.GenerateSeriesRequest{}, err
		}
	}

	return service.GenerateSeriesRequest{
		Owner:   ref,
		Pattern: pattern,
		Anchor:  service.Anchor{Date: anchor},
		Horizon: service.Weeks(weeks),
		Bounded: ref.Kind == model.SeriesKindBooking,
	}, nil
}

// /purchase <пакет> <клиент> <зал> <шаблон> <ГГГГ-ММ-ДД> [hour=<час>] [trainer=<id>] [weeks=<n>]
func parsePurchaseArgs(args []string) (service.NewBookingRequest, error) {
	positional, options := splitOptions(args)
	if len(positional) != 5 {
		return service.NewBookingRequest{}, errUsage
	}

	var req service.NewBookingRequest
	var err error

	if req.PackageID, err = parseID(positional[0], "ID пакета"); err != nil {
		return req, err
	}
	if req.TraineeID, err = parseID(positional[1], "ID клиента"); err != nil {
		return req, err
	}
	if req.RoomID, err = parseID(positional[2], "ID зала"); err != nil {
		return req, err
	}
	if req.Pattern, err = parsePattern(positional[3]); err != nil {
		return req, err
	}
	if req.StartDate, err = parseDate(positional[4]); err != nil {
		return req, err
	}
	if req.TrainerID, err = optionalID(options, "trainer", "ID тренера"); err != nil {
		return req, err
	}
	if raw, ok := options["hour"]; ok {
		if req.StartHour, err = parseInt(raw, "часа"); err != nil {
			return req, err
		}
	}
	if raw, ok := options["weeks"]; ok {
		if req.Weeks, err = parseInt(raw, "недель"); err != nil {
			return req, err
		}
	}

	return req, nil
}

// /extend <бронирование> [недель] [шаблон] [room=<id>] [trainer=<id>]
func parseExtendArgs(args []string) (int64, service.ExtendRequest, error) {
	positional, options := splitOptions(args)
	if len(positional) < 1 || len(positional) > 3 {
		return 0, service.ExtendRequest{}, errUsage
	}

	bookingID, err := parseID(positional[0], "ID бронирования")
	if err != nil {
		return 0, service.ExtendRequest{}, err
	}

	var req service.ExtendRequest
	if len(positional) >= 2 {
		if req.Weeks, err = parseInt(positional[1], "недель"); err != nil {
			return 0, req, err
		}
	}
	if len(positional) == 3 {
		if req.Pattern, err = parsePattern(positional[2]); err != nil {
			return 0, req, err
		}
	}
	if req.RoomID, err = optionalID(options, "room", "ID зала"); err != nil {
		return 0, req, err
	}
	if req.TrainerID, err = optionalID(options, "trainer", "ID тренера"); err != nil {
		return 0, req, err
	}

	return bookingID, req, nil
}

// /transfer <занятие> <scope> [room=<id>] [trainer=<id>]
func parseTransferArgs(args []string) (service.TransferRequest, error) {
	positional, options := splitOptions(args)
	if len(positional) != 2 {
		return service.TransferRequest{}, errUsage
	}

	var req service.TransferRequest
	var err error

	if req.AppointmentID, err = parseID(positional[0], "ID занятия"); err != nil {
		return req, err
	}
	if req.Scope, err = service.ParseScope(positional[1]); err != nil {
		return req, err
	}
	if req.RoomID, err = optionalID(options, "room", "ID зала"); err != nil {
		return req, err
	}
	if req.TrainerID, err = optionalID(options, "trainer", "ID тренера"); err != nil {
		return req, err
	}

	return req, nil
}

// /shift <занятие> <scope> <недель со знаком>
func parseShiftArgs(args []string) (service.ShiftByTimeRequest, error) {
	if len(args) != 3 {
		return service.ShiftByTimeRequest{}, errUsage
	}

	var req service.ShiftByTimeRequest
	var err error

	if req.AppointmentID, err = parseID(args[0], "ID занятия"); err != nil {
		return req, err
	}
	if req.Scope, err = service.ParseScope(args[1]); err != nil {
		return req, err
	}
	if req.Weeks, err = parseInt(args[2], "недель"); err != nil {
		return req, err
	}

	return req, nil
}

// /shiftslot <занятие> <позиций>
func parseShiftSlotArgs(args []string) (service.ShiftBySlotRequest, error) {
	if len(args) != 2 {
		return service.ShiftBySlotRequest{}, errUsage
	}

	var req service.ShiftBySlotRequest
	var err error

	if req.AppointmentID, err = parseID(args[0], "ID занятия"); err != nil {
		return req, err
	}
	if req.Shift, err = parseInt(args[1], "сдвига"); err != nil {
		return req, err
	}
	req.Scope = service.ScopeFromSelected

	return req, nil
}
