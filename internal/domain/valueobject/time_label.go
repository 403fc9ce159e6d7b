package valueobject

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LabelStepMinutes - шаг синтетических часов между двумя показаниями
const LabelStepMinutes = 5

var ErrInvalidTimeLabel = errors.New("invalid time label")

// SeedTimeLabel возвращает метку для i-го начального показания ("0:00", "1:00", ...)
func SeedTimeLabel(i int) string {
	return fmt.Sprintf("%d:00", i)
}

// NextTimeLabel продвигает синтетические часы на LabelStepMinutes
// Часы косметические: календарная корректность не проверяется,
// минуты при переполнении обнуляются, часы идут по кругу 0..23
func NextTimeLabel(label string) (string, error) {
	hours, minutes, err := ParseTimeLabel(label)
	if err != nil {
		return "", err
	}

	minutes += LabelStepMinutes
	if minutes >= 60 {
		minutes = 0
		hours = (hours + 1) % 24
	}

	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

// ParseTimeLabel разбирает метку формата H:MM
func ParseTimeLabel(label string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(label), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeLabel, label)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeLabel, label)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeLabel, label)
	}

	return hours, minutes, nil
}
