package valueobject

import "errors"

// Urgency представляет срочность директивы (Value Object)
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Validate проверяет валидность срочности
func (u Urgency) Validate() error {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return nil
	default:
		return errors.New("invalid urgency")
	}
}

// String возвращает строковое представление срочности
func (u Urgency) String() string {
	return string(u)
}

// AllUrgencies возвращает список всех допустимых значений срочности
func AllUrgencies() []Urgency {
	return []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}
}
