package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
)

var ErrDirectiveNotFound = errors.New("directive not found")

// Directive представляет рекомендацию оператору (Entity)
// Удаляется навсегда при исполнении
type Directive struct {
	id               string
	title            string
	description      string
	impact           string
	estimatedSavings float64
	urgency          valueobject.Urgency
	createdAt        time.Time
}

// NewDirective создает директиву с валидацией
func NewDirective(
	id, title, description, impact string,
	estimatedSavings float64,
	urgency valueobject.Urgency,
	createdAt time.Time,
) (*Directive, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("directive id is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("directive title is required")
	}
	if estimatedSavings < 0 {
		return nil, errors.New("estimated savings cannot be negative")
	}
	if err := urgency.Validate(); err != nil {
		return nil, err
	}

	return &Directive{
		id:               id,
		title:            title,
		description:      description,
		impact:           impact,
		estimatedSavings: estimatedSavings,
		urgency:          urgency,
		createdAt:        createdAt,
	}, nil
}

// ID возвращает идентификатор директивы
func (d *Directive) ID() string {
	return d.id
}

// Title возвращает заголовок
func (d *Directive) Title() string {
	return d.title
}

// Description возвращает описание
func (d *Directive) Description() string {
	return d.description
}

// Impact возвращает описание ожидаемого эффекта
func (d *Directive) Impact() string {
	return d.impact
}

// EstimatedSavings возвращает оценку экономии в день
func (d *Directive) EstimatedSavings() float64 {
	return d.estimatedSavings
}

// Urgency возвращает срочность
func (d *Directive) Urgency() valueobject.Urgency {
	return d.urgency
}

// CreatedAt возвращает время создания
func (d *Directive) CreatedAt() time.Time {
	return d.createdAt
}
