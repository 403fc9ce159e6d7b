package entity

import (
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/google/uuid"
)

// Narrative представляет текстовое заключение внешнего аналитика
// Хранится в слоте результата целиком и заменяется целиком
type Narrative struct {
	requestID   string
	kind        valueobject.NarrativeKind
	status      valueobject.NarrativeStatus
	input       string
	text        string
	requestedAt time.Time
	completedAt time.Time
}

// NewPendingNarrative создает заключение в состоянии ожидания ответа
func NewPendingNarrative(kind valueobject.NarrativeKind, input, placeholder string, requestedAt time.Time) Narrative {
	return Narrative{
		requestID:   uuid.New().String(),
		kind:        kind,
		status:      valueobject.NarrativePending,
		input:       input,
		text:        placeholder,
		requestedAt: requestedAt,
	}
}

// Complete возвращает завершенную копию заключения
// fallback=true означает, что текст является резервным советом
func (n Narrative) Complete(text string, fallback bool, completedAt time.Time) Narrative {
	n.text = text
	n.completedAt = completedAt
	n.status = valueobject.NarrativeReady
	if fallback {
		n.status = valueobject.NarrativeFallback
	}
	return n
}

// RequestID возвращает идентификатор запроса
func (n Narrative) RequestID() string {
	return n.requestID
}

// Kind возвращает тип заключения
func (n Narrative) Kind() valueobject.NarrativeKind {
	return n.kind
}

// Status возвращает состояние заключения
func (n Narrative) Status() valueobject.NarrativeStatus {
	return n.status
}

// Input возвращает входные данные запроса (дайджест, симптомы, сводку)
func (n Narrative) Input() string {
	return n.input
}

// Text возвращает текст заключения
func (n Narrative) Text() string {
	return n.text
}

// RequestedAt возвращает время отправки запроса
func (n Narrative) RequestedAt() time.Time {
	return n.requestedAt
}

// CompletedAt возвращает время завершения (нулевое для ожидающих)
func (n Narrative) CompletedAt() time.Time {
	return n.completedAt
}

// IsPending проверяет, ожидается ли еще ответ
func (n Narrative) IsPending() bool {
	return n.status == valueobject.NarrativePending
}
