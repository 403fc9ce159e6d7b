package dto

import (
	"time"

	"github.com/google/uuid"
)

// ConsoleEventDTO представляет доменное событие для брокера сообщений
type ConsoleEventDTO struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// NewConsoleEvent создает событие с новым идентификатором
func NewConsoleEvent(eventType string, payload map[string]interface{}) *ConsoleEventDTO {
	return &ConsoleEventDTO{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// EventID возвращает идентификатор для дедупликации в брокере
func (e *ConsoleEventDTO) EventID() string {
	return e.ID
}
