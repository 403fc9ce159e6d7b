package usecase

import (
	"context"

	"github.com/aratrikkk/UrjaBharat/internal/application/dto"
	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// ConsoleNotifier рассылает изменения состояния клиентам и в брокер событий
// Любая из зависимостей может быть nil
type ConsoleNotifier struct {
	snapshots *GetConsoleSnapshotUseCase
	notifier  port.NotificationService
	events    port.EventPublisher
	logger    *logger.Logger
}

// NewConsoleNotifier создает новый ConsoleNotifier
func NewConsoleNotifier(
	snapshots *GetConsoleSnapshotUseCase,
	notifier port.NotificationService,
	events port.EventPublisher,
	logger *logger.Logger,
) *ConsoleNotifier {
	return &ConsoleNotifier{
		snapshots: snapshots,
		notifier:  notifier,
		events:    events,
		logger:    logger,
	}
}

// Changed рассылает свежий снимок и публикует событие в subject
func (n *ConsoleNotifier) Changed(ctx context.Context, subject string, payload map[string]interface{}) {
	if n == nil {
		return
	}

	if n.notifier != nil && n.snapshots != nil {
		n.notifier.Broadcast(n.snapshots.Execute(ctx))
	}

	if n.events != nil && subject != "" {
		event := dto.NewConsoleEvent(subject, payload)
		if err := n.events.PublishEvent(ctx, subject, event); err != nil {
			n.logger.Warn("Failed to publish console event", "subject", subject, "error", err.Error())
		}
	}
}

// Alert рассылает оповещение подключенным клиентам
func (n *ConsoleNotifier) Alert(level, message string, latest *entity.Reading) {
	if n == nil || n.notifier == nil {
		return
	}
	n.notifier.BroadcastAlert(dto.NewAlertDTO(level, message, latest))
}
