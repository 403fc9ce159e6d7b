package usecase

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/internal/application/state"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/service"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// GenerateHandoverConfig задает параметры выгрузки документа
type GenerateHandoverConfig struct {
	KeyPrefix string
}

// GenerateHandoverUseCase составляет документ передачи смены
type GenerateHandoverUseCase struct {
	state      *state.ConsoleState
	aggregator *service.KPIAggregator
	writer     port.HandoverWriter
	archive    port.ReportArchive
	dispatcher *Dispatcher
	metrics    port.ConsoleMetrics
	notifier   *ConsoleNotifier
	cfg        GenerateHandoverConfig
	logger     *logger.Logger
}

// NewGenerateHandoverUseCase создает новый use case
func NewGenerateHandoverUseCase(
	state *state.ConsoleState,
	aggregator *service.KPIAggregator,
	writer port.HandoverWriter,
	archive port.ReportArchive, // Can be nil if S3 disabled
	dispatcher *Dispatcher,
	metrics port.ConsoleMetrics,
	notifier *ConsoleNotifier,
	cfg GenerateHandoverConfig,
	logger *logger.Logger,
) *GenerateHandoverUseCase {
	cfg.KeyPrefix = strings.Trim(strings.TrimSpace(cfg.KeyPrefix), "/")
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "handover"
	}

	return &GenerateHandoverUseCase{
		state:      state,
		aggregator: aggregator,
		writer:     writer,
		archive:    archive,
		dispatcher: dispatcher,
		metrics:    metrics,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Execute формирует сводку по последним KPI и отправляет ее составителю документа
// Возвращает идентификатор запроса
func (uc *GenerateHandoverUseCase) Execute(_ context.Context) string {
	// 1. Фиксированная сводка из KPI и режима
	snap := uc.state.Snapshot()
	kpi := uc.aggregator.Aggregate(snap.Window, snap.Directives)
	summary := service.FormatHandoverSummary(kpi, snap.Regime.IsAnomalous())

	// 2. Регистрируем запрос
	pending := entity.NewPendingNarrative(valueobject.NarrativeHandover, summary, "", time.Now())
	ticket := uc.state.Begin(state.SlotHandover, nil)

	uc.logger.Info("Handover requested", "request_id", pending.RequestID(), "summary", summary)

	// 3. Документ сохраняется дословно, предыдущий перезаписывается
	uc.dispatcher.Go(func(ctx context.Context) {
		uc.complete(ctx, ticket, pending, summary)
	})

	return pending.RequestID()
}

func (uc *GenerateHandoverUseCase) complete(ctx context.Context, ticket state.Ticket, pending entity.Narrative, summary string) {
	text, err := uc.writer.Summarize(ctx, summary)
	if err != nil {
		uc.logger.Warn("Handover generation failed, using fallback", "error", err.Error())
	}

	document, fallback := resolveNarrative(text, err, FallbackHandover)
	if fallback && uc.metrics != nil {
		uc.metrics.NarrativeFailed(valueobject.NarrativeHandover.String())
	}

	completed := pending.Complete(document, fallback, time.Now())
	if !uc.state.Complete(ticket, completed) {
		if uc.metrics != nil {
			uc.metrics.CompletionDiscarded(string(state.SlotHandover))
		}
		return
	}

	payload := map[string]interface{}{
		"request_id": pending.RequestID(),
		"fallback":   fallback,
	}

	if uc.archive != nil && !fallback {
		url, err := uc.archive.PutObject(ctx, uc.archiveKey(completed), "text/markdown; charset=utf-8", []byte(document))
		if err != nil {
			uc.logger.Error("Failed to archive handover document", err, "request_id", pending.RequestID())
		} else {
			payload["archive_url"] = url
			uc.logger.Info("Handover document archived", "request_id", pending.RequestID(), "url", url)
		}
	}

	uc.notifier.Changed(ctx, port.SubjectHandoverGenerated, payload)
}

// archiveKey строит ключ вида <prefix>/YYYY/MM/DD/<timestamp>_<request_id>.md
func (uc *GenerateHandoverUseCase) archiveKey(n entity.Narrative) string {
	at := n.CompletedAt().UTC()
	name := fmt.Sprintf("%s_%s.md", at.Format("20060102T150405Z"), n.RequestID())
	return path.Join(uc.cfg.KeyPrefix, at.Format("2006"), at.Format("01"), at.Format("02"), name)
}
