package port

import (
	"context"

	"github.com/aratrikkk/UrjaBharat/internal/application/dto"
)

// HostCollector собирает загрузку хоста консоли (Port)
// Реализация будет в Infrastructure слое
type HostCollector interface {
	Collect(ctx context.Context) (*dto.HostStatsDTO, error)
}
