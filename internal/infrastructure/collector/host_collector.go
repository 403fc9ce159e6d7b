package collector

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aratrikkk/UrjaBharat/internal/application/dto"
)

// Интервал замера загрузки CPU
const cpuSampleInterval = 200 * time.Millisecond

// HostCollector собирает загрузку хоста консоли
// Реализует интерфейс port.HostCollector
type HostCollector struct {
	diskPath string

	cpuPercent func(ctx context.Context) (float64, int, error)
	memory     func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	diskUsage  func(ctx context.Context, path string) (*disk.UsageStat, error)
}

// NewHostCollector создает новый collector
func NewHostCollector() *HostCollector {
	return &HostCollector{
		diskPath:   "/",
		cpuPercent: sampleCPU,
		memory:     mem.VirtualMemoryWithContext,
		diskUsage:  disk.UsageWithContext,
	}
}

func sampleCPU(ctx context.Context) (float64, int, error) {
	percentages, err := cpu.PercentWithContext(ctx, cpuSampleInterval, false)
	if err != nil {
		return 0, 0, err
	}
	cores, _ := cpu.CountsWithContext(ctx, true)
	if len(percentages) == 0 {
		return 0, cores, errors.New("no cpu samples")
	}
	return percentages[0], cores, nil
}

// Collect собирает CPU, память и диск параллельно
// Ошибка возвращается только если не удалось получить ни одной метрики
func (c *HostCollector) Collect(ctx context.Context) (*dto.HostStatsDTO, error) {
	stats := &dto.HostStatsDTO{
		Goroutines:  runtime.NumGoroutine(),
		CollectedAt: time.Now(),
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		percent, cores, err := c.cpuPercent(ctx)
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		stats.CPUPercent, stats.CPUCores = percent, cores
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		vm, err := c.memory(ctx)
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsedMB = float64(vm.Used) / 1024 / 1024
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		usage, err := c.diskUsage(ctx, c.diskPath)
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		stats.DiskPercent = usage.UsedPercent
		mu.Unlock()
	}()

	wg.Wait()

	if len(errs) == 3 {
		return nil, errors.Join(errs...)
	}
	return stats, nil
}
