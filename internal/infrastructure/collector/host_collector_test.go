package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

func stubCollector(cpuErr, memErr, diskErr error) *HostCollector {
	return &HostCollector{
		diskPath: "/",
		cpuPercent: func(context.Context) (float64, int, error) {
			return 12.5, 4, cpuErr
		},
		memory: func(context.Context) (*mem.VirtualMemoryStat, error) {
			if memErr != nil {
				return nil, memErr
			}
			return &mem.VirtualMemoryStat{UsedPercent: 40, Used: 512 * 1024 * 1024}, nil
		},
		diskUsage: func(context.Context, string) (*disk.UsageStat, error) {
			if diskErr != nil {
				return nil, diskErr
			}
			return &disk.UsageStat{UsedPercent: 70}, nil
		},
	}
}

func TestHostCollector_Collect(t *testing.T) {
	stats, err := stubCollector(nil, nil, nil).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if stats.CPUPercent != 12.5 || stats.CPUCores != 4 {
		t.Errorf("cpu = %v/%d", stats.CPUPercent, stats.CPUCores)
	}
	if stats.MemoryPercent != 40 || stats.MemoryUsedMB != 512 {
		t.Errorf("memory = %v%% %vMB", stats.MemoryPercent, stats.MemoryUsedMB)
	}
	if stats.DiskPercent != 70 {
		t.Errorf("disk = %v", stats.DiskPercent)
	}
	if stats.Goroutines <= 0 || stats.CollectedAt.IsZero() {
		t.Error("goroutines and timestamp must be set")
	}
}

func TestHostCollector_PartialFailure(t *testing.T) {
	stats, err := stubCollector(errors.New("cpu"), nil, errors.New("disk")).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if stats.CPUPercent != 0 || stats.MemoryPercent != 40 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestHostCollector_AllFail(t *testing.T) {
	boom := errors.New("boom")
	if _, err := stubCollector(boom, boom, boom).Collect(context.Background()); err == nil {
		t.Fatal("expected error when every collector fails")
	}
}
