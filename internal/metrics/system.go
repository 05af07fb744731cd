package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

var (
	HostCPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_cpu_percent",
			Help:      "Host CPU utilisation since the previous sample",
		},
	)

	HostMemoryUsedPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_memory_used_percent",
			Help:      "Share of host memory in use",
		},
	)
)

// CollectSystem samples host CPU and memory usage into the gauges. CPU usage
// is measured against the previous call, so the first sample covers the time
// since boot.
func CollectSystem(ctx context.Context) error {
	cpuPercent, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(cpuPercent) > 0 {
		HostCPUPercent.Set(cpuPercent[0])
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to read memory usage: %w", err)
	}
	HostMemoryUsedPercent.Set(vm.UsedPercent)
	return nil
}

// RunSystemCollector refreshes the host gauges every interval until ctx is
// cancelled.
func RunSystemCollector(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := CollectSystem(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("host metrics sample failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
