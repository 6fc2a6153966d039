package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"chat-relay/observability"

	"github.com/shirou/gopsutil/process"
)

// presenceSource reports who is connected right now.
type presenceSource interface {
	Identities() []string
}

// TelemetryWorker periodically logs relay counters, the current
// presence count and the process's own memory and CPU footprint.
type TelemetryWorker struct {
	log      *slog.Logger
	stats    *observability.RelayStats
	presence presenceSource
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, stats *observability.RelayStats,
	presence presenceSource, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, stats: stats, presence: presence, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.report(proc)
		}
	}
}

func (w *TelemetryWorker) report(proc *process.Process) {
	snapshot := w.stats.GetLatest()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	attrs := []any{
		"online", len(w.presence.Identities()),
		"routed", snapshot.MessagesRouted,
		"delivered", snapshot.MessagesDelivered,
		"seen", snapshot.MessagesSeen,
		"flushed", snapshot.BacklogFlushed,
		"typing_relayed", snapshot.TypingRelayed,
		"typing_dropped", snapshot.TypingDropped,
		"notification_miss", snapshot.NotificationMiss,
		"alloc_mb", mem.Alloc / 1024 / 1024,
		"num_gc", mem.NumGC,
	}

	if rss, err := proc.MemoryInfo(); err == nil {
		attrs = append(attrs, "rss_mb", rss.RSS/1024/1024)
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	}

	w.log.Info("Relay telemetry", attrs...)
}
