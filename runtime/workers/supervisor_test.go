package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type funcWorker struct {
	run func(ctx context.Context) error
}

func (w *funcWorker) Run(ctx context.Context) error { return w.run(ctx) }

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)

	var calls int64
	worker := &funcWorker{run: func(ctx context.Context) error {
		atomic.AddInt64(&calls, 1)
		panic("boom")
	}}

	sup := NewSupervisor(slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	go sup.Add(worker).Run(ctx)

	// Waiting for panics and restarts
	time.Sleep(900 * time.Millisecond)

	req.GreaterOrEqual(atomic.LoadInt64(&calls), int64(2))
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)

	var calls int64
	worker := &funcWorker{run: func(ctx context.Context) error {
		atomic.AddInt64(&calls, 1)
		return nil
	}}

	sup := NewSupervisor(slog.Default())

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after worker success")
	}
	req.Equal(int64(1), atomic.LoadInt64(&calls))
}

func TestSupervisor_Stop_Cancels_Workers(t *testing.T) {
	req := require.New(t)

	started := make(chan struct{})
	worker := &funcWorker{run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}}

	sup := NewSupervisor(slog.Default())

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	<-started
	sup.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not shut down on Stop")
	}
	req.NotNil(sup.Cancel)
}
