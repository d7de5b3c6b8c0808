package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/tennis-booking-bot/internal/ctxutil"
	"github.com/Spok95/tennis-booking-bot/internal/metrics"
	"github.com/Spok95/tennis-booking-bot/internal/observability"
)

type Job func(ctx context.Context) error

// Runner запускает периодические задачи до отмены ctx.
type Runner struct {
	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{ctx: ctx, log: log}
}

// Every вызывает fn раз в interval; первый запуск — через interval после старта.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.runOnce(name, fn)
			}
		}
	}()
}

func (r *Runner) runOnce(name string, fn Job) {
	start := time.Now()
	status := "ok"
	defer func() {
		if rec := recover(); rec != nil {
			status = "panic"
			err := fmt.Errorf("panic in job %s: %v", name, rec)
			r.log.Error("job panic", zap.String("job", name), zap.Error(err))
			observability.CaptureErr(err)
		}
		metrics.ObserveJob(name, status, start)
	}()

	if err := fn(ctxutil.WithOp(r.ctx, name)); err != nil {
		status = "error"
		r.log.Warn("job failed", zap.String("job", name), zap.Error(err))
		observability.CaptureErr(err)
	}
}

// Wait — дождаться остановки всех задач после отмены ctx.
func (r *Runner) Wait() { r.wg.Wait() }
