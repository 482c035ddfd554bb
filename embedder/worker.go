package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/imkonsowa/restaurants-linebot/metrics"
	"github.com/nats-io/nats.go"
)

// job is one message taken off the queue together with its acknowledgement.
type job struct {
	data []byte
	ack  func() error
	nak  func() error
}

func natsJob(msg *nats.Msg) job {
	return job{
		data: msg.Data,
		ack:  func() error { return msg.Ack() },
		nak:  func() error { return msg.Nak() },
	}
}

type WorkerPool struct {
	jobs    chan job
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	handler func(ctx context.Context, msg []byte) error
}

func NewWorkerPool(ctx context.Context, maxWorkers, queueSize int, handler func(ctx context.Context, msg []byte) error) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 2
	}
	if queueSize < 1 {
		queueSize = 100
	}

	poolCtx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		jobs:    make(chan job, queueSize),
		ctx:     poolCtx,
		cancel:  cancel,
		handler: handler,
	}

	for i := 0; i < maxWorkers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

func (w *WorkerPool) worker() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case j, ok := <-w.jobs:
			if !ok {
				return
			}
			w.process(j)
		}
	}
}

func (w *WorkerPool) process(j job) {
	if err := w.handler(w.ctx, j.data); err != nil {
		metrics.IndexJobs.WithLabelValues("error").Inc()
		slog.Error("failed to handle message", "err", err)
		if err := j.nak(); err != nil {
			slog.Error("failed to nak message", "err", err)
		}
		return
	}

	metrics.IndexJobs.WithLabelValues("ok").Inc()
	if err := j.ack(); err != nil {
		slog.Error("failed to ack message", "err", err)
	}
}

// Submit sends a message to the worker pool. Blocks if queue is full (backpressure).
// Returns false if context is cancelled.
func (w *WorkerPool) Submit(ctx context.Context, msg *nats.Msg) bool {
	return w.submit(ctx, natsJob(msg))
}

func (w *WorkerPool) submit(ctx context.Context, j job) bool {
	select {
	case w.jobs <- j:
		return true
	case <-ctx.Done():
		return false
	case <-w.ctx.Done():
		return false
	}
}

// Stop cancels in-flight handlers; Wait returns once every worker exited.
func (w *WorkerPool) Stop() {
	w.cancel()
}

func (w *WorkerPool) Wait() {
	w.wg.Wait()
}
