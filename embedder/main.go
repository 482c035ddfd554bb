package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/imkonsowa/restaurants-linebot/config"
	"github.com/imkonsowa/restaurants-linebot/indexer"
	"github.com/imkonsowa/restaurants-linebot/llm"
	"github.com/imkonsowa/restaurants-linebot/queue"
	"github.com/imkonsowa/restaurants-linebot/store"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.LoadConfig()
	config.InitLogger(cfg.Log)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nc, err := queue.Connect(cfg.Nats)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	_, embedder, err := llm.New(cfg.LLM)
	if err != nil {
		log.Fatal(err)
	}

	pg, err := store.NewPg(cfg.Postgres.ConnStr())
	if err != nil {
		log.Fatal(err)
	}
	if err := pg.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	ix := indexer.New(embedder, pg, cfg.Embedder.ChunkSize, cfg.Embedder.ChunkOverlap, cfg.Embedder.BatchSize)
	handler := NewHandler(ix)

	workers := cfg.Embedder.Workers
	if workers < 1 {
		workers = 2
	}
	queueSize := cfg.Embedder.QueueSize
	if queueSize < 1 {
		queueSize = 100
	}
	slog.Info("Starting embedder", "workers", workers, "queueSize", queueSize, "subject", cfg.Nats.RestaurantsSubject)

	pool := NewWorkerPool(ctx, workers, queueSize, handler.HandleRestaurantChange)

	var g errgroup.Group
	g.Go(func() error {
		return nc.Subscribe(ctx, cfg.Nats.RestaurantsSubject, func(m *nats.Msg) {
			pool.Submit(ctx, m)
		})
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- g.Wait()
	}()

	select {
	case <-shutdown:
		slog.Info("Shutting down")
	case err := <-errChan:
		slog.Error("Shutting down due to error", "error", err)
	}

	cancel()
	pool.Stop()
	pool.Wait()
}
