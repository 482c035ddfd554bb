package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/imkonsowa/restaurants-linebot/config"
	"github.com/imkonsowa/restaurants-linebot/queue"
)

func main() {
	cfg := config.LoadConfig()
	config.InitLogger(cfg.Log)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	errChan := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nc, err := queue.Connect(cfg.Nats)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	listener := NewListener(cfg, nc)
	defer listener.Close(ctx)

	go func() {
		errChan <- listener.Run(ctx)
	}()

	select {
	case err := <-errChan:
		log.Fatalln("Error:", err)
	case <-shutdown:
		slog.Info("Shutting down...")
		cancel()

		// wait until listener.Run returns
		<-errChan
	}
}
