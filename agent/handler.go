package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/imkonsowa/restaurants-linebot/models"
)

type Answerer interface {
	Answer(ctx context.Context, query string) ([]models.Answer, error)
}

type RestaurantStore interface {
	ListRestaurants(ctx context.Context, limit, offset int) ([]models.Restaurant, error)
	UpsertRestaurants(ctx context.Context, restaurants []models.Restaurant) error
}

type Handler struct {
	answerer Answerer
	store    RestaurantStore
	chatLog  *ChatLog
}

func NewHandler(answerer Answerer, store RestaurantStore, chatLog *ChatLog) *Handler {
	return &Handler{
		answerer: answerer,
		store:    store,
		chatLog:  chatLog,
	}
}

// Answer answers one question and records the exchange under session.
func (h *Handler) Answer(ctx context.Context, session, question string) ([]models.Answer, error) {
	answers, err := h.answerer.Answer(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}

	if h.chatLog != nil && session != "" {
		texts := make([]string, len(answers))
		for i, a := range answers {
			texts[i] = a.Text
		}
		if err := h.chatLog.Record(ctx, session, question, strings.Join(texts, "\n---\n")); err != nil {
			slog.Warn("failed to record chat", "session", session, "error", err)
		}
	}

	return answers, nil
}

func (h *Handler) CreateRestaurants(ctx context.Context, restaurants []models.Restaurant) error {
	if len(restaurants) == 0 {
		return fmt.Errorf("no restaurants provided")
	}

	return h.store.UpsertRestaurants(ctx, restaurants)
}

func (h *Handler) ListRestaurants(ctx context.Context, limit, offset int) ([]models.Restaurant, error) {
	restaurants, err := h.store.ListRestaurants(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}

	return restaurants, nil
}

func (h *Handler) SearchByUserQuery(ctx context.Context, userInput string) chan *ProcessingResult {
	resultChan := make(chan *ProcessingResult)

	go func() {
		defer close(resultChan)

		send := func(r *ProcessingResult) bool {
			select {
			case resultChan <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if strings.TrimSpace(userInput) == "" {
			send(&ProcessingResult{Err: fmt.Errorf("empty query")})
			return
		}

		answers, err := h.Answer(ctx, "", userInput)
		if err != nil {
			send(&ProcessingResult{Err: err})
			return
		}

		if len(answers) == 0 {
			if !send(&ProcessingResult{Msg: WebSocketsMessage{Type: "chat", Data: "I couldn't find any restaurants matching your question."}}) {
				return
			}
		} else if !send(&ProcessingResult{Msg: WebSocketsMessage{Type: "answers", Data: answers}}) {
			return
		}

		send(&ProcessingResult{Err: io.EOF})
	}()

	return resultChan
}
