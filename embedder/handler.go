package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/imkonsowa/restaurants-linebot/store"
)

type RestaurantIndexer interface {
	IndexByID(ctx context.Context, id uint64) (int, error)
}

type Handler struct {
	indexer RestaurantIndexer
}

func NewHandler(indexer RestaurantIndexer) *Handler {
	return &Handler{indexer: indexer}
}

// HandleRestaurantChange re-indexes the chunks of a restaurant on receiving a
// change message. Rows deleted in the meantime are skipped.
func (h *Handler) HandleRestaurantChange(ctx context.Context, msg []byte) error {
	var change models.Change
	if err := json.Unmarshal(msg, &change); err != nil {
		slog.Warn("dropping malformed change message", "error", err)
		return nil
	}

	if change.Table != models.TableRestaurants || change.Kind == models.ChangeDelete || change.ID == 0 {
		return nil
	}

	n, err := h.indexer.IndexByID(ctx, change.ID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("restaurant no longer exists", "id", change.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to index restaurant %d: %w", change.ID, err)
	}

	slog.Info("indexed restaurant", "id", change.ID, "chunks", n)

	return nil
}
