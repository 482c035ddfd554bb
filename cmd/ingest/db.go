package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imkonsowa/restaurants-linebot/indexer"
	"github.com/imkonsowa/restaurants-linebot/llm"
	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/imkonsowa/restaurants-linebot/queue"
	"github.com/imkonsowa/restaurants-linebot/store"
	"github.com/spf13/cobra"
)

const importBatchSize = 100

var connectStore = func() (*store.Pg, error) {
	return store.NewPg(cfg.Postgres.ConnStr())
}

func openStore(ctx context.Context) (*store.Pg, error) {
	pg, err := connectStore()
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		return nil, err
	}

	return pg, nil
}

func importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <entries.json>...",
		Short: "Upsert entries files into the restaurants table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []models.Entry
			for _, path := range args {
				fromFile, err := readEntries(path)
				if err != nil {
					return err
				}
				entries = mergeEntries(entries, fromFile)
			}

			pg, err := openStore(cmd.Context())
			if err != nil {
				return err
			}

			bar := newProgressBar(len(entries), "importing")
			for start := 0; start < len(entries); start += importBatchSize {
				end := min(start+importBatchSize, len(entries))

				batch := make([]models.Restaurant, 0, end-start)
				for i := start; i < end; i++ {
					batch = append(batch, entries[i].ToRestaurant())
				}
				if err := pg.UpsertRestaurants(cmd.Context(), batch); err != nil {
					return err
				}
				_ = bar.Add(len(batch))
			}
			_ = bar.Finish()

			slog.Info("import finished", "entries", len(entries))

			return nil
		},
	}
}

func exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored restaurant to an entries file",
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := openStore(cmd.Context())
			if err != nil {
				return err
			}

			var entries []models.Entry
			for offset := 0; ; offset += importBatchSize {
				page, err := pg.ListRestaurants(cmd.Context(), importBatchSize, offset)
				if err != nil {
					return err
				}
				for i := range page {
					entries = append(entries, models.EntryFromRestaurant(&page[i]))
				}
				if len(page) < importBatchSize {
					break
				}
			}

			if err := writeEntries(output, entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", len(entries), output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "restaurants_export.json", "entries file")

	return cmd
}

func indexCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Chunk and embed restaurants directly, without the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pg, err := openStore(ctx)
			if err != nil {
				return err
			}
			_, embedder, err := llm.New(cfg.LLM)
			if err != nil {
				return err
			}
			ix := indexer.New(embedder, pg, cfg.Embedder.ChunkSize, cfg.Embedder.ChunkOverlap, cfg.Embedder.BatchSize)

			var ids []uint64
			if all {
				ids, err = pg.RestaurantIDs(ctx)
			} else {
				ids, err = pg.UnembeddedRestaurantIDs(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list restaurants to index: %w", err)
			}

			bar := newProgressBar(len(ids), "indexing")
			chunks := 0
			for _, id := range ids {
				n, err := ix.IndexByID(ctx, id)
				_ = bar.Add(1)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					slog.Warn("failed to index restaurant", "id", id, "err", err)
					continue
				}
				chunks += n
			}
			_ = bar.Finish()

			slog.Info("index finished", "restaurants", len(ids), "chunks", chunks)

			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "re-index every restaurant, not only those without chunks")

	return cmd
}

func backfillCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Queue every restaurant without chunks for the embedder",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pg, err := openStore(ctx)
			if err != nil {
				return err
			}

			nc, err := queue.Connect(cfg.Nats)
			if err != nil {
				return err
			}
			defer nc.Close()

			ids, err := pg.UnembeddedRestaurantIDs(ctx)
			if err != nil {
				return err
			}
			slog.Info("found unembedded restaurants", "count", len(ids))

			published := 0
			for _, id := range ids {
				change := models.Change{Table: models.TableRestaurants, Kind: models.ChangeInsert, ID: id}
				if err := nc.PublishJSON(ctx, cfg.Nats.RestaurantsSubject, change); err != nil {
					slog.Error("failed to publish restaurant", "id", id, "err", err)
					continue
				}
				published++
			}

			slog.Info("backfill complete", "restaurants", published)

			return nil
		},
	}
}

func inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := openStore(cmd.Context())
			if err != nil {
				return err
			}

			stats, err := pg.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "restaurants: %d\n", stats.Restaurants)
			fmt.Fprintf(out, "chunks:      %d\n", stats.Chunks)
			fmt.Fprintf(out, "unembedded:  %d\n", stats.Unembedded)

			return nil
		},
	}
}
