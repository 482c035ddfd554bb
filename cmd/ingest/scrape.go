package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/imkonsowa/restaurants-linebot/articles"
	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/imkonsowa/restaurants-linebot/places"
	"github.com/spf13/cobra"
)

func scrapeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Collect restaurants around the seed points from the places API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Google.APIKey == "" {
				return errors.New("google.apiKey is not configured")
			}
			if output == "" {
				output = cfg.Scraper.OutputFile
			}

			known, err := readEntries(output)
			if err != nil {
				return err
			}

			mapsClient, err := places.NewMapsClient(cfg.Google.APIKey, cfg.Google.RateLimit)
			if err != nil {
				return err
			}

			total := cfg.Scraper.MaxTotal
			if total <= 0 {
				total = -1
			}
			bar := newProgressBar(total, "scraping places")

			scraper := places.NewScraper(places.NewClient(mapsClient), cfg.Scraper, cfg.Google.APIKey, known)
			added, err := scraper.Run(cmd.Context(), func(models.Entry) {
				_ = bar.Add(1)
			})
			_ = bar.Finish()

			// partial results are kept when the run is interrupted
			if werr := writeEntries(output, mergeEntries(known, added)); werr != nil {
				return werr
			}
			slog.Info("scrape finished", "new", len(added), "total", len(known)+len(added), "file", output)

			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "entries file (default scraper.outputFile)")

	return cmd
}

func articlesCommand() *cobra.Command {
	var (
		urlsFile      string
		processedFile string
		output        string
		logSkipped    bool
	)

	cmd := &cobra.Command{
		Use:   "articles [url...]",
		Short: "Parse blog articles and listicles into entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if urlsFile != "" {
				fromFile, err := readJSON[[]string](urlsFile)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return errors.New("no article urls given")
			}

			processed, err := readJSON[[]string](processedFile)
			if err != nil {
				return err
			}
			known, err := readEntries(output)
			if err != nil {
				return err
			}

			scraper := articles.New(articles.Config{
				RateLimit: cfg.Scraper.ArticleRateLimit,
				Retries:   3,
				RetryWait: 5 * time.Second,
			}, processed)

			bar := newProgressBar(len(urls), "parsing articles")
			var added []models.Entry
			for _, u := range urls {
				if scraper.Seen(u) {
					if logSkipped {
						slog.Info("skipping parsed article", "url", u, "title", scraper.FetchTitle(cmd.Context(), u))
					}
					_ = bar.Add(1)
					continue
				}

				entries, err := scraper.Process(cmd.Context(), u)
				_ = bar.Add(1)
				if err != nil {
					if cmd.Context().Err() != nil {
						break
					}
					slog.Warn("failed to parse article", "url", u, "err", err)
					continue
				}
				added = append(added, entries...)
			}
			_ = bar.Finish()

			merged := mergeEntries(known, added)
			if err := writeEntries(output, merged); err != nil {
				return err
			}
			if err := writeStrings(processedFile, scraper.Processed()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "parsed %d entries (%d total) into %s\n", len(merged)-len(known), len(merged), output)

			return cmd.Context().Err()
		},
	}

	cmd.Flags().StringVar(&urlsFile, "urls", "", "JSON array of article urls")
	cmd.Flags().StringVar(&processedFile, "processed", "processed_urls.json", "JSON array of already parsed urls")
	cmd.Flags().StringVarP(&output, "output", "o", "parsed_entries.json", "entries file")
	cmd.Flags().BoolVar(&logSkipped, "log-skipped", false, "fetch and log the titles of already parsed urls")

	return cmd
}
