package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/imkonsowa/restaurants-linebot/flex"
	"github.com/imkonsowa/restaurants-linebot/metrics"
	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/imkonsowa/restaurants-linebot/store"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
)

const (
	DefaultK           = 10
	DefaultContextDocs = 5
	MaxAnswers         = 3
	noLink             = "N/A"
)

type Searcher interface {
	SimilaritySearch(ctx context.Context, vector []float32, k int) ([]store.Document, error)
}

type Options struct {
	K           int
	ContextDocs int
	Temperature float64
}

type Answerer struct {
	llm        llms.Model
	embedder   embeddings.Embedder
	searcher   Searcher
	locator    *Locator
	translator *Translator
	opts       Options
}

func NewAnswerer(
	llm llms.Model,
	embedder embeddings.Embedder,
	searcher Searcher,
	locator *Locator,
	translator *Translator,
	opts Options,
) *Answerer {
	if opts.K < 1 {
		opts.K = DefaultK
	}
	if opts.ContextDocs < 1 {
		opts.ContextDocs = DefaultContextDocs
	}

	return &Answerer{
		llm:        llm,
		embedder:   embedder,
		searcher:   searcher,
		locator:    locator,
		translator: translator,
		opts:       opts,
	}
}

// Answer recommends up to three restaurants for query, written in the language
// the query was asked in. Only retrieval and generation failures are returned;
// location, translation and metadata problems degrade silently.
func (a *Answerer) Answer(ctx context.Context, query string) ([]models.Answer, error) {
	lang := DetectLanguage(query)
	metrics.Answers.WithLabelValues(lang).Inc()

	zhQuery := query
	if lang != LangZH {
		zhQuery = a.translator.Translate(ctx, query, LangZH)
	}

	var origin *models.LatLng
	if a.locator != nil {
		origin = a.locator.Locate(ctx, query)
	}

	vector, err := a.embedder.EmbedQuery(ctx, zhQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	docs, err := a.searcher.SimilaritySearch(ctx, vector, a.opts.K)
	if err != nil {
		return nil, fmt.Errorf("failed to search restaurants: %w", err)
	}

	if origin != nil {
		SortByDistance(docs, *origin)
	}

	contextDocs := docs
	if len(contextDocs) > a.opts.ContextDocs {
		contextDocs = contextDocs[:a.opts.ContextDocs]
	}

	prompt, err := QAPrompt(zhQuery, contextDocs)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	reply, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt, llms.WithTemperature(a.opts.Temperature))
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	slog.Debug("generated answer", "lang", lang, "docs", len(docs), "located", origin != nil)

	var answers []models.Answer
	for _, block := range SplitBlocks(reply) {
		lines := PostProcess(block)

		name := storeName(lines)
		if name == "" {
			continue
		}

		link := noLink
		ratingLine := ""
		var photoURL, photoRef string
		if r := matchRestaurant(docs, name); r != nil {
			if r.MapsURL != "" {
				link = r.MapsURL
			}
			photoURL, photoRef = r.PhotoURL, r.PhotoReference
			if r.Rating != nil {
				ratingLine = RatingLine(*r.Rating, r.ReviewsCount)
			}
		}

		lines = rebuild(lines, ratingLine, link)

		answers = append(answers, models.Answer{
			Text:     a.localize(ctx, lines, lang),
			PhotoURL: photoURL,
			PhotoRef: photoRef,
		})
		if len(answers) >= MaxAnswers {
			break
		}
	}

	return answers, nil
}

// matchRestaurant returns the first retrieved restaurant whose title contains name.
func matchRestaurant(docs []store.Document, name string) *models.Restaurant {
	for i := range docs {
		if strings.Contains(docs[i].Restaurant.Title, name) {
			return &docs[i].Restaurant
		}
	}

	return nil
}

// localize translates everything but the name line back into lang.
func (a *Answerer) localize(ctx context.Context, lines []string, lang string) string {
	if lang == LangZH {
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}

	var nameLine string
	var rest []string
	for _, l := range lines {
		if nameLine == "" && strings.HasPrefix(l, flex.KeyName+"：") {
			nameLine = l
			continue
		}
		if strings.HasPrefix(l, flex.KeyName+"：") {
			continue
		}
		rest = append(rest, l)
	}

	translated := a.translator.Translate(ctx, strings.Join(rest, "\n"), lang)

	var out []string
	for _, s := range []string{nameLine, translated} {
		if s != "" {
			out = append(out, s)
		}
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
