package llm

import (
	"fmt"
	"strings"

	"github.com/imkonsowa/restaurants-linebot/config"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// New builds the chat model and the embedder of the configured provider.
func New(cfg config.LLM) (llms.Model, embeddings.Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		return newOpenAI(cfg)
	case ProviderOllama:
		return newOllama(cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func newOpenAI(cfg config.LLM) (llms.Model, embeddings.Embedder, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.ChatModel),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.Token != "" {
		opts = append(opts, openai.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return client, embedder, nil
}

func newOllama(cfg config.LLM) (llms.Model, embeddings.Embedder, error) {
	chat, err := ollama.New(
		ollama.WithServerURL(cfg.Address()),
		ollama.WithModel(cfg.ChatModel),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create ollama chat client: %w", err)
	}

	embeddingLLM, err := ollama.New(
		ollama.WithServerURL(cfg.Address()),
		ollama.WithModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create ollama embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(embeddingLLM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return chat, embedder, nil
}
