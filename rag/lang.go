package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/imkonsowa/restaurants-linebot/cache"
	"github.com/tmc/langchaingo/llms"
)

const (
	LangZH = "zh"
	LangJA = "ja"
	LangEN = "en"
	LangKO = "ko"
)

var detectOptions = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Cmn: true,
		whatlanggo.Jpn: true,
		whatlanggo.Eng: true,
		whatlanggo.Kor: true,
	},
}

// DetectLanguage returns the two-letter code of the query language. Text that
// cannot be classified is treated as Chinese.
func DetectLanguage(s string) string {
	if strings.TrimSpace(s) == "" {
		return LangZH
	}

	switch whatlanggo.DetectWithOptions(s, detectOptions).Lang {
	case whatlanggo.Jpn:
		return LangJA
	case whatlanggo.Eng:
		return LangEN
	case whatlanggo.Kor:
		return LangKO
	default:
		return LangZH
	}
}

var translatePrompts = map[string]string{
	LangZH: "请将以下文字翻译成简体中文：\n\n",
	LangJA: "请将以下简体中文翻译成日语：\n\n",
	LangEN: "请将以下简体中文翻译成英语：\n\n",
}

type Translator struct {
	llm   llms.Model
	cache cache.Cache
}

func NewTranslator(llm llms.Model, c cache.Cache) *Translator {
	if c == nil {
		c = cache.Noop{}
	}

	return &Translator{llm: llm, cache: c}
}

// Translate renders text in the target language. Unsupported targets and
// failures return text unchanged.
func (t *Translator) Translate(ctx context.Context, text, target string) string {
	prefix, ok := translatePrompts[target]
	if !ok || strings.TrimSpace(text) == "" {
		return text
	}

	sum := sha256.Sum256([]byte(text))
	key := "translate:" + target + ":" + hex.EncodeToString(sum[:])

	var cached string
	if hit, err := t.cache.Get(ctx, key, &cached); err != nil {
		slog.Warn("translation cache read failed", "err", err)
	} else if hit {
		return cached
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, t.llm, prefix+text, llms.WithTemperature(0))
	if err != nil {
		slog.Warn("translation failed, using original text", "target", target, "err", err)
		return text
	}
	out = strings.TrimSpace(out)

	if err := t.cache.Set(ctx, key, out); err != nil {
		slog.Warn("translation cache write failed", "err", err)
	}

	return out
}
