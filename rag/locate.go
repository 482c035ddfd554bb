package rag

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/imkonsowa/restaurants-linebot/cache"
	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/tmc/langchaingo/llms"
)

var addressRe = regexp.MustCompile(`(台北市|台灣台北市)?[^\s\d]{1,6}(區|路|站)[^\n，。 ]{1,10}`)

// ExtractAddress returns the first district, road or station mention in text.
func ExtractAddress(text string) string {
	return addressRe.FindString(text)
}

const placePrompt = `請從以下問題中只抽出一個「台灣的地名或地址」。
格式如「中山」「信義區」「西門町」「永康街」，也可以是街道、車站或觀光景點。
不要輸出整句話，只輸出地點名稱；沒有地點時輸出空白。

問題：
%s

輸出（只有地名）：
`

type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.LatLng, error)
}

// Locator resolves the place a query talks about to a coordinate.
type Locator struct {
	llm      llms.Model
	geocoder Geocoder
	cache    cache.Cache
}

func NewLocator(llm llms.Model, geocoder Geocoder, c cache.Cache) *Locator {
	if c == nil {
		c = cache.Noop{}
	}

	return &Locator{llm: llm, geocoder: geocoder, cache: c}
}

// Locate tries the address pattern first and asks the model for a place name
// otherwise. It returns nil when no coordinate could be found.
func (l *Locator) Locate(ctx context.Context, query string) *models.LatLng {
	if address := ExtractAddress(query); address != "" {
		if p := l.geocode(ctx, address); p != nil {
			return p
		}
	}

	place := l.extractPlace(ctx, query)
	if place == "" {
		return nil
	}

	return l.geocode(ctx, "台北 "+place)
}

func (l *Locator) extractPlace(ctx context.Context, query string) string {
	if l.llm == nil {
		return ""
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, l.llm, fmt.Sprintf(placePrompt, query), llms.WithTemperature(0))
	if err != nil {
		slog.Warn("place extraction failed", "err", err)
		return ""
	}

	place, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	place = strings.Trim(strings.TrimSpace(place), "「」\"'")
	if place == "" || place == "無" || place == "無地名" || place == "なし" {
		return ""
	}

	return place
}

func (l *Locator) geocode(ctx context.Context, address string) *models.LatLng {
	key := "geocode:" + address

	var cached models.LatLng
	if hit, err := l.cache.Get(ctx, key, &cached); err != nil {
		slog.Warn("geocode cache read failed", "err", err)
	} else if hit {
		return &cached
	}

	p, err := l.geocoder.Geocode(ctx, address)
	if err != nil {
		slog.Info("geocode failed", "address", address, "err", err)
		return nil
	}

	if err := l.cache.Set(ctx, key, p); err != nil {
		slog.Warn("geocode cache write failed", "err", err)
	}

	return &p
}
