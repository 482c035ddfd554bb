package places

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/imkonsowa/restaurants-linebot/config"
	"github.com/imkonsowa/restaurants-linebot/models"
	"golang.org/x/sync/errgroup"
	"googlemaps.github.io/maps"
)

const NoPriceInfo = "價格資訊缺乏"

var priceRanges = map[int]string{
	0: "NT$～200",
	1: "NT$～200",
	2: "NT$200～400",
	3: "NT$400～800",
	4: "NT$800以上",
}

// PriceRange maps a places price level to a display range. nil means unknown.
func PriceRange(level *int) string {
	if level == nil {
		return NoPriceInfo
	}
	if r, ok := priceRanges[*level]; ok {
		return r
	}

	return NoPriceInfo
}

// MapsSearchURL is the Maps search link for a place, usable on desktop and in LINE.
func MapsSearchURL(name, address string) string {
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(name+" "+address)
}

// PhotoURL is the Places photo link of ref. The key is only embedded when set.
func PhotoURL(ref, apiKey string) string {
	if ref == "" {
		return ""
	}

	q := url.Values{}
	q.Set("maxwidth", fmt.Sprint(PhotoMaxWidth))
	q.Set("photo_reference", ref)
	if apiKey != "" {
		q.Set("key", apiKey)
	}

	return "https://maps.googleapis.com/maps/api/place/photo?" + q.Encode()
}

type Scraper struct {
	client *Client
	cfg    config.Scraper
	apiKey string

	seenPlaces map[string]struct{}
	seenURLs   map[string]struct{}
}

// NewScraper creates a scraper that skips every place and url already in known.
func NewScraper(client *Client, cfg config.Scraper, apiKey string, known []models.Entry) *Scraper {
	s := &Scraper{
		client:     client,
		cfg:        cfg,
		apiKey:     apiKey,
		seenPlaces: make(map[string]struct{}),
		seenURLs:   make(map[string]struct{}),
	}
	for _, e := range known {
		s.seenURLs[e.URL] = struct{}{}
		if e.Metadata.PlaceID != "" {
			s.seenPlaces[e.Metadata.PlaceID] = struct{}{}
		}
	}

	return s
}

// Run walks the seeds until MaxTotal new entries were found. onEntry, when set,
// is called for every new entry as soon as it is built.
func (s *Scraper) Run(ctx context.Context, onEntry func(models.Entry)) ([]models.Entry, error) {
	var entries []models.Entry

	for _, seed := range s.cfg.Seeds {
		if s.full(entries) {
			break
		}
		slog.Info("searching seed", "seed", seed.Name)

		results, err := s.client.NearbyPages(ctx, NearbyRequest{
			Center:   models.LatLng{Lat: seed.Lat, Lng: seed.Lng},
			Radius:   s.cfg.Radius,
			Type:     s.cfg.PlaceType,
			Keyword:  s.cfg.Keyword,
			Language: s.cfg.Language,
			MaxPages: s.cfg.MaxPages,
		})
		if err != nil {
			if ctx.Err() != nil {
				return entries, ctx.Err()
			}
			slog.Warn("nearby search failed", "seed", seed.Name, "err", err)
		}

		added := 0
		for _, p := range results {
			if s.full(entries) {
				break
			}
			if p.PlaceID == "" {
				continue
			}
			if _, ok := s.seenPlaces[p.PlaceID]; ok {
				continue
			}

			entry, ok, err := s.entry(ctx, p.PlaceID)
			if err != nil {
				if ctx.Err() != nil {
					return entries, ctx.Err()
				}
				slog.Warn("failed to build entry", "place_id", p.PlaceID, "err", err)
				continue
			}
			if !ok {
				continue
			}

			entries = append(entries, entry)
			s.seenURLs[entry.URL] = struct{}{}
			s.seenPlaces[p.PlaceID] = struct{}{}
			added++

			if onEntry != nil {
				onEntry(entry)
			}
		}

		slog.Info("seed done", "seed", seed.Name, "new", added, "total", len(entries))
	}

	return entries, nil
}

func (s *Scraper) full(entries []models.Entry) bool {
	return s.cfg.MaxTotal > 0 && len(entries) >= s.cfg.MaxTotal
}

// entry builds the entry of one place. ok is false when the place must be skipped.
func (s *Scraper) entry(ctx context.Context, placeID string) (models.Entry, bool, error) {
	d, err := s.client.Details(ctx, placeID, s.cfg.Language)
	if err != nil {
		return models.Entry{}, false, err
	}
	if d.Name == "" {
		return models.Entry{}, false, nil
	}

	mapsURL := MapsSearchURL(d.Name, d.FormattedAddress)

	link := d.Website
	if link == "" {
		link = d.Vicinity
	}
	if _, seen := s.seenURLs[link]; link == "" || seen {
		link = mapsURL
		if _, seen := s.seenURLs[link]; seen {
			return models.Entry{}, false, nil
		}
	}

	loc := d.Geometry.Location
	if loc.Lat == 0 && loc.Lng == 0 {
		return models.Entry{}, false, nil
	}
	point := models.LatLng{Lat: loc.Lat, Lng: loc.Lng}

	var mrt, bus []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mrt = s.stations(gctx, point, TypeSubwayStation)
		return nil
	})
	g.Go(func() error {
		bus = s.stations(gctx, point, TypeBusStation)
		return nil
	})
	_ = g.Wait()

	md := models.EntryMetadata{
		Source:       models.SourceGooglePlaces,
		PlaceID:      placeID,
		Address:      d.FormattedAddress,
		Location:     &point,
		MRTStations:  mrt,
		BusStations:  bus,
		MapsURL:      mapsURL,
		PriceRange:   PriceRange(priceLevel(d)),
		OpeningHours: models.OpeningHours{WeekdayText: weekdayText(d.OpeningHours)},
	}
	if d.PlaceID != "" {
		md.PlaceID = d.PlaceID
	}
	if d.Rating > 0 {
		rating := float64(d.Rating)
		md.Rating = &rating
	}
	if d.UserRatingsTotal > 0 {
		count := d.UserRatingsTotal
		md.ReviewsCount = &count
	}
	if len(d.Photos) > 0 && d.Photos[0].PhotoReference != "" {
		md.PhotoReference = d.Photos[0].PhotoReference
		md.PhotoURL = PhotoURL(md.PhotoReference, s.apiKey)
	}

	return models.Entry{
		Title:    d.Name,
		Text:     reviewText(d.Reviews),
		URL:      link,
		Metadata: md,
	}, true, nil
}

func (s *Scraper) stations(ctx context.Context, p models.LatLng, placeType string) []string {
	names, err := s.client.NearbyNames(ctx, p, placeType, s.cfg.Language)
	if err != nil {
		slog.Warn("station lookup failed", "type", placeType, "err", err)
		return nil
	}

	return names
}

// priceLevel treats 0 as unknown: the API client cannot tell it apart from a missing level.
func priceLevel(d maps.PlaceDetailsResult) *int {
	if d.PriceLevel == 0 {
		return nil
	}
	level := d.PriceLevel

	return &level
}

func weekdayText(h *maps.OpeningHours) []string {
	if h == nil {
		return nil
	}

	return h.WeekdayText
}

func reviewText(reviews []maps.PlaceReview) string {
	var texts []string
	for _, r := range reviews {
		if strings.TrimSpace(r.Text) != "" {
			texts = append(texts, r.Text)
		}
	}

	return strings.Join(texts, "\n")
}
