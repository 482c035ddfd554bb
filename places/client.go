package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/imkonsowa/restaurants-linebot/metrics"
	"github.com/imkonsowa/restaurants-linebot/models"
	"googlemaps.github.io/maps"
)

const (
	PhotoMaxWidth = 800
	StationRadius = 800
	MaxStations   = 3

	TypeSubwayStation = "subway_station"
	TypeBusStation    = "bus_station"
)

var ErrNotFound = errors.New("places: not found")

// API is the part of *maps.Client the bot depends on.
type API interface {
	NearbySearch(ctx context.Context, r *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error)
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	PlacePhoto(ctx context.Context, r *maps.PlacePhotoRequest) (maps.PlacePhotoResponse, error)
}

type Client struct {
	api       API
	pageDelay time.Duration
}

func NewMapsClient(apiKey string, rateLimit int) (*maps.Client, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if rateLimit > 0 {
		opts = append(opts, maps.WithRateLimit(rateLimit))
	}

	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return c, nil
}

func NewClient(api API) *Client {
	return &Client{api: api, pageDelay: 2 * time.Second}
}

// NearbyRequest describes one nearby search around Center.
type NearbyRequest struct {
	Center   models.LatLng
	Radius   uint
	Type     string
	Keyword  string
	Language string
	MaxPages int
}

// NearbyPages returns the results of up to MaxPages pages. The next page token only
// becomes valid after a short delay, so each follow-up request waits first.
func (c *Client) NearbyPages(ctx context.Context, req NearbyRequest) ([]maps.PlacesSearchResult, error) {
	search := &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: req.Center.Lat, Lng: req.Center.Lng},
		Radius:   req.Radius,
		Keyword:  req.Keyword,
		Language: req.Language,
		Type:     maps.PlaceType(req.Type),
	}

	var results []maps.PlacesSearchResult
	for page := 0; req.MaxPages <= 0 || page < req.MaxPages; page++ {
		start := time.Now()
		resp, err := c.api.NearbySearch(ctx, search)
		metrics.ObserveExternal("google", "nearby_search", err, time.Since(start))
		if err != nil {
			return results, fmt.Errorf("failed to search nearby %v: %w", req.Center, err)
		}

		results = append(results, resp.Results...)
		if resp.NextPageToken == "" {
			break
		}

		select {
		case <-ctx.Done():
			return results, ctx.Err()
		case <-time.After(c.pageDelay):
		}
		search = &maps.NearbySearchRequest{PageToken: resp.NextPageToken}
	}

	return results, nil
}

var detailFields = []string{
	"name", "formatted_address", "geometry", "vicinity", "website", "rating",
	"user_ratings_total", "reviews", "opening_hours", "price_level", "photos", "place_id",
}

func (c *Client) Details(ctx context.Context, placeID, language string) (maps.PlaceDetailsResult, error) {
	var fields []maps.PlaceDetailsFieldMask
	for _, f := range detailFields {
		mask, err := maps.ParsePlaceDetailsFieldMask(f)
		if err != nil {
			return maps.PlaceDetailsResult{}, fmt.Errorf("failed to parse field mask %s: %w", f, err)
		}
		fields = append(fields, mask)
	}

	start := time.Now()
	res, err := c.api.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID:  placeID,
		Language: language,
		Fields:   fields,
	})
	metrics.ObserveExternal("google", "place_details", err, time.Since(start))
	if err != nil {
		return maps.PlaceDetailsResult{}, fmt.Errorf("failed to get details of %s: %w", placeID, err)
	}

	return res, nil
}

// NearbyNames returns the non-empty names among the first MaxStations places of
// the given type around p.
func (c *Client) NearbyNames(ctx context.Context, p models.LatLng, placeType, language string) ([]string, error) {
	start := time.Now()
	resp, err := c.api.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
		Radius:   StationRadius,
		Type:     maps.PlaceType(placeType),
		Language: language,
	})
	metrics.ObserveExternal("google", "nearby_search", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to search %s near %v: %w", placeType, p, err)
	}

	results := resp.Results
	if len(results) > MaxStations {
		results = results[:MaxStations]
	}

	var names []string
	for _, r := range results {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}

	return names, nil
}

// Geocode resolves address to the coordinate of its first result.
func (c *Client) Geocode(ctx context.Context, address string) (models.LatLng, error) {
	start := time.Now()
	res, err := c.api.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	metrics.ObserveExternal("google", "geocode", err, time.Since(start))
	if err != nil {
		return models.LatLng{}, fmt.Errorf("failed to geocode %q: %w", address, err)
	}
	if len(res) == 0 {
		return models.LatLng{}, ErrNotFound
	}

	loc := res[0].Geometry.Location

	return models.LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// Photo fetches the image bytes of a photo reference. Non-image responses are
// reported as ErrNotFound.
func (c *Client) Photo(ctx context.Context, ref string) ([]byte, string, error) {
	start := time.Now()
	resp, err := c.api.PlacePhoto(ctx, &maps.PlacePhotoRequest{PhotoReference: ref, MaxWidth: PhotoMaxWidth})
	metrics.ObserveExternal("google", "place_photo", err, time.Since(start))
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch photo: %w", err)
	}
	if resp.Data == nil {
		return nil, "", ErrNotFound
	}
	defer resp.Data.Close()

	if !strings.HasPrefix(resp.ContentType, "image/") {
		return nil, resp.ContentType, ErrNotFound
	}

	data, err := io.ReadAll(resp.Data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read photo: %w", err)
	}

	return data, resp.ContentType, nil
}
