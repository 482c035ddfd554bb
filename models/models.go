package models

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SourceGooglePlaces = "google_places"
	SourceArticle      = "article"
)

// Location is a WGS84 point stored as a PostGIS geometry. The zero value is NULL.
type Location struct {
	Lon, Lat float64
	Valid    bool
}

func NewGeoPoint(lng, lat float64) Location {
	return Location{
		Lon:   lng,
		Lat:   lat,
		Valid: true,
	}
}

func (g *Location) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*g = Location{}
		return nil
	case string:
		var err error
		data, err = hex.DecodeString(v)
		if err != nil {
			return err
		}
	case []byte:
		data = v
	default:
		return fmt.Errorf("expected string or []byte, got %T", value)
	}

	t, err := ewkb.Unmarshal(data)
	if err != nil {
		return err
	}

	if point, ok := t.(*geom.Point); ok {
		g.Lon = point.X()
		g.Lat = point.Y()
		g.Valid = true

		return nil
	}

	return fmt.Errorf("expected Point, got %T", t)
}

func (loc Location) GormDataType() string {
	return "geometry"
}

func (loc Location) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	if !loc.Valid {
		return clause.Expr{SQL: "NULL"}
	}

	return clause.Expr{
		SQL:  "ST_GeomFromText(?, 4326)",
		Vars: []interface{}{fmt.Sprintf("POINT(%f %f)", loc.Lon, loc.Lat)},
	}
}

func (loc Location) MarshalJSON() ([]byte, error) {
	if !loc.Valid {
		return []byte("null"), nil
	}

	return json.Marshal(LatLng{Lat: loc.Lat, Lng: loc.Lon})
}

func (loc *Location) UnmarshalJSON(data []byte) error {
	var ll *LatLng
	if err := json.Unmarshal(data, &ll); err != nil {
		return err
	}
	if ll == nil {
		*loc = Location{}
		return nil
	}
	*loc = NewGeoPoint(ll.Lng, ll.Lat)

	return nil
}

// LatLng is the {"lat","lng"} form used by the places API and the entry files.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Restaurant struct {
	ID             uint64         `gorm:"primaryKey" json:"id"`
	Source         string         `json:"source"`
	PlaceID        *string        `gorm:"uniqueIndex" json:"place_id,omitempty"`
	Title          string         `gorm:"not null" json:"title"`
	Text           string         `json:"text"`
	URL            string         `gorm:"uniqueIndex" json:"url"`
	Address        string         `json:"address"`
	Location       Location       `json:"location"`
	Rating         *float64       `json:"rating"`
	ReviewsCount   *int           `json:"reviews_count"`
	MRTStations    pq.StringArray `gorm:"type:text[]" json:"mrt_stations"`
	BusStations    pq.StringArray `gorm:"type:text[]" json:"bus_stations"`
	OpeningHours   pq.StringArray `gorm:"type:text[]" json:"opening_hours"`
	MapsURL        string         `json:"maps_url"`
	PriceRange     string         `json:"price_range"`
	PhotoReference string         `json:"photo_reference"`
	PhotoURL       string         `json:"photo_url"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (r *Restaurant) TableName() string {
	return "restaurants"
}

// OpeningHoursText joins the weekday lines, or returns 無資料 when none are known.
func (r *Restaurant) OpeningHoursText() string {
	if len(r.OpeningHours) == 0 {
		return "無資料"
	}

	return strings.Join(r.OpeningHours, "; ")
}

// Header renders the "key：value" lines prepended to every chunk of the restaurant,
// skipping empty and placeholder values.
func (r *Restaurant) Header() string {
	fields := [][2]string{
		{"標題", r.Title},
		{"地址", r.Address},
		{"價格", r.PriceRange},
		{"捷運站", strings.Join(r.MRTStations, ",")},
		{"公車站", strings.Join(r.BusStations, ",")},
		{"營業時間", r.OpeningHoursText()},
	}

	var lines []string
	for _, f := range fields {
		if f[1] == "" || f[1] == "無" || f[1] == "無資料" {
			continue
		}
		lines = append(lines, f[0]+"："+f[1])
	}

	return strings.Join(lines, "\n")
}

type Chunk struct {
	ID           uint64          `gorm:"primaryKey" json:"id"`
	RestaurantID uint64          `gorm:"index" json:"restaurant_id"`
	Index        int             `gorm:"column:chunk_index" json:"index"`
	Content      string          `json:"content"`
	Embedding    pgvector.Vector `gorm:"type:vector" json:"-"`
}

func (c *Chunk) TableName() string {
	return "chunks"
}
