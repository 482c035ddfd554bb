package rag

import (
	"math"
	"sort"

	"github.com/golang/geo/s2"
	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/imkonsowa/restaurants-linebot/store"
)

const earthRadiusMeters = 6371008.8

// DistanceMeters is the great-circle distance between two points.
func DistanceMeters(a, b models.LatLng) float64 {
	angle := s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng))

	return angle.Radians() * earthRadiusMeters
}

// SortByDistance orders docs by distance from origin, keeping the retrieval order
// for ties. Documents without a location go last.
func SortByDistance(docs []store.Document, origin models.LatLng) {
	keys := make([]float64, len(docs))
	for i, d := range docs {
		loc := d.Restaurant.Location
		if !loc.Valid {
			keys[i] = math.Inf(1)
			continue
		}
		keys[i] = DistanceMeters(origin, models.LatLng{Lat: loc.Lat, Lng: loc.Lon})
	}

	sort.Stable(byKey{docs: docs, keys: keys})
}

type byKey struct {
	docs []store.Document
	keys []float64
}

func (b byKey) Len() int           { return len(b.docs) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.docs[i], b.docs[j] = b.docs[j], b.docs[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
