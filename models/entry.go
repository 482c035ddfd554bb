package models

// Entry is the on-disk form of a scraped restaurant, one element of the entries JSON array.
type Entry struct {
	Title    string        `json:"title"`
	Text     string        `json:"text"`
	URL      string        `json:"url"`
	Metadata EntryMetadata `json:"metadata"`
}

type OpeningHours struct {
	WeekdayText []string `json:"weekday_text"`
}

type EntryMetadata struct {
	Source         string       `json:"source,omitempty"`
	PlaceID        string       `json:"place_id,omitempty"`
	Address        string       `json:"address,omitempty"`
	Location       *LatLng      `json:"location,omitempty"`
	Rating         *float64     `json:"rating"`
	ReviewsCount   *int         `json:"reviews_count"`
	MRTStations    []string     `json:"mrt_stations"`
	BusStations    []string     `json:"bus_stations"`
	MapsURL        string       `json:"maps_url,omitempty"`
	OpeningHours   OpeningHours `json:"opening_hours"`
	PriceRange     string       `json:"price_range,omitempty"`
	PhotoURL       string       `json:"photo_url,omitempty"`
	PhotoReference string       `json:"photo_reference,omitempty"`
}

func (e *Entry) ToRestaurant() Restaurant {
	md := e.Metadata

	r := Restaurant{
		Source:         md.Source,
		Title:          e.Title,
		Text:           e.Text,
		URL:            e.URL,
		Address:        md.Address,
		Rating:         md.Rating,
		ReviewsCount:   md.ReviewsCount,
		MRTStations:    md.MRTStations,
		BusStations:    md.BusStations,
		OpeningHours:   md.OpeningHours.WeekdayText,
		MapsURL:        md.MapsURL,
		PriceRange:     md.PriceRange,
		PhotoReference: md.PhotoReference,
		PhotoURL:       md.PhotoURL,
	}
	if md.PlaceID != "" {
		placeID := md.PlaceID
		r.PlaceID = &placeID
	}
	if md.Location != nil {
		r.Location = NewGeoPoint(md.Location.Lng, md.Location.Lat)
	}
	if r.Source == "" {
		r.Source = SourceArticle
	}

	return r
}

func EntryFromRestaurant(r *Restaurant) Entry {
	e := Entry{
		Title: r.Title,
		Text:  r.Text,
		URL:   r.URL,
		Metadata: EntryMetadata{
			Source:         r.Source,
			Address:        r.Address,
			Rating:         r.Rating,
			ReviewsCount:   r.ReviewsCount,
			MRTStations:    r.MRTStations,
			BusStations:    r.BusStations,
			MapsURL:        r.MapsURL,
			OpeningHours:   OpeningHours{WeekdayText: r.OpeningHours},
			PriceRange:     r.PriceRange,
			PhotoURL:       r.PhotoURL,
			PhotoReference: r.PhotoReference,
		},
	}
	if r.PlaceID != nil {
		e.Metadata.PlaceID = *r.PlaceID
	}
	if r.Location.Valid {
		e.Metadata.Location = &LatLng{Lat: r.Location.Lat, Lng: r.Location.Lon}
	}

	return e
}
