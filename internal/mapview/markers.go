package mapview

import (
	"fmt"
	"net/url"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"venuesurvey/server/internal/geo"
	"venuesurvey/server/internal/models"
)

const (
	searchURL     = "https://www.google.com/maps/search/"
	directionsURL = "https://www.google.com/maps/dir/"
)

// BuildFeatureCollection turns venues into map markers. Venues without
// external coordinates are left off the map. When user is non-nil each
// marker carries its distance from that point.
func BuildFeatureCollection(venues []models.Venue, user *orb.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range venues {
		if f := Marker(&venues[i], user); f != nil {
			fc.Append(f)
		}
	}
	return fc
}

// Marker builds the GeoJSON feature for a single venue, or nil when the
// venue cannot be placed.
func Marker(v *models.Venue, user *orb.Point) *geojson.Feature {
	if !v.HasGoogleLocation() {
		return nil
	}

	lat, lng := *v.GoogleLat, *v.GoogleLng
	f := geojson.NewFeature(orb.Point{lng, lat})

	f.Properties["id"] = v.ID
	f.Properties["name"] = v.DisplayName()
	f.Properties["amenity"] = deref(v.Amenity)
	f.Properties["cuisine"] = deref(v.Cuisine)
	f.Properties["ward"] = deref(v.SearchWard)
	f.Properties["postcode"] = deref(v.Postcode)
	f.Properties["address"] = v.DisplayAddress()
	f.Properties["phone"] = deref(v.GooglePhone)
	f.Properties["website"] = deref(v.GoogleWebsite)
	f.Properties["rating"] = v.GoogleRating
	f.Properties["pin_color"] = v.PinColor()
	f.Properties["status"] = v.StatusLabel()
	f.Properties["notes"] = deref(v.Notes)
	f.Properties["tooltip"] = fmt.Sprintf("%s - %s", v.DisplayName(), deref(v.Amenity))
	f.Properties["maps_url"] = SearchURL(lat, lng, deref(v.GooglePlaceID))
	f.Properties["directions_url"] = DirectionsURL(lat, lng)

	if user != nil {
		userLat, userLng := user.Lat(), user.Lon()
		if d, ok := geo.DistanceMiles(&userLat, &userLng, &lat, &lng); ok {
			f.Properties["distance_miles"] = d
		}
	}

	return f
}

// SearchURL opens the venue in Google Maps
func SearchURL(lat, lng float64, placeID string) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", fmt.Sprintf("%v,%v", lat, lng))
	if placeID != "" {
		q.Set("query_place_id", placeID)
	}
	return searchURL + "?" + q.Encode()
}

// DirectionsURL opens Google Maps directions to the venue
func DirectionsURL(lat, lng float64) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("destination", fmt.Sprintf("%v,%v", lat, lng))
	return directionsURL + "?" + q.Encode()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
