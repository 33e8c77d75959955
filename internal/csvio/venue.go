package csvio

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"venuesurvey/server/internal/models"
)

var falseTokens = map[string]struct{}{
	"false": {}, "f": {}, "0": {}, "no": {}, "n": {}, "off": {}, "0.0": {},
}

// ToVenue builds a venue from an import row. Numeric cells must parse when
// present; missing numerics stay nil. Survey columns are never read, so a
// new venue always starts unvisited.
func ToVenue(rec Record) (*models.Venue, error) {
	v := &models.Venue{
		GooglePlaceID:        str(rec, "google_place_id"),
		GoogleName:           str(rec, "google_name"),
		Name:                 str(rec, "name"),
		OsmType:              str(rec, "osm_type"),
		Amenity:              str(rec, "amenity"),
		Cuisine:              str(rec, "cuisine"),
		SearchType:           str(rec, "search_type"),
		GooglePhone:          str(rec, "google_phone"),
		GooglePhoneIntl:      str(rec, "google_phone_intl"),
		Phone:                str(rec, "phone"),
		GoogleWebsite:        str(rec, "google_website"),
		Website:              str(rec, "website"),
		GoogleVicinity:       str(rec, "google_vicinity"),
		Address:              str(rec, "address"),
		Housenumber:          str(rec, "housenumber"),
		Postcode:             str(rec, "postcode"),
		SearchWard:           str(rec, "search_ward"),
		SearchPostcodeSector: str(rec, "search_postcode_sector"),
		SearchConstituency:   str(rec, "search_constituency"),
		BusinessStatus:       str(rec, "business_status"),
		Validated:            boolean(rec, "validated"),
		DataSource:           str(rec, "data_source"),
		IsChain:              boolean(rec, "is_chain"),
		OpeningHours:         str(rec, "opening_hours"),
		GoogleOpeningHours:   str(rec, "google_opening_hours"),
		OutdoorSeating:       str(rec, "outdoor_seating"),
		Takeaway:             str(rec, "takeaway"),
		Delivery:             str(rec, "delivery"),
		Wheelchair:           str(rec, "wheelchair"),
		GoogleTypes:          str(rec, "google_types"),
		GooglePhotoReference: str(rec, "google_photo_reference"),
	}

	floats := []struct {
		column string
		dst    **float64
	}{
		{"osm_id", &v.OsmID},
		{"google_lat", &v.GoogleLat},
		{"google_lng", &v.GoogleLng},
		{"latitude", &v.Latitude},
		{"longitude", &v.Longitude},
		{"google_rating", &v.GoogleRating},
	}
	for _, fl := range floats {
		parsed, err := float(rec, fl.column)
		if err != nil {
			return nil, err
		}
		*fl.dst = parsed
	}

	ints := []struct {
		column string
		dst    **int
	}{
		{"google_user_ratings_total", &v.GoogleUserRatingsTotal},
		{"google_price_level", &v.GooglePriceLevel},
	}
	for _, in := range ints {
		parsed, err := integer(rec, in.column)
		if err != nil {
			return nil, err
		}
		*in.dst = parsed
	}

	return v, nil
}

func str(rec Record, column string) *string {
	v, ok := rec.Get(column)
	if !ok {
		return nil
	}
	return &v
}

func boolean(rec Record, column string) bool {
	v, ok := rec.Get(column)
	if !ok {
		return false
	}
	_, isFalse := falseTokens[strings.ToLower(v)]
	return !isFalse
}

func float(rec Record, column string) (*float64, error) {
	v, ok := rec.Get(column)
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("line %d: invalid %s %q", rec.Line, column, v)
	}
	return &f, nil
}

// integer accepts whole numbers and float renderings such as "120.0",
// which dataframe exports produce for integer columns containing blanks.
func integer(rec Record, column string) (*int, error) {
	v, ok := rec.Get(column)
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil, fmt.Errorf("line %d: invalid %s %q", rec.Line, column, v)
	}
	i := int(f)
	return &i, nil
}
