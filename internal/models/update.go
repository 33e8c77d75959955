package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrNonUpdatableColumn = errors.New("column cannot be updated")
	ErrInvalidColumnValue = errors.New("invalid column value")
)

// VenueUpdate is a sparse set of column assignments applied to one venue.
// Keys are column names as stored (e.g. "interest_status").
type VenueUpdate map[string]interface{}

type columnKind int

const (
	kindText columnKind = iota
	kindFloat
	kindInt
	kindBool
	kindTime
	kindInterest
)

// updatableColumns lists every column callers may assign with the kind of
// value it holds. The identity key, surrogate id and bookkeeping timestamps
// are absent.
var updatableColumns = map[string]columnKind{
	"google_name": kindText, "name": kindText, "osm_id": kindFloat, "osm_type": kindText,
	"amenity": kindText, "cuisine": kindText, "search_type": kindText,
	"google_phone": kindText, "google_phone_intl": kindText, "phone": kindText,
	"google_website": kindText, "website": kindText,
	"google_vicinity": kindText, "address": kindText, "housenumber": kindText, "postcode": kindText,
	"search_ward": kindText, "search_postcode_sector": kindText, "search_constituency": kindText,
	"google_lat": kindFloat, "google_lng": kindFloat, "latitude": kindFloat, "longitude": kindFloat,
	"google_rating": kindFloat, "google_user_ratings_total": kindInt, "google_price_level": kindInt,
	"business_status": kindText, "validated": kindBool, "data_source": kindText, "is_chain": kindBool,
	"opening_hours": kindText, "google_opening_hours": kindText,
	"outdoor_seating": kindText, "takeaway": kindText, "delivery": kindText, "wheelchair": kindText,
	"google_types": kindText, "google_photo_reference": kindText,
	"visited": kindBool, "visit_date": kindTime, "interest_status": kindInterest,
	"is_priority": kindBool, "notes": kindText,
}

// Validate rejects assignments to unknown or protected columns and values
// that do not fit the column. Accepted values are normalised in place to
// the column's Go type, so decoded JSON (float64 numbers, RFC3339 date
// strings) can be applied directly.
func (u VenueUpdate) Validate() error {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := updatableColumns[k]; !ok {
			return fmt.Errorf("%w: %s", ErrNonUpdatableColumn, k)
		}
	}

	for _, k := range keys {
		value, err := normalize(updatableColumns[k], u[k])
		if err != nil {
			if errors.Is(err, ErrInvalidInterestStatus) {
				return err
			}
			return fmt.Errorf("%w: %s: %v", ErrInvalidColumnValue, k, err)
		}
		u[k] = value
	}
	return nil
}

func normalize(kind columnKind, raw interface{}) (interface{}, error) {
	if raw == nil {
		if kind == kindBool {
			return nil, errors.New("must not be null")
		}
		return nil, nil
	}

	switch kind {
	case kindText:
		switch v := raw.(type) {
		case string:
			return v, nil
		case *string:
			if v == nil {
				return nil, nil
			}
			return *v, nil
		}
	case kindFloat:
		switch v := raw.(type) {
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.New("must be finite")
			}
			return v, nil
		case *float64:
			if v == nil {
				return nil, nil
			}
			return normalize(kind, *v)
		case float32:
			return normalize(kind, float64(v))
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case kindInt:
		switch v := raw.(type) {
		case int:
			return normalize(kind, int64(v))
		case *int:
			if v == nil {
				return nil, nil
			}
			return normalize(kind, int64(*v))
		case int64:
			if v > math.MaxInt32 || v < math.MinInt32 {
				return nil, errors.New("out of range")
			}
			return int(v), nil
		case float64:
			if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
				return nil, errors.New("must be a whole number")
			}
			return int(v), nil
		}
	case kindBool:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
	case kindTime:
		switch v := raw.(type) {
		case time.Time:
			return v, nil
		case *time.Time:
			if v == nil {
				return nil, nil
			}
			return *v, nil
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, errors.New("must be an RFC3339 timestamp")
			}
			return t, nil
		}
	case kindInterest:
		switch v := raw.(type) {
		case InterestStatus:
			return ParseInterestStatus(string(v))
		case *InterestStatus:
			if v == nil {
				return nil, nil
			}
			return ParseInterestStatus(string(*v))
		case string:
			return ParseInterestStatus(v)
		}
		return nil, fmt.Errorf("%w: %T", ErrInvalidInterestStatus, raw)
	}
	return nil, fmt.Errorf("unexpected %T", raw)
}

// UpdatableColumn reports whether callers may assign the column
func UpdatableColumn(column string) bool {
	_, ok := updatableColumns[column]
	return ok
}

// SurveyResetUpdate clears every survey field back to its default.
func SurveyResetUpdate() VenueUpdate {
	return VenueUpdate{
		"visited":         false,
		"visit_date":      nil,
		"interest_status": nil,
		"is_priority":     false,
		"notes":           nil,
	}
}
