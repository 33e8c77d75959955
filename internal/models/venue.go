package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InterestStatus records how a visited venue responded to the survey pitch
type InterestStatus string

const (
	Interested    InterestStatus = "interested"
	NotInterested InterestStatus = "not_interested"
)

// DefaultBusinessStatus is the status venue listings are narrowed to unless the caller asks otherwise
const DefaultBusinessStatus = "OPERATIONAL"

var ErrInvalidInterestStatus = errors.New("invalid interest status")

// ParseInterestStatus accepts the stored form ("not_interested") as well as
// the picker labels shown to the surveyor ("Not Interested").
func ParseInterestStatus(s string) (InterestStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	switch InterestStatus(normalized) {
	case Interested, NotInterested:
		return InterestStatus(normalized), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidInterestStatus, s)
}

// Ptr returns a pointer to a copy of the status, for nullable columns.
func (s InterestStatus) Ptr() *InterestStatus {
	return &s
}

type Venue struct {
	ID int64 `json:"id" gorm:"primaryKey;autoIncrement"`

	// Identity
	GooglePlaceID *string  `json:"google_place_id" gorm:"uniqueIndex"`
	GoogleName    *string  `json:"google_name"`
	Name          *string  `json:"name"`
	OsmID         *float64 `json:"osm_id"`
	OsmType       *string  `json:"osm_type"`

	// Classification
	Amenity    *string `json:"amenity"`
	Cuisine    *string `json:"cuisine"`
	SearchType *string `json:"search_type"`

	// Contact
	GooglePhone     *string `json:"google_phone"`
	GooglePhoneIntl *string `json:"google_phone_intl"`
	Phone           *string `json:"phone"`
	GoogleWebsite   *string `json:"google_website"`
	Website         *string `json:"website"`

	// Location
	GoogleVicinity       *string  `json:"google_vicinity"`
	Address              *string  `json:"address"`
	Housenumber          *string  `json:"housenumber"`
	Postcode             *string  `json:"postcode"`
	SearchWard           *string  `json:"search_ward" gorm:"index"`
	SearchPostcodeSector *string  `json:"search_postcode_sector"`
	SearchConstituency   *string  `json:"search_constituency"`
	GoogleLat            *float64 `json:"google_lat"`
	GoogleLng            *float64 `json:"google_lng"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`

	// Reputation
	GoogleRating           *float64 `json:"google_rating"`
	GoogleUserRatingsTotal *int     `json:"google_user_ratings_total"`
	GooglePriceLevel       *int     `json:"google_price_level"`

	// Operational
	BusinessStatus *string `json:"business_status" gorm:"index"`
	Validated      bool    `json:"validated"`
	DataSource     *string `json:"data_source"`
	IsChain        bool    `json:"is_chain"`

	// Optional attributes
	OpeningHours         *string `json:"opening_hours" gorm:"type:text"`
	GoogleOpeningHours   *string `json:"google_opening_hours" gorm:"type:text"`
	OutdoorSeating       *string `json:"outdoor_seating"`
	Takeaway             *string `json:"takeaway"`
	Delivery             *string `json:"delivery"`
	Wheelchair           *string `json:"wheelchair"`
	GoogleTypes          *string `json:"google_types" gorm:"type:text"`
	GooglePhotoReference *string `json:"google_photo_reference" gorm:"type:text"`

	// Survey state, owned by this application
	Visited        bool            `json:"visited" gorm:"not null;default:false"`
	VisitDate      *time.Time      `json:"visit_date"`
	InterestStatus *InterestStatus `json:"interest_status"`
	IsPriority     bool            `json:"is_priority" gorm:"not null;default:false"`
	Notes          *string         `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Venue) TableName() string {
	return "venues"
}

// DisplayName prefers the externally sourced name, falling back to the curated one.
func (v *Venue) DisplayName() string {
	return firstOf(v.GoogleName, v.Name)
}

func (v *Venue) DisplayAddress() string {
	return firstOf(v.GoogleVicinity, v.Address)
}

func (v *Venue) DisplayPhone() string {
	return firstOf(v.GooglePhone, v.Phone)
}

func (v *Venue) DisplayWebsite() string {
	return firstOf(v.GoogleWebsite, v.Website)
}

// HasInterest reports whether the venue carries the given interest status.
func (v *Venue) HasInterest(status InterestStatus) bool {
	return v.InterestStatus != nil && *v.InterestStatus == status
}

// HasGoogleLocation reports whether the venue can be placed on the map.
// Zero coordinates count as missing.
func (v *Venue) HasGoogleLocation() bool {
	return v.GoogleLat != nil && v.GoogleLng != nil && *v.GoogleLat != 0 && *v.GoogleLng != 0
}

// PinColor maps survey state onto the marker colour used by the map view
func (v *Venue) PinColor() string {
	switch {
	case !v.Visited:
		return "red"
	case v.HasInterest(Interested):
		return "green"
	case v.HasInterest(NotInterested):
		return "gray"
	default:
		return "orange"
	}
}

// StatusLabel is the short human readable survey state
func (v *Venue) StatusLabel() string {
	switch {
	case !v.Visited:
		return "Not Visited"
	case v.HasInterest(Interested):
		return "Interested"
	case v.HasInterest(NotInterested):
		return "Not Interested"
	default:
		return "Visited"
	}
}

func firstOf(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
