package database

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"venuesurvey/server/internal/models"
)

// Geocoder resolves a postal address to latitude and longitude
type Geocoder interface {
	GeocodeAddress(street, postalCode, city string) (float64, float64, error)
}

// CoordinateBackfill reports the outcome of UpdateMissingCoordinates
type CoordinateBackfill struct {
	Candidates int `json:"candidates"`
	Updated    int `json:"updated"`
	Failed     int `json:"failed"`
}

// UpdateMissingCoordinates geocodes venues that have neither coordinate
// pair and stores the result as the secondary latitude/longitude. Lookup
// failures are counted and skipped; storage failures abort.
func (d *Database) UpdateMissingCoordinates(geocoder Geocoder, city string) (CoordinateBackfill, error) {
	var result CoordinateBackfill

	var venues []models.Venue
	err := d.db.
		Where("(google_lat IS NULL OR google_lng IS NULL)").
		Where("(latitude IS NULL OR longitude IS NULL)").
		Where("(COALESCE(google_vicinity, '') <> '' OR COALESCE(address, '') <> '')").
		Order("id").
		Find(&venues).Error
	if err != nil {
		return result, fmt.Errorf("failed to query venues without coordinates: %w", err)
	}

	result.Candidates = len(venues)
	if result.Candidates == 0 {
		d.logger.Info("No venues need geocoding")
		return result, nil
	}
	d.logger.Infof("Found %d venues that need geocoding", result.Candidates)

	for i := range venues {
		v := &venues[i]
		postcode := ""
		if v.Postcode != nil {
			postcode = *v.Postcode
		}

		lat, lng, err := geocoder.GeocodeAddress(v.DisplayAddress(), postcode, city)
		if err != nil {
			result.Failed++
			d.logger.WithError(err).WithField("venue_id", v.ID).Warn("Failed to geocode venue")
			continue
		}

		if _, err := d.UpdateVenue(v.ID, models.VenueUpdate{"latitude": lat, "longitude": lng}); err != nil {
			return result, err
		}
		result.Updated++
	}

	d.logger.WithFields(logrus.Fields{
		"candidates": result.Candidates,
		"updated":    result.Updated,
		"failed":     result.Failed,
	}).Info("Finished geocoding venues")

	return result, nil
}
