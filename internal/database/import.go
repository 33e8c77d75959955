package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"venuesurvey/server/internal/csvio"
	"venuesurvey/server/internal/models"
)

// ImportFromCSV adds venues for rows whose google_place_id is not already
// stored. Rows repeating a stored key, or a key seen earlier in the same
// file, are skipped without counting. Rows that fail coercion are counted
// as errors and skipped. New venues are written in a single transaction;
// when that fails they are retried one by one and rejected inserts are
// counted as errors.
func (d *Database) ImportFromCSV(records []csvio.Record) (models.ImportResult, error) {
	var result models.ImportResult

	seen, err := d.existingPlaceIDs()
	if err != nil {
		return result, err
	}

	pending := make([]*models.Venue, 0, len(records))
	for _, rec := range records {
		key, hasKey := rec.Get("google_place_id")
		if hasKey {
			if _, dup := seen[key]; dup {
				continue
			}
		}

		venue, err := csvio.ToVenue(rec)
		if err != nil {
			result.Errors++
			d.logger.WithError(err).WithField("line", rec.Line).Debug("Skipping invalid import row")
			continue
		}

		now := d.now()
		venue.CreatedAt = now
		venue.UpdatedAt = now

		if hasKey {
			seen[key] = struct{}{}
		}
		pending = append(pending, venue)
	}

	if len(pending) > 0 {
		err := d.db.Transaction(func(tx *gorm.DB) error {
			return tx.CreateInBatches(pending, d.batchSize).Error
		})
		if err == nil {
			result.Imported = len(pending)
		} else {
			d.logger.WithError(err).Warn("Batch insert failed, inserting venues one at a time")
			imported, failed := d.insertEach(pending)
			result.Imported = imported
			result.Errors += failed
		}
	}

	d.logger.WithFields(logrus.Fields{
		"rows":     len(records),
		"imported": result.Imported,
		"errors":   result.Errors,
	}).Info("Imported venues from CSV")

	return result, nil
}

// insertEach inserts venues one at a time and counts the ones rejected.
func (d *Database) insertEach(venues []*models.Venue) (imported, failed int) {
	for _, venue := range venues {
		venue.ID = 0
		if err := d.db.Create(venue).Error; err != nil {
			failed++
			d.logger.WithError(err).WithField("venue", venue.DisplayName()).Debug("Skipping venue that failed to insert")
			continue
		}
		imported++
	}
	return imported, failed
}

func (d *Database) existingPlaceIDs() (map[string]struct{}, error) {
	var ids []string
	err := d.db.Model(&models.Venue{}).
		Where("google_place_id IS NOT NULL").
		Pluck("google_place_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load existing place ids: %w", err)
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}
