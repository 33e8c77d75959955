package database

import "venuesurvey/server/internal/models"

func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(&models.Venue{}); err != nil {
		return err
	}

	// Create index on coordinates for the map feed
	if err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_venues_google_coordinates
		ON venues(google_lat, google_lng);
	`).Error; err != nil {
		return err
	}

	// Create index on survey state
	if err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_venues_survey_state
		ON venues(visited, interest_status);
	`).Error; err != nil {
		return err
	}

	return nil
}
