package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"venuesurvey/server/internal/models"
)

const defaultBatchSize = 100

type Database struct {
	db        *gorm.DB
	logger    *logrus.Logger
	now       func() time.Time
	batchSize int
}

// Option customises a Database at construction time
type Option func(*Database)

// WithClock overrides the clock used for bookkeeping timestamps
func WithClock(now func() time.Time) Option {
	return func(d *Database) {
		d.now = now
	}
}

// WithBatchSize sets how many venues are inserted per statement on import
func WithBatchSize(n int) Option {
	return func(d *Database) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// NewDatabase opens (creating if needed) the SQLite venue store at dbPath.
func NewDatabase(dbPath string, logger *logrus.Logger, opts ...Option) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// single writer, single process
	sqlDB.SetMaxOpenConns(1)

	d := &Database{
		db:        db,
		logger:    logger,
		now:       time.Now,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

// GetAllVenues returns every stored venue ordered by id
func (d *Database) GetAllVenues() ([]models.Venue, error) {
	var venues []models.Venue
	if err := d.db.Order("id").Find(&venues).Error; err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	return venues, nil
}

// GetVenueByID returns nil without an error when no venue has the id.
func (d *Database) GetVenueByID(id int64) (*models.Venue, error) {
	var venue models.Venue
	err := d.db.First(&venue, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query venue %d: %w", id, err)
	}
	return &venue, nil
}

// UpdateVenue applies the assignments and refreshes updated_at in one
// transaction. It returns nil without an error when the id is unknown.
func (d *Database) UpdateVenue(id int64, update models.VenueUpdate) (*models.Venue, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Venue
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var venue models.Venue
		err := tx.First(&venue, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		assignments := make(map[string]interface{}, len(update)+1)
		for column, value := range update {
			assignments[column] = value
		}
		now := d.now()
		if now.Before(venue.CreatedAt) {
			now = venue.CreatedAt
		}
		assignments["updated_at"] = now

		if err := tx.Model(&models.Venue{}).Where("id = ?", id).Updates(assignments).Error; err != nil {
			return err
		}

		var reloaded models.Venue
		if err := tx.First(&reloaded, id).Error; err != nil {
			return err
		}
		updated = &reloaded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update venue %d: %w", id, err)
	}
	return updated, nil
}

// FilterVenues returns venues matching every supplied criterion
func (d *Database) FilterVenues(filter models.VenueFilter) ([]models.Venue, error) {
	query := d.db.Model(&models.Venue{})

	if status, ok := filter.EffectiveBusinessStatus(); ok {
		query = query.Where("business_status = ?", status)
	}
	if models.Active(filter.Ward) {
		query = query.Where("search_ward = ?", filter.Ward)
	}
	if models.Active(filter.PostcodeSector) {
		query = query.Where("search_postcode_sector = ?", filter.PostcodeSector)
	}
	if models.Active(filter.Amenity) {
		query = query.Where("amenity = ?", filter.Amenity)
	}
	if models.Active(filter.Cuisine) {
		query = query.Where("cuisine = ?", filter.Cuisine)
	}
	if filter.MinRating > 0 {
		query = query.Where("google_rating >= ?", filter.MinRating)
	}
	if filter.Visited != nil {
		query = query.Where("visited = ?", *filter.Visited)
	}
	if filter.InterestStatus != nil && *filter.InterestStatus != "" {
		query = query.Where("interest_status = ?", string(*filter.InterestStatus))
	}

	var venues []models.Venue
	if err := query.Order("id").Find(&venues).Error; err != nil {
		return nil, fmt.Errorf("failed to filter venues: %w", err)
	}
	return venues, nil
}

// GetStatistics counts over the whole collection, ignoring business status.
func (d *Database) GetStatistics() (models.VenueStats, error) {
	var row struct {
		Total         int64
		Visited       int64
		Interested    int64
		NotInterested int64
	}

	err := d.db.Model(&models.Venue{}).Select(`
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN visited = ? THEN 1 ELSE 0 END), 0) AS visited,
		COALESCE(SUM(CASE WHEN interest_status = ? THEN 1 ELSE 0 END), 0) AS interested,
		COALESCE(SUM(CASE WHEN interest_status = ? THEN 1 ELSE 0 END), 0) AS not_interested
	`, true, string(models.Interested), string(models.NotInterested)).Scan(&row).Error
	if err != nil {
		return models.VenueStats{}, fmt.Errorf("failed to query statistics: %w", err)
	}

	return models.NewVenueStats(row.Total, row.Visited, row.Interested, row.NotInterested), nil
}

// GetWardStatistics returns one row per ward, venues without a ward
// grouped under a nil ward, largest wards first.
func (d *Database) GetWardStatistics() ([]models.WardStats, error) {
	var stats []models.WardStats

	err := d.db.Model(&models.Venue{}).Select(`
		search_ward AS ward,
		COUNT(id) AS total,
		SUM(CASE WHEN visited = ? THEN 1 ELSE 0 END) AS visited,
		SUM(CASE WHEN interest_status = ? THEN 1 ELSE 0 END) AS interested,
		SUM(CASE WHEN interest_status = ? THEN 1 ELSE 0 END) AS not_interested
	`, true, string(models.Interested), string(models.NotInterested)).
		Group("search_ward").
		Order("total DESC, ward ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query ward statistics: %w", err)
	}
	return stats, nil
}

// distinctColumns are the columns offered as filter pickers
var distinctColumns = map[string]struct{}{
	"search_ward":            {},
	"search_postcode_sector": {},
	"amenity":                {},
	"cuisine":                {},
}

// GetDistinctValues returns the sorted non-empty values of a picker column
func (d *Database) GetDistinctValues(column string) ([]string, error) {
	if _, ok := distinctColumns[column]; !ok {
		return nil, fmt.Errorf("unsupported distinct column: %s", column)
	}

	var values []string
	err := d.db.Model(&models.Venue{}).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", column, err)
	}
	return values, nil
}

// ResetSurveyData clears survey fields on every venue and keeps the rows.
func (d *Database) ResetSurveyData() (int64, error) {
	assignments := map[string]interface{}(models.SurveyResetUpdate())
	assignments["updated_at"] = d.now()

	result := d.db.Model(&models.Venue{}).Where("1 = 1").Updates(assignments)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reset survey data: %w", result.Error)
	}

	d.logger.WithField("venues", result.RowsAffected).Info("Reset survey data")
	return result.RowsAffected, nil
}
