package main

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"venuesurvey/server/config"
	"venuesurvey/server/internal/api"
	"venuesurvey/server/internal/database"
	"venuesurvey/server/internal/geocoding"
	"venuesurvey/server/internal/survey"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	logger.Infof("Using database at: %s", cfg.DatabasePath)

	// Initialize database
	db, err := database.NewDatabase(cfg.DatabasePath, logger, database.WithBatchSize(cfg.Import.BatchSize))
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	area := config.DefaultArea()

	cacheDir := cfg.Geocoder.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "venuesurvey", "geocode_cache")
	}
	geocoder := geocoding.NewGeocoder(logger, geocoding.Options{
		BaseURL:      cfg.Geocoder.BaseURL,
		CountryCodes: cfg.Geocoder.CountryCodes,
		Country:      area.Country,
		UserAgent:    cfg.Geocoder.UserAgent,
		Delay:        cfg.Geocoder.Delay,
		CacheDir:     cacheDir,
	})

	svc := survey.NewService(db, logger, cfg.Export.FilenamePrefix)
	handler := api.NewHandler(db, svc, geocoder, logger, area.Name)

	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, handler, cfg.Server.AllowOrigins)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
