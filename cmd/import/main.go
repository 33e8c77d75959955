package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"venuesurvey/server/config"
	"venuesurvey/server/internal/csvio"
	"venuesurvey/server/internal/database"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	var (
		csvPath   = flag.String("csv", "", "path to the venue CSV")
		dbPath    = flag.String("db", cfg.DatabasePath, "path to the SQLite venue store")
		batchSize = flag.Int("batch", cfg.Import.BatchSize, "venues inserted per statement")
		verbose   = flag.Bool("v", false, "log every rejected row")
	)
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := database.NewDatabase(*dbPath, logger, database.WithBatchSize(*batchSize))
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open CSV")
	}
	defer file.Close()

	records, err := csvio.ReadRecords(file)
	if err != nil {
		logger.WithError(err).Fatal("Failed to read CSV")
	}

	result, err := db.ImportFromCSV(records)
	if err != nil {
		logger.WithError(err).Fatal("Import failed")
	}

	logger.WithFields(logrus.Fields{
		"file":     *csvPath,
		"imported": result.Imported,
		"errors":   result.Errors,
	}).Info("Import complete")
}
