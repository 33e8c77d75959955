package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Path of the SQLite venue store
	DatabasePath string `env:"DATABASE_PATH" envDefault:"database/venues.db"`

	Server struct {
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Comma separated origins allowed by CORS
		AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	}

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Import struct {
		// Number of venues inserted per statement
		BatchSize int `env:"IMPORT_BATCH_SIZE" envDefault:"100"`
	}

	Export struct {
		// Leading part of generated export filenames
		FilenamePrefix string `env:"EXPORT_PREFIX" envDefault:"bristol_venues"`
	}

	Geocoder struct {
		BaseURL      string        `env:"GEOCODER_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
		CountryCodes string        `env:"GEOCODER_COUNTRY_CODES" envDefault:"gb"`
		UserAgent    string        `env:"GEOCODER_USER_AGENT" envDefault:"VenueSurvey/1.0"`
		Delay        time.Duration `env:"GEOCODER_DELAY" envDefault:"1s"`
		CacheDir     string        `env:"GEOCODER_CACHE_DIR" envDefault:""`
	}
}

// LoadConfig reads a .env file when one exists, then parses the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
