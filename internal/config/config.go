package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// NYLoc is the exchange time zone. Daily runs are anchored to the US session,
// so all calendar math uses this location.
var NYLoc = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*3600)
	}
	return loc
}()

// Config holds process-level settings sourced from the environment.
// Strategy parameters live in Policy (policy.go), not here.
type Config struct {
	DataDir    string
	PolicyFile string

	LogLevel      string
	MaxLogSizeMB  int64
	MaxLogBackups int

	Benchmark    string // Symbol the 1Y alpha is measured against
	UniverseSize int    // How many S&P 500 constituents to scan
	FetchWorkers int    // Bounded pool size for signal fetching
	FetchPerSec  float64
}

// Load reads a .env file when present and assembles the configuration with
// defaults for everything optional. Broker credentials are validated
// separately (CheckMarketCredentials) because the confirm flow works offline.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		DataDir:       getEnvString("PREMARKET_DATA_DIR", "data"),
		PolicyFile:    getEnvString("PREMARKET_POLICY_FILE", "policy.yaml"),
		LogLevel:      getEnvString("PREMARKET_LOG_LEVEL", "INFO"),
		MaxLogSizeMB:  int64(getEnvAsInt("PREMARKET_MAX_LOG_SIZE_MB", 5)),
		MaxLogBackups: getEnvAsInt("PREMARKET_MAX_LOG_BACKUPS", 3),
		Benchmark:     getEnvString("PREMARKET_BENCHMARK", "SPY"),
		UniverseSize:  getEnvAsInt("PREMARKET_UNIVERSE_SIZE", 50),
		FetchWorkers:  getEnvAsInt("PREMARKET_FETCH_WORKERS", 8),
		FetchPerSec:   getEnvAsFloat64("PREMARKET_FETCH_PER_SEC", 5),
	}
}

// CheckMarketCredentials verifies the Alpaca environment variables needed by
// every command that touches market data.
func (c *Config) CheckMarketCredentials() error {
	var missing []string
	for _, key := range []string{"APCA_API_KEY_ID", "APCA_API_SECRET_KEY"} {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}
