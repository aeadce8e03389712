package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by ZEBRA_ENV (or .env by default), then its
// .secret sidecar if present. Settings are plain environment variables read
// through the accessors below.
func Load() error {
	envFile := os.Getenv("ZEBRA_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DBPath is the sqlite file for sessions and results.
func DBPath() string {
	return getenv("DB_PATH", "data/zebra.db")
}

// DataDir is where finished runs write their CSV and XML files.
func DataDir() string {
	return getenv("DATA_DIR", "data")
}

// AdminKey, when set, is required as a bearer token on POST requests.
func AdminKey() string {
	return os.Getenv("ADMIN_KEY")
}

// RateLimitRPS returns requests per second allowed per client.
// Defaults to 20 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 20
	}
	return rps
}

// RateLimitBurst defaults to twice the per-second rate.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return int(2 * RateLimitRPS())
	}
	return burst
}

func LogLevel() string {
	return getenv("LOG_LEVEL", "info")
}

// APIURL is the session server the tuner talks to.
func APIURL() string {
	return getenv("ZEBRA_API_URL", "http://localhost:8080")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
