package config

import (
	"os"
	"strconv"

	"pulsefeed/internal/utils"
)

type Config struct {
	DatabaseURL    string
	Port           string
	StoragePath    string
	PasswordSalt   string
	HashIterations int
	AdminLogin     string
	AdminPassword  string
}

// Load reads configuration from environment variables with local-dev
// fallbacks. Call godotenv.Load first if a .env file should be honored.
func Load() Config {
	cfg := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Port:           getenv("PORT", "8080"),
		StoragePath:    getenv("STORAGE_PATH", "./storage"),
		PasswordSalt:   getenv("PASSWORD_HASH_SALT", "salt_change_me"),
		HashIterations: getenvInt("PASSWORD_HASH_ITERATIONS", 10000),
		AdminLogin:     os.Getenv("ADMIN_LOGIN"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}
	if cfg.DatabaseURL == "" {
		// Fallback for local dev if not set
		cfg.DatabaseURL = "host=localhost user=postgres password=postgres dbname=pulsefeed port=5432 sslmode=disable"
	}
	return cfg
}

// HashParams returns the password hashing parameters for this deployment.
func (c Config) HashParams() utils.HashParams {
	return utils.HashParams{Salt: []byte(c.PasswordSalt), Iterations: c.HashIterations}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
