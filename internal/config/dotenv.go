package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

const (
	// CartVisibilityLive broadcasts every player's in-progress cart to the
	// whole room during the styling phase.
	CartVisibilityLive = "live"
	// CartVisibilityHidden redacts other players' carts until voting starts.
	CartVisibilityHidden = "hidden"
)

type Config struct {
	MaxPlayers               int
	MinPlayers               int
	StyleMinutes             int
	VotingMinutes            int
	RoomTimeoutMinutes       int
	LeaseTTLSeconds          int
	SweepIntervalSeconds     int
	CartVisibility           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		MaxPlayers:               4,
		MinPlayers:               2,
		StyleMinutes:             5,
		VotingMinutes:            2,
		RoomTimeoutMinutes:       10,
		LeaseTTLSeconds:          30,
		SweepIntervalSeconds:     60,
		CartVisibility:           CartVisibilityLive,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("MAX_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxPlayers = value
		}
	}
	if raw := os.Getenv("MIN_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MinPlayers = value
		}
	}
	if raw := os.Getenv("STYLE_MINUTES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.StyleMinutes = value
		}
	}
	if raw := os.Getenv("VOTING_MINUTES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.VotingMinutes = value
		}
	}
	if raw := os.Getenv("ROOM_TIMEOUT_MINUTES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RoomTimeoutMinutes = value
		}
	}
	if raw := os.Getenv("LEASE_TTL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.LeaseTTLSeconds = value
		}
	}
	if raw := os.Getenv("SWEEP_INTERVAL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.SweepIntervalSeconds = value
		}
	}
	if raw := os.Getenv("CART_VISIBILITY"); raw == CartVisibilityLive || raw == CartVisibilityHidden {
		cfg.CartVisibility = raw
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	return cfg
}
