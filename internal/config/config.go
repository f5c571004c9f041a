// Package config loads the simulation core's runtime configuration from
// environment variables, the way the teacher's params.LoadFromEnv does:
// defaults, then .env file, then real environment variables win.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is every knob the core and its API surface read at startup.
type Config struct {
	APIAddr           string
	DevMode           bool
	WorldSeed         uint32
	RulesetVersion    string
	StorePath         string
	LogFile           string
	PerTickActionLimit int
}

// Default returns the out-of-the-box devnet configuration.
func Default() Config {
	return Config{
		APIAddr:            ":8080",
		DevMode:            true,
		WorldSeed:          1,
		RulesetVersion:     "season1_dark_grid",
		StorePath:          "data/darkgrid",
		LogFile:            "",
		PerTickActionLimit: 3,
	}
}

// LoadFromEnv loads .env (if present) then overlays process environment
// variables onto Default(). envPath == "" loads ".env" from the working
// directory; a missing file is not an error.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.APIAddr = v
	}
	if v := os.Getenv("DEV_MODE"); v != "" {
		cfg.DevMode = v == "true"
	}
	if v := os.Getenv("WORLD_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.WorldSeed = uint32(n)
		}
	}
	if v := os.Getenv("RULESET_VERSION"); v != "" {
		cfg.RulesetVersion = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("PER_TICK_ACTION_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PerTickActionLimit = n
		}
	}

	return cfg
}
