// Package config loads service configuration from the environment, with a
// .env file honored when present.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server configures a game server instance.
type Server struct {
	Port        string
	Store       string // memory, redis, or postgres
	RedisURL    string
	DatabaseURL string
	RoomTTL     time.Duration // redis store only
}

// Router configures the front-door router.
type Router struct {
	Port           string
	Backends       []string
	ProbeTimeout   time.Duration
	ForwardTimeout time.Duration
	SweepInterval  time.Duration // 0 disables the background sweep
}

func LoadServer() Server {
	_ = godotenv.Load()
	return Server{
		Port:        getEnv("PORT", "5001"),
		Store:       getEnv("STORE", "memory"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RoomTTL:     getEnvDuration("ROOM_TTL", 24*time.Hour),
	}
}

func LoadRouter() Router {
	_ = godotenv.Load()
	return Router{
		Port:           getEnv("PORT", "5000"),
		Backends:       backendsFromEnv(),
		ProbeTimeout:   getEnvDuration("PROBE_TIMEOUT", 2*time.Second),
		ForwardTimeout: getEnvDuration("FORWARD_TIMEOUT", 5*time.Second),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", 0),
	}
}

// backendsFromEnv reads a comma-separated BACKENDS list, falling back to the
// numbered GAME_SERVER_n_URL variables for two-backend deployments.
func backendsFromEnv() []string {
	if v := os.Getenv("BACKENDS"); v != "" {
		var out []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, strings.TrimRight(b, "/"))
			}
		}
		return out
	}
	return []string{
		getEnv("GAME_SERVER_1_URL", "http://localhost:5001"),
		getEnv("GAME_SERVER_2_URL", "http://localhost:5002"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
