// Package config loads all bot configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rpdbot/internal/model"
)

// defaultAssets mirrors the original tracked pair: an NSE equity over Yahoo
// and BTC over Binance.
const defaultAssets = "RELIANCE:yahoo:RELIANCE.NS:15m:2:17:65:40,BITCOIN:binance:BTCUSDT:1h:2:14:70:30"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Telegram delivery (empty token falls back to log-only alerts)
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string

	// Polling cadence
	PollInterval time.Duration // between full cycles
	AssetDelay   time.Duration // between assets within a cycle
	FetchLimit   int           // candles requested per fetch

	// Tracked assets
	Assets []model.Asset

	// Infrastructure
	StatusAddr      string // keep-alive + metrics + admin HTTP server
	SQLitePath      string
	RedisAddr       string // empty disables the Redis publisher
	RedisPassword   string
	AdminTOTPSecret string // empty disables /pause and /resume
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honored if present.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	assets, err := ParseAssets(getEnv("ASSETS", defaultAssets), getEnvFloat("MIN_PROBABILITY", 75))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &Config{
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		PollInterval: time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 300)) * time.Second,
		AssetDelay:   time.Duration(getEnvInt("ASSET_DELAY_SECONDS", 3)) * time.Second,
		FetchLimit:   getEnvInt("FETCH_LIMIT", 200),

		Assets: assets,

		StatusAddr:      getEnv("STATUS_ADDR", ":10000"),
		SQLitePath:      getEnv("SQLITE_PATH", "data/signals.db"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		AdminTOTPSecret: getEnv("ADMIN_TOTP_SECRET", ""),
	}, nil
}

// ParseAssets parses the compact comma-separated asset table:
//
//	NAME:source:symbol:interval:fractalStrength:rsiLen:rsiTop:rsiBot[:minProb]
//
// minProb falls back to defaultMinProb when the ninth field is omitted.
func ParseAssets(s string, defaultMinProb float64) ([]model.Asset, error) {
	var assets []model.Asset
	seen := make(map[string]bool)

	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 8 && len(parts) != 9 {
			return nil, fmt.Errorf("asset %q: want 8 or 9 colon-separated fields, got %d", entry, len(parts))
		}

		a := model.Asset{
			Name:           strings.TrimSpace(parts[0]),
			Source:         strings.ToLower(strings.TrimSpace(parts[1])),
			Symbol:         strings.TrimSpace(parts[2]),
			Interval:       strings.TrimSpace(parts[3]),
			MinProbability: defaultMinProb,
		}
		if a.Name == "" || a.Source == "" || a.Symbol == "" || a.Interval == "" {
			return nil, fmt.Errorf("asset %q: empty field", entry)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("asset %q: duplicate name %s", entry, a.Name)
		}
		seen[a.Name] = true

		var err error
		if a.FractalStrength, err = strconv.Atoi(parts[4]); err != nil || a.FractalStrength < 1 {
			return nil, fmt.Errorf("asset %q: bad fractal strength %q", entry, parts[4])
		}
		if a.RSILength, err = strconv.Atoi(parts[5]); err != nil || a.RSILength < 1 {
			return nil, fmt.Errorf("asset %q: bad RSI length %q", entry, parts[5])
		}
		if a.RSITop, err = strconv.ParseFloat(parts[6], 64); err != nil {
			return nil, fmt.Errorf("asset %q: bad RSI top %q", entry, parts[6])
		}
		if a.RSIBot, err = strconv.ParseFloat(parts[7], 64); err != nil {
			return nil, fmt.Errorf("asset %q: bad RSI bot %q", entry, parts[7])
		}
		if len(parts) == 9 {
			if a.MinProbability, err = strconv.ParseFloat(parts[8], 64); err != nil {
				return nil, fmt.Errorf("asset %q: bad min probability %q", entry, parts[8])
			}
		}

		assets = append(assets, a)
	}

	if len(assets) == 0 {
		return nil, fmt.Errorf("no assets configured")
	}
	return assets, nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}
