package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Env      string
	HTTPPort string
	DataDir  string
	RateRPS  int

	// inbound credentials for the payment processor
	PaynetLogin          string
	PaynetPassword       string
	PaynetPasswordBcrypt string

	// upstream fleet API
	FleetBaseURL    string
	ParkID          string
	ClientID        string
	APIKey          string
	InsecureTLS     bool
	UpstreamTimeout time.Duration

	CommissionPercent decimal.Decimal
	SyncInterval      time.Duration

	TelegramBotToken    string
	TelegramAdminChatID string
}

func Load() Config {
	return Config{
		Env:      get("APP_ENV", "dev"),
		HTTPPort: get("HTTP_PORT", "7153"),
		DataDir:  get("DATA_DIR", "./data"),
		RateRPS:  getInt("RATE_RPS", 100),

		PaynetLogin:          get("PAYNET_LOGIN", ""),
		PaynetPassword:       get("PAYNET_PASSWORD", ""),
		PaynetPasswordBcrypt: get("PAYNET_PASSWORD_BCRYPT", ""),

		FleetBaseURL:    get("FLEET_API_BASE_URL", "https://fleet-api.taxi.yandex.net"),
		ParkID:          get("YANDEX_PARK_ID", ""),
		ClientID:        get("YANDEX_CLIENT_ID", ""),
		APIKey:          get("YANDEX_API_KEY", ""),
		InsecureTLS:     getBool("FLEET_INSECURE_TLS", false),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 15*time.Second),

		CommissionPercent: getDecimal("COMMISSION_PERCENT", "4.5"),
		SyncInterval:      getDuration("SYNC_INTERVAL", 10*time.Minute),

		TelegramBotToken:    get("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChatID: get("TELEGRAM_ADMIN_CHAT_ID", ""),
	}
}

func get(key, def string) string { v := os.Getenv(key); if v == "" { return def }; return v }

func getInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func getBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}

func getDecimal(key, def string) decimal.Decimal {
	if d, err := decimal.NewFromString(os.Getenv(key)); err == nil {
		return d
	}
	return decimal.RequireFromString(def)
}
