package config

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBPath       string
	CSRFKey      []byte
	SessionKey   []byte
	CookieDomain string
	CookieSecure bool

	// Payment gateway (M-Pesa STK push style API).
	MpesaBaseURL string
	MpesaTimeout time.Duration

	// Status poller budget: PollAttempts queries, one every PollInterval.
	PollInterval time.Duration
	PollAttempts int

	// How long the payment-confirmed state stays visible before the cart
	// is cleared.
	ConfirmDelay time.Duration

	// Local object storage for receipts and product images.
	UploadDir     string
	UploadBaseURL string

	// Optional Redis mirror for in-flight checkout attempts. Empty disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8585"),
		DBPath:        getEnv("DB_PATH", "./beehives.db"),
		CookieDomain:  getEnv("COOKIE_DOMAIN", ""),
		CookieSecure:  getEnv("COOKIE_SECURE", "false") == "true",
		MpesaBaseURL:  getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke/api/mpesa"),
		MpesaTimeout:  getDuration("MPESA_TIMEOUT", 30*time.Second),
		PollInterval:  getDuration("POLL_INTERVAL", 5*time.Second),
		PollAttempts:  getInt("POLL_ATTEMPTS", 10),
		ConfirmDelay:  getDuration("CONFIRM_DELAY", 5*time.Second),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		UploadBaseURL: getEnv("UPLOAD_BASE_URL", "/files"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
	}

	cfg.CSRFKey = loadKey("CSRF_KEY")
	cfg.SessionKey = loadKey("SESSION_KEY")

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", os.Getenv("PORT"))
		cfg.Port = "8585"
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 10
	}

	return cfg, nil
}

// loadKey reads a base64 key from the environment, falling back to a random
// one. Random keys invalidate sessions on restart, so production must set both.
func loadKey(name string) []byte {
	keyStr := os.Getenv(name)
	if keyStr == "" {
		slog.Warn("Key not set, generating a random one. Set it in production!", "env", name)
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(keyStr)
	if err != nil || len(decoded) < 32 {
		slog.Warn("Key is invalid or too short (min 32 bytes). Generating a random one.", "env", name)
		return generateRandomBytes(32)
	}
	return decoded
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("Invalid integer environment variable, using default", "env", key, "value", value)
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("Invalid duration environment variable, using default", "env", key, "value", value)
	}
	return defaultValue
}

func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Failed to read random bytes", "error", err)
		fallbackKey := "fallback-insecure-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		if len(fallbackKey) < n {
			paddedKey := make([]byte, n)
			copy(paddedKey, fallbackKey)
			return paddedKey
		}
		return []byte(fallbackKey)[:n]
	}
	return b
}
