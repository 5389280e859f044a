package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	AuthHMACSecret string
	TokenTTLHours  int

	// Locales question/option text is fanned out to on create/update.
	Locales       []string
	DefaultLocale string

	EnableGoogleAuth bool
	GoogleClientID   string

	CORSOrigins []string
}

// FromEnv loads .env (if present) and builds the runtime config.
func FromEnv() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file, reading from system environment")
	}
	locales := csvOr("APP_LOCALES", "en,ar")
	return Config{
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		PublicURL: os.Getenv("PUBLIC_URL"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTLHours:  envInt("TOKEN_TTL_HOURS", 8),

		Locales:       locales,
		DefaultLocale: envOr("APP_DEFAULT_LOCALE", locales[0]),

		EnableGoogleAuth: envBool("ENABLE_GOOGLE_AUTH", false),
		GoogleClientID:   os.Getenv("GOOGLE_CLIENT_ID"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
