package config

import (
	"os"
	"strings"
)

// Config is built once at startup and handed to each component.
// Nothing outside this package reads the environment directly.
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Postgres PostgresConfig
}

type ServerConfig struct {
	Port           string
	Environment    string
	DontRecover    string
	AllowedOrigins []string
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     string
	RefreshTTL    string
	// ScryptSalt is a single server-wide salt, matching the reference
	// behavior. A per-user salt would be stronger; kept as-is on purpose.
	ScryptSalt string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getenv("PORT", "3000"),
			Environment:    getenv("NODE_ENV", "production"),
			DontRecover:    os.Getenv("DONT_RECOVER_FROM_ERROR"),
			AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Auth: AuthConfig{
			AccessSecret:  os.Getenv("JWT_SECRET"),
			RefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
			AccessTTL:     getenv("JWT_ACCESS_TOKEN_EXPIRES", "300s"),
			RefreshTTL:    getenv("JWT_REFRESH_TOKEN_EXPIRES", "72h"),
			ScryptSalt:    os.Getenv("SCRYPT_SALT"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
	}
}

// IsDevelopment reports whether auth failures may include detail in
// responses.
func (c ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
