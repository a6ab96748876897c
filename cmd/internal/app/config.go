package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string // json | pretty

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// UsersFile is a YAML users document loaded at startup.
	UsersFile string

	// DatabaseURL enables the read-only Postgres user source.
	DatabaseURL string
	DBSchema    string
	DBMaxConns  int32
	DBMinConns  int32

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	MetricsEnabled bool

	// Security policy:
	// RequireArgon2id refuses to start unless new hashes use Argon2id.
	// RequireSecureCookies refuses to start with non-Secure session cookies.
	RequireArgon2id      bool
	RequireSecureCookies bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("GATEHOUSE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("GATEHOUSE_LOG_LEVEL", "info"),
		LogFormat: EnvString("GATEHOUSE_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("GATEHOUSE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("GATEHOUSE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("GATEHOUSE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("GATEHOUSE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("GATEHOUSE_HTTP_MAX_HEADER_BYTES", 1<<20),

		UsersFile: EnvString("GATEHOUSE_USERS_FILE", ""),

		DatabaseURL: EnvString("GATEHOUSE_DATABASE_URL", ""),
		DBSchema:    EnvString("GATEHOUSE_DB_SCHEMA", "gatehouse"),
		DBMaxConns:  EnvInt32("GATEHOUSE_DB_MAX_CONNS", 4),
		DBMinConns:  EnvInt32("GATEHOUSE_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("GATEHOUSE_READINESS_REQUIRE_DB", false),

		MetricsEnabled: EnvBool("GATEHOUSE_METRICS_ENABLED", true),

		RequireArgon2id:      EnvBool("GATEHOUSE_REQUIRE_ARGON2ID", false),
		RequireSecureCookies: EnvBool("GATEHOUSE_REQUIRE_SECURE_COOKIES", false),
	}
}
