package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

// DefaultJWTSecret is only acceptable for local development.
const DefaultJWTSecret = "your-secret-key-change-this-in-production"

type Config struct {
	Port              string
	BoardColumns      int
	BoardRows         int
	MaxBoardColumns   int
	MaxBoardRows      int
	PlayerTokens      []domain.Token
	StrictInvariants  bool
	HighScoreCapacity int

	LogLevel  string
	LogPretty bool

	DatabaseURL          string
	DBDriver             string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int

	RedisURL         string
	RedisPassword    string
	RedisSnapshotTTL time.Duration

	JWTSecret        string
	TableTokenTTL    time.Duration
	TableIdleTimeout time.Duration
	CleanupInterval  time.Duration
	AllowedOrigins   []string
}

func LoadConfig() *Config {
	tokens := GetEnvAsList("PLAYER_TOKENS", []string{"yellow", "red"})
	playerTokens := make([]domain.Token, len(tokens))
	for i, t := range tokens {
		playerTokens[i] = domain.Token(t)
	}

	// Frontend & CORS
	allowedOrigins := append([]string{"http://localhost:5173"}, GetEnvAsList("ALLOWED_ORIGINS", nil)...)

	return &Config{
		Port:              GetEnv("PORT", "8080"),
		BoardColumns:      GetEnvAsInt("BOARD_COLUMNS", domain.DefaultColumns),
		BoardRows:         GetEnvAsInt("BOARD_ROWS", domain.DefaultRows),
		MaxBoardColumns:   GetEnvAsInt("MAX_BOARD_COLUMNS", 64),
		MaxBoardRows:      GetEnvAsInt("MAX_BOARD_ROWS", 64),
		PlayerTokens:      playerTokens,
		StrictInvariants:  GetEnvAsBool("STRICT_INVARIANTS", false),
		HighScoreCapacity: GetEnvAsInt("HIGH_SCORE_CAPACITY", domain.DefaultHighScoreCapacity),

		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogPretty: GetEnvAsBool("LOG_PRETTY", false),

		// Database Config
		DatabaseURL:          GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", "")),
		DBDriver:             GetEnv("DB_DRIVER", "pgx"),
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),

		RedisURL:         GetEnv("REDIS_URL", ""),
		RedisPassword:    GetEnv("REDIS_PASSWORD", ""),
		RedisSnapshotTTL: GetEnvAsDuration("REDIS_SNAPSHOT_TTL", 24*time.Hour),

		// Security
		JWTSecret:        GetEnv("JWT_SECRET", DefaultJWTSecret),
		TableTokenTTL:    GetEnvAsDuration("TABLE_TOKEN_TTL", 12*time.Hour),
		TableIdleTimeout: GetEnvAsDuration("TABLE_IDLE_TIMEOUT", time.Hour),
		CleanupInterval:  GetEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
		AllowedOrigins:   allowedOrigins,
	}
}

// Validate catches a bad board, player or timing setup at startup.
func (c *Config) Validate() error {
	if err := domain.ValidateGeometry(c.BoardColumns, c.BoardRows); err != nil {
		return errors.Wrap(err, "BOARD_COLUMNS/BOARD_ROWS")
	}
	if err := domain.ValidateGeometry(c.MaxBoardColumns, c.MaxBoardRows); err != nil {
		return errors.Wrap(err, "MAX_BOARD_COLUMNS/MAX_BOARD_ROWS")
	}
	if c.BoardColumns > c.MaxBoardColumns || c.BoardRows > c.MaxBoardRows {
		return errors.Wrapf(domain.ErrInvalidGeometry, "default %dx%d board exceeds the %dx%d limit",
			c.BoardColumns, c.BoardRows, c.MaxBoardColumns, c.MaxBoardRows)
	}
	if len(c.PlayerTokens) < 2 {
		return errors.Wrapf(domain.ErrInvalidPlayerList, "PLAYER_TOKENS has %d entries, need at least 2", len(c.PlayerTokens))
	}
	seen := make(map[domain.Token]bool)
	for _, t := range c.PlayerTokens {
		if seen[t] {
			return errors.Wrapf(domain.ErrInvalidPlayerList, "PLAYER_TOKENS repeats %q", t)
		}
		seen[t] = true
	}
	if c.DBDriver != "pgx" && c.DBDriver != "postgres" {
		return errors.Errorf("DB_DRIVER must be pgx or postgres, got %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	// LOG_PRETTY doubles as the development switch
	if c.JWTSecret == DefaultJWTSecret && !c.LogPretty {
		return errors.New("JWT_SECRET must be set outside development")
	}
	if c.CleanupInterval <= 0 {
		return errors.Errorf("CLEANUP_INTERVAL must be positive, got %s", c.CleanupInterval)
	}
	if c.TableIdleTimeout <= 0 {
		return errors.Errorf("TABLE_IDLE_TIMEOUT must be positive, got %s", c.TableIdleTimeout)
	}
	return nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).Msg("invalid integer value, using default")
		return defaultValue
	}
	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Bool("default", defaultValue).Msg("invalid boolean value, using default")
		return defaultValue
	}
	return value
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Dur("default", defaultValue).Msg("invalid duration value, using default")
		return defaultValue
	}
	return value
}

// GetEnvAsList splits a comma separated value, dropping blank entries.
func GetEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
