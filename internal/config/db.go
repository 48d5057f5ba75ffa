package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver string

	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifeTime int // минут

	// DSN для sqlite (локальный запуск без Postgres).
	SQLitePath string

	// Уровень изоляции транзакций записи календаря: serializable | repeatable read | read committed.
	TxIsolation  string
	TxMaxRetries int

	AutoMigrate          bool
	ExclusionConstraints bool
}

func LoadDBConfig() (*DBConfig, error) {
	cfg := &DBConfig{
		Driver:               strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		Host:                 getEnv("DB_HOST", "postgres"),
		User:                 getEnv("DB_USER", "booking"),
		Password:             getEnv("DB_PASSWORD", "booking"),
		Name:                 getEnv("DB_NAME", "booking_db"),
		SSLMode:              getEnv("DB_SSLMODE", "disable"),
		TimeZone:             getEnv("DB_TIMEZONE", "UTC"),
		Port:                 getEnvInt("DB_PORT", 5432),
		MaxOpenConns:         getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:         getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifeTime:      getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30),
		SQLitePath:           getEnv("DB_SQLITE_PATH", "file:salon.db?cache=shared"),
		TxIsolation:          strings.ToLower(getEnv("DB_TX_ISOLATION", "serializable")),
		TxMaxRetries:         getEnvInt("DB_TX_MAX_RETRIES", 3),
		AutoMigrate:          getEnvBool("DB_AUTO_MIGRATE", true),
		ExclusionConstraints: getEnvBool("DB_EXCLUSION_CONSTRAINTS", false),
	}

	// минимальная валидация
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.Host == "" || cfg.User == "" || cfg.Name == "" {
			return nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("invalid DB config: sqlite path must not be empty")
		}
	default:
		return nil, fmt.Errorf("invalid DB config: unknown driver %q", cfg.Driver)
	}

	switch cfg.TxIsolation {
	case "serializable", "repeatable read", "read committed":
	default:
		return nil, fmt.Errorf("invalid DB config: unknown isolation level %q", cfg.TxIsolation)
	}
	if cfg.TxMaxRetries < 0 {
		cfg.TxMaxRetries = 0
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
