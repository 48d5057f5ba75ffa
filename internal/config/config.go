package config

import (
	"fmt"
	"time"

	"github.com/Leganyst/salon-booking/internal/calendar"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	DB       *DBConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	JWT      JWTConfig
	Business BusinessHours
}

type ServerConfig struct {
	AppEnv          string
	HTTPAddr        string
	GRPCAddr        string
	ShutdownTimeout time.Duration
	CORSOrigins     string
}

type LoggerConfig struct {
	Development bool
	Level       string
}

// RedisConfig — пустой Addr означает in-process блокировки.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	LockTTL     time.Duration
	LockRetries int
	LockBackoff time.Duration
}

// AMQPConfig — пустой URL отключает публикацию событий.
type AMQPConfig struct {
	URL   string
	Queue string
}

// JWTConfig — пустой секрет отключает проверку токенов (локальная разработка).
type JWTConfig struct {
	Secret string
}

// BusinessHours — окна по умолчанию, когда у сотрудника нет смены на дату.
type BusinessHours struct {
	Weekday calendar.Range
	Weekend calendar.Range
}

// Load собирает конфиг из окружения. .env к этому моменту уже загружен godotenv.
func Load() (*Config, error) {
	dbCfg, err := LoadDBConfig()
	if err != nil {
		return nil, err
	}

	business, err := loadBusinessHours()
	if err != nil {
		return nil, err
	}

	appEnv := getEnv("APP_ENV", "production")

	return &Config{
		Server: ServerConfig{
			AppEnv:          appEnv,
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:        getEnv("GRPC_ADDR", ":50051"),
			ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,
			CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
		},
		Logger: LoggerConfig{
			Development: appEnv == "development",
			Level:       getEnv("LOG_LEVEL", "info"),
		},
		DB: dbCfg,
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			LockTTL:     time.Duration(getEnvInt("REDIS_LOCK_TTL_MS", 5000)) * time.Millisecond,
			LockRetries: getEnvInt("REDIS_LOCK_RETRIES", 20),
			LockBackoff: time.Duration(getEnvInt("REDIS_LOCK_BACKOFF_MS", 50)) * time.Millisecond,
		},
		AMQP: AMQPConfig{
			URL:   getEnv("AMQP_URL", ""),
			Queue: getEnv("AMQP_QUEUE", "salon.calendar.events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Business: business,
	}, nil
}

func loadBusinessHours() (BusinessHours, error) {
	weekday, err := calendar.ParseRange(
		getEnv("BUSINESS_WEEKDAY_OPENING", "09:00"),
		getEnv("BUSINESS_WEEKDAY_CLOSING", "21:00"),
	)
	if err != nil {
		return BusinessHours{}, fmt.Errorf("invalid weekday business hours: %w", err)
	}

	weekend, err := calendar.ParseRange(
		getEnv("BUSINESS_WEEKEND_OPENING", "10:00"),
		getEnv("BUSINESS_WEEKEND_CLOSING", "19:00"),
	)
	if err != nil {
		return BusinessHours{}, fmt.Errorf("invalid weekend business hours: %w", err)
	}

	return BusinessHours{Weekday: weekday, Weekend: weekend}, nil
}
