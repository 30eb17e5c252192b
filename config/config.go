package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Counter store backends selectable with COUNTER_BACKEND.
const (
	BackendDatabase = "database"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `mapstructure:"APPNAME"`
	AppEnv  string `mapstructure:"APPENV"`
	AppPort uint16 `mapstructure:"APPPORT"`
	GinMode string `mapstructure:"GINMODE"`
	DBHost  string `mapstructure:"DBHOST"`
	DBPort  uint16 `mapstructure:"DBPORT"`
	DBName  string `mapstructure:"DBNAME"`
	DBUSER  string `mapstructure:"DBUSER"`
	DBPass  string `mapstructure:"DBPASS"`

	CounterBackend string `mapstructure:"COUNTER_BACKEND"`
	PostgresURL    string `mapstructure:"POSTGRES_URL"`
	PGMaxConns     int32  `mapstructure:"PG_MAX_CONNS"`
	PGMinConns     int32  `mapstructure:"PG_MIN_CONNS"`

	RedisEnabled  bool   `mapstructure:"REDIS_ENABLED"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	NumberingPolicyFile   string        `mapstructure:"NUMBERING_POLICY_FILE"`
	SequenceRetryAttempts int           `mapstructure:"SEQUENCE_RETRY_ATTEMPTS"`
	SequenceRetryDelay    time.Duration `mapstructure:"SEQUENCE_RETRY_DELAY"`
	SyncCountersOnStart   bool          `mapstructure:"SYNC_COUNTERS_ON_START"`

	LogLevel    string        `mapstructure:"LOG_LEVEL"`
	GeoIPDBPath string        `mapstructure:"GEOIP_DB_PATH"`
	JWTSecret   string        `mapstructure:"JWTSECRET"`
	RateLimit   int           `mapstructure:"RATE_LIMIT"`
	RateWindow  time.Duration `mapstructure:"RATE_WINDOW"`
}

// IsTest reports whether the application runs against the in-memory test database.
func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

// IsProduction reports whether APPENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

var (
	config *Config
	once   sync.Once
)

var configKeys = []string{
	"APPNAME", "APPENV", "APPPORT", "GINMODE",
	"DBHOST", "DBPORT", "DBNAME", "DBUSER", "DBPASS",
	"COUNTER_BACKEND", "POSTGRES_URL", "PG_MAX_CONNS", "PG_MIN_CONNS",
	"REDIS_ENABLED", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"NUMBERING_POLICY_FILE", "SEQUENCE_RETRY_ATTEMPTS", "SEQUENCE_RETRY_DELAY", "SYNC_COUNTERS_ON_START",
	"LOG_LEVEL", "GEOIP_DB_PATH", "JWTSECRET", "RATE_LIMIT", "RATE_WINDOW",
}

// LoadConfig loads the environment variables (and a .env file when present),
// and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env file is fine, the environment may carry everything.
		_ = godotenv.Load()

		cfg, err := readConfig()
		if err != nil {
			panic(err)
		}
		config = cfg
	})
	return config
}

// ResetConfigForTest drops the cached configuration so the next LoadConfig
// call rereads the environment.
func ResetConfigForTest() {
	config = nil
	once = sync.Once{}
}

func readConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APPNAME", "clinic-hms")
	v.SetDefault("APPENV", "development")
	v.SetDefault("APPPORT", 8080)
	v.SetDefault("GINMODE", "debug")
	v.SetDefault("DBHOST", "localhost")
	v.SetDefault("DBPORT", 3306)
	v.SetDefault("COUNTER_BACKEND", BackendDatabase)
	v.SetDefault("PG_MAX_CONNS", 10)
	v.SetDefault("PG_MIN_CONNS", 1)
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SEQUENCE_RETRY_ATTEMPTS", 3)
	v.SetDefault("SEQUENCE_RETRY_DELAY", "25ms")
	v.SetDefault("SYNC_COUNTERS_ON_START", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT", 20)
	v.SetDefault("RATE_WINDOW", "1m")

	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CounterBackend = strings.ToLower(strings.TrimSpace(cfg.CounterBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.CounterBackend {
	case BackendDatabase:
	case BackendRedis:
		if !c.RedisEnabled {
			return fmt.Errorf("COUNTER_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("COUNTER_BACKEND=postgres requires POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unknown COUNTER_BACKEND %q", c.CounterBackend)
	}
	if c.SequenceRetryAttempts < 1 {
		return fmt.Errorf("SEQUENCE_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// ConnectDatabase opens the application database. APPENV=test uses an
// in-memory SQLite database, anything else connects to MySQL.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	if cfg.IsTest() {
		db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}
