package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BOOKING"

// devJWTSecret is only used when BOOKING_APP_ENV is explicitly "development".
const devJWTSecret = "dev-secret-change-me"

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the key/value connection string used by the GORM postgres driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DatabaseURL returns the URL form used by the migration runner.
func (c DatabaseConfig) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// JWTConfig holds access token verification settings.
type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
	// DevSecret is set when Secret is the built-in development fallback.
	DevSecret bool
}

// KafkaConfig holds broker and topic settings.
type KafkaConfig struct {
	Brokers       []string
	GroupPrefix   string
	BookingTopic  string
	ListingTopic  string
	ConsumerGroup string
}

// RedisConfig holds listing cache settings.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	ListingTTL time.Duration
}

// PricingConfig holds quote settings.
type PricingConfig struct {
	ServiceFeePercent int64
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	CORSOrigins []string
	DBConfig    DatabaseConfig
	JWTConfig   JWTConfig
	KafkaConfig KafkaConfig
	RedisConfig RedisConfig
	Pricing     PricingConfig
}

// IsDevelopment reports whether the service runs in a local development environment.
func (c *ServiceConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration from an optional .env file and BOOKING_* environment variables.
func Load() (*ServiceConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("service_port", "8083")
	v.SetDefault("app_env", "production")
	v.SetDefault("cors_origins", "http://localhost:3000")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "stays_booking")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")

	v.SetDefault("jwt.access_ttl", "15m")

	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.group_prefix", "")
	v.SetDefault("kafka.booking_topic", "booking.events")
	v.SetDefault("kafka.listing_topic", "listing.events")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.listing_ttl", "5m")

	v.SetDefault("pricing.service_fee_percent", 10)
	return v
}

// FromViper builds a ServiceConfig from an already-populated viper instance.
func FromViper(v *viper.Viper) (*ServiceConfig, error) {
	port := v.GetString("service_port")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	cfg := &ServiceConfig{
		Port:        port,
		AppEnv:      v.GetString("app_env"),
		CORSOrigins: splitCSV(v.GetString("cors_origins")),
		DBConfig: DatabaseConfig{
			Host:            v.GetString("db.host"),
			Port:            v.GetString("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			DBName:          v.GetString("db.name"),
			SSLMode:         v.GetString("db.sslmode"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		},
		JWTConfig: JWTConfig{
			Secret:    v.GetString("jwt.secret"),
			AccessTTL: v.GetDuration("jwt.access_ttl"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:      splitCSV(v.GetString("kafka.brokers")),
			GroupPrefix:  v.GetString("kafka.group_prefix"),
			BookingTopic: v.GetString("kafka.booking_topic"),
			ListingTopic: v.GetString("kafka.listing_topic"),
		},
		RedisConfig: RedisConfig{
			Addr:       v.GetString("redis.addr"),
			Password:   v.GetString("redis.password"),
			DB:         v.GetInt("redis.db"),
			ListingTTL: v.GetDuration("redis.listing_ttl"),
		},
		Pricing: PricingConfig{
			ServiceFeePercent: v.GetInt64("pricing.service_fee_percent"),
		},
	}
	cfg.KafkaConfig.ConsumerGroup = cfg.KafkaConfig.GroupPrefix + "booking-service"

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	var missing []string
	if c.JWTConfig.Secret == "" {
		if c.IsDevelopment() {
			c.JWTConfig.Secret = devJWTSecret
			c.JWTConfig.DevSecret = true
		} else {
			missing = append(missing, envPrefix+"_JWT_SECRET")
		}
	}
	if len(c.KafkaConfig.Brokers) == 0 {
		missing = append(missing, envPrefix+"_KAFKA_BROKERS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required configuration not set: %s", strings.Join(missing, ", "))
	}
	if c.Pricing.ServiceFeePercent < 0 || c.Pricing.ServiceFeePercent > 100 {
		return fmt.Errorf("pricing.service_fee_percent must be between 0 and 100, got %d", c.Pricing.ServiceFeePercent)
	}
	return nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
