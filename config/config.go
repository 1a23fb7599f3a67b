package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Stripe configuration.
	StripeKey string `mapstructure:"STRIPE_KEY"`
	Currency  string `mapstructure:"CURRENCY"`

	// Kafka event emission.
	KafkaBrokers     []string `mapstructure:"KAFKA_BROKERS"`
	BookingEventsTop string   `mapstructure:"BOOKING_EVENTS_TOPIC"`

	// Booking policy knobs.
	DepositPercent         int `mapstructure:"DEPOSIT_PERCENT"`
	PlatformFeeBps         int `mapstructure:"PLATFORM_FEE_BPS"`
	ProviderResponseWindow int `mapstructure:"PROVIDER_RESPONSE_WINDOW_MIN"`
	ExpirySweepIntervalSec int `mapstructure:"EXPIRY_SWEEP_INTERVAL_SEC"`
	ExpirySweepBatchSize   int `mapstructure:"EXPIRY_SWEEP_BATCH_SIZE"`

	// Gateway call policy.
	GatewayTimeoutSec   int `mapstructure:"GATEWAY_TIMEOUT_SEC"`
	CaptureMaxAttempts  int `mapstructure:"CAPTURE_MAX_ATTEMPTS"`
	CaptureBackoffMs    int `mapstructure:"CAPTURE_BACKOFF_MS"`
	TransferMaxAttempts int `mapstructure:"TRANSFER_MAX_ATTEMPTS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "servora")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("CURRENCY", "usd")
	viper.SetDefault("KAFKA_BROKERS", []string{"localhost:9092"})
	viper.SetDefault("BOOKING_EVENTS_TOPIC", "booking.events")
	viper.SetDefault("DEPOSIT_PERCENT", 20)
	viper.SetDefault("PLATFORM_FEE_BPS", 300)
	viper.SetDefault("PROVIDER_RESPONSE_WINDOW_MIN", 120)
	viper.SetDefault("EXPIRY_SWEEP_INTERVAL_SEC", 60)
	viper.SetDefault("EXPIRY_SWEEP_BATCH_SIZE", 200)
	viper.SetDefault("GATEWAY_TIMEOUT_SEC", 10)
	viper.SetDefault("CAPTURE_MAX_ATTEMPTS", 4)
	viper.SetDefault("CAPTURE_BACKOFF_MS", 500)
	viper.SetDefault("TRANSFER_MAX_ATTEMPTS", 2)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// ResponseWindow returns how long a provider has to answer a new booking.
func ResponseWindow() time.Duration {
	return time.Duration(AppConfig.ProviderResponseWindow) * time.Minute
}

// GatewayTimeout bounds every synchronous payment gateway call.
func GatewayTimeout() time.Duration {
	return time.Duration(AppConfig.GatewayTimeoutSec) * time.Second
}
