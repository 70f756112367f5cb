package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	Auth   AuthConfig
	Engine EngineConfig
	Cache  CacheTTLConfig
}

type ServerConfig struct {
	Port          string
	GinMode       string
	InstanceID    string
	LogLevel      string
	AllowedOrigin string
	RateLimit     string // ulule/limiter format, e.g. 50-S
}

type DBConfig struct {
	Driver   string // mysql, postgres, sqlite
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type AuthConfig struct {
	JWTSecret       string
	RegistrationKey string
	TokenTTL        time.Duration
}

type EngineConfig struct {
	OrderTransitionPolicy string // permissive, strict
	DeliveryFee           string
	DispatcherQueueSize   int
	InvalidationTimeout   time.Duration
	ReconcileInterval     time.Duration
}

type CacheTTLConfig struct {
	KitchenActive    time.Duration
	KitchenCompleted time.Duration
	SessionOrders    time.Duration
	UserOrders       time.Duration
	OrderDetail      time.Duration
	Table            time.Duration
	Ratings          time.Duration
	Reservations     time.Duration
	Availability     time.Duration
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Info("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	queueSize, _ := strconv.Atoi(getEnv("DISPATCHER_QUEUE_SIZE", "1024"))

	hostname, _ := os.Hostname()

	var brokers []string
	if raw := getEnv("KAFKA_BROKERS", ""); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return Config{
		Server: ServerConfig{
			Port:       getEnv("PORT", "8080"),
			GinMode:    getEnv("GIN_MODE", "debug"),
			InstanceID: getEnv("INSTANCE_ID", hostname),
			LogLevel:   getEnv("LOG_LEVEL", "info"),
			// CORS dan rate limit per IP
			AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
			RateLimit:     getEnv("RATE_LIMIT", "50-S"),
		},
		DB: DBConfig{
			Driver:   getEnv("DB_DRIVER", "mysql"),
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "dinein"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Enabled:  getEnv("REDIS_ENABLED", "true") == "true",
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   getEnv("KAFKA_TOPIC", "dinein.lifecycle"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", "dinein-dev-secret"),
			RegistrationKey: getEnv("DEVICE_REGISTRATION_KEY", ""),
			TokenTTL:        getDuration("DEVICE_TOKEN_TTL", 30*24*time.Hour),
		},
		Engine: EngineConfig{
			OrderTransitionPolicy: getEnv("ORDER_TRANSITION_POLICY", "permissive"),
			DeliveryFee:           getEnv("DELIVERY_FEE", "0"),
			DispatcherQueueSize:   queueSize,
			InvalidationTimeout:   getDuration("INVALIDATION_TIMEOUT", 2*time.Second),
			ReconcileInterval:     getDuration("RECONCILE_INTERVAL", time.Minute),
		},
		Cache: CacheTTLConfig{
			KitchenActive:    getDuration("CACHE_TTL_KITCHEN_ACTIVE", 10*time.Second),
			KitchenCompleted: getDuration("CACHE_TTL_KITCHEN_COMPLETED", time.Minute),
			SessionOrders:    getDuration("CACHE_TTL_SESSION_ORDERS", 30*time.Second),
			UserOrders:       getDuration("CACHE_TTL_USER_ORDERS", 5*time.Minute),
			OrderDetail:      getDuration("CACHE_TTL_ORDER_DETAIL", 30*time.Minute),
			Table:            getDuration("CACHE_TTL_TABLE", 30*time.Minute),
			Ratings:          getDuration("CACHE_TTL_RATINGS", 30*time.Minute),
			Reservations:     getDuration("CACHE_TTL_RESERVATIONS", 10*time.Minute),
			Availability:     getDuration("CACHE_TTL_AVAILABILITY", 2*time.Minute),
		},
	}
}

// DefaultCacheTTLs returns the TTLs used when nothing is configured.
func DefaultCacheTTLs() CacheTTLConfig {
	return CacheTTLConfig{
		KitchenActive:    10 * time.Second,
		KitchenCompleted: time.Minute,
		SessionOrders:    30 * time.Second,
		UserOrders:       5 * time.Minute,
		OrderDetail:      30 * time.Minute,
		Table:            30 * time.Minute,
		Ratings:          30 * time.Minute,
		Reservations:     10 * time.Minute,
		Availability:     2 * time.Minute,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		utils.InfoLogger.WithField("key", key).Warnf("Invalid duration %q, using %s", raw, defaultValue)
		return defaultValue
	}
	return d
}
