package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"

	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string

	StoreDriver string // Where permission layers live: "mongo" or "postgres"
	PostgresDSN string

	CacheDriver          string // "memory" or "redis"
	RedisAddr            string
	RedisPassword        string
	PermissionCacheTTL   time.Duration
	CacheRefreshSchedule string

	SuperAdminIDs []string // Platform operators allowed past every permission layer
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	ttl, err := time.ParseDuration(getEnv("PERMISSION_CACHE_TTL", "60s"))
	if err != nil {
		log.Printf("Invalid PERMISSION_CACHE_TTL, using 60s: %v", err)
		ttl = 60 * time.Second
	}

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		JWTSecret:            getEnv("JWT_SECRET", "secret"),
		MongoURI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:               getEnv("DB_NAME", "bizsuite"),
		SkipAuth:             getEnv("SKIP_AUTH", "false") == "true",
		Environment:          getEnv("ENVIRONMENT", "development"),
		AppId:                getEnv("APP_ID", "bizsuite"),
		StoreDriver:          getEnv("STORE_DRIVER", StoreDriverMongo),
		PostgresDSN:          getEnv("POSTGRES_DSN", "postgres://localhost:5432/bizsuite?sslmode=disable"),
		CacheDriver:          getEnv("CACHE_DRIVER", CacheDriverMemory),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		PermissionCacheTTL:   ttl,
		CacheRefreshSchedule: getEnv("CACHE_REFRESH_SCHEDULE", "@every 1m"),
		SuperAdminIDs:        splitList(getEnv("SUPER_ADMIN_IDS", "")),
	}, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsSuperAdmin reports whether userID is a configured platform operator
func (c *Config) IsSuperAdmin(userID string) bool {
	for _, id := range c.SuperAdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
