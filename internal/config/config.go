package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	Port        string

	// MongoDB 影片目录库
	MongoURI        string
	MongoDB         string
	MongoCollection string

	// 上游 phimapi
	PhimAPIBaseURL   string
	PhimAPIImageBase string
	PhimAPITimeout   time.Duration

	// 同步任务
	SyncEnabled     bool
	SyncInterval    time.Duration
	SyncFullOnStart bool
	SyncFetchDetail bool
	SyncMaxPages    int

	// 日志
	LogLevel  string
	LogFormat string

	// 搜索缓存
	SearchCacheSize int
	SearchCacheTTL  time.Duration

	// 观影历史保留天数，0 表示不清理
	HistoryRetentionDays int
}

// Load 加载配置
func Load() *Config {
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "phimhub")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   appSecret,
		DatabaseURL: dbURL,
		Port:        getEnv("PORT", "5005"),

		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "phimhub"),
		MongoCollection: getEnv("MONGO_COLLECTION", "movies"),

		PhimAPIBaseURL:   strings.TrimRight(getEnv("PHIMAPI_BASE_URL", "https://phimapi.com"), "/"),
		PhimAPIImageBase: strings.TrimRight(getEnv("PHIMAPI_IMAGE_BASE", "https://phimimg.com"), "/"),
		PhimAPITimeout:   time.Duration(getEnvInt("PHIMAPI_TIMEOUT_SECONDS", 30)) * time.Second,

		SyncEnabled:     getEnvBool("SYNC_ENABLED", true),
		SyncInterval:    time.Duration(getEnvInt("SYNC_INTERVAL_MINUTES", 30)) * time.Minute,
		SyncFullOnStart: getEnvBool("SYNC_FULL_ON_START", false),
		SyncFetchDetail: getEnvBool("SYNC_FETCH_DETAIL", true),
		SyncMaxPages:    getEnvInt("SYNC_MAX_PAGES", 0),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SearchCacheSize: getEnvInt("CACHE_SEARCH_SIZE", 1000),
		SearchCacheTTL:  time.Duration(getEnvInt("CACHE_SEARCH_TTL_MINUTES", 10)) * time.Minute,

		HistoryRetentionDays: getEnvInt("HISTORY_RETENTION_DAYS", 180),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 解析失败时回退到默认值
func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}
