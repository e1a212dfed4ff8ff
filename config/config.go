package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL   string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	NatsURL       string

	LogLevel       string
	SlowQueryMS    int // 慢查询阈值（毫秒）
	StatusCacheTTL int // 状态目录缓存有效期（秒）

	DefaultTenantID   uint
	ExclusiveStatuses []string // 互斥状态的 from_slug，为空表示不启用

	// 外部用户表（仅用于 handle 解析）
	UserTable        string
	UserIDColumn     string
	UserHandleColumn string
}

func Load() *Config {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	slowQueryMS, _ := strconv.Atoi(getEnv("SLOW_QUERY_MS", "100"))
	statusCacheTTL, _ := strconv.Atoi(getEnv("STATUS_CACHE_TTL_SECONDS", "300"))
	tenantID, err := strconv.ParseUint(getEnv("DEFAULT_TENANT_ID", "1"), 10, 64)
	if err != nil || tenantID == 0 {
		tenantID = 1
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		NatsURL:           os.Getenv("NATS_URL"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		SlowQueryMS:       slowQueryMS,
		StatusCacheTTL:    statusCacheTTL,
		DefaultTenantID:   uint(tenantID),
		ExclusiveStatuses: splitList(lookupEnv("EXCLUSIVE_STATUSES", "following,blocking")),
		UserTable:         getEnv("USER_TABLE", "users"),
		UserIDColumn:      getEnv("USER_ID_COLUMN", "id"),
		UserHandleColumn:  getEnv("USER_HANDLE_COLUMN", "username"),
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv 与 getEnv 不同：显式设置为空字符串时返回空
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
