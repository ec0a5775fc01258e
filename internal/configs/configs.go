package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

type Config struct {
	AppURL                 string
	DatabaseDSN            string
	ArchiveDBPath          string
	ArchiveBackupDir       string
	RateLimit              int
	RedisAddr              string
	ShutdownTimeoutSeconds int
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "3003")

	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:            getEnv("DATABASE_DSN", "data/tasks.db"),
		ArchiveDBPath:          getEnv("ARCHIVE_DB_PATH", "data/archives.db"),
		ArchiveBackupDir:       getEnv("ARCHIVE_BACKUP_DIR", "data/archives-backup"),
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
	}

	// Redis is optional: without REDIS_HOST the rate limiter runs in-memory.
	if redisHost := getEnv("REDIS_HOST", ""); redisHost != "" {
		redisPort := getEnv("REDIS_PORT", "6379")
		cfg.RedisAddr = fmt.Sprintf("%s:%s", redisHost, redisPort)
	}

	validate(cfg)
	return cfg
}

func validate(cfg Config) {
	if cfg.AppURL == "" {
		log.Fatal("APP_URL must not be empty (e.g. 127.0.0.1:3003)")
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN must not be empty")
	}
	if cfg.ArchiveDBPath == "" {
		log.Fatal("ARCHIVE_DB_PATH must not be empty")
	}
	if cfg.ArchiveBackupDir == "" {
		log.Fatal("ARCHIVE_BACKUP_DIR must not be empty")
	}
	if cfg.RateLimit <= 0 {
		log.Fatal("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.ShutdownTimeoutSeconds <= 0 {
		log.Fatal("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0")
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}
