package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort      string
	Environment     string
	MinIOEndpoint   string
	MinIOAccessKey  string
	MinIOSecretKey  string
	MinIOUseSSL     bool
	ImportBucket    string // bucket for import artifacts (parsed schedule JSON)
	CacheTTL        time.Duration
	PresignedURLTTL time.Duration
	ScheduleURL     string // registration system schedule page
	Kulliyyah       string
	Semester        string
	Session         string
	FetchTimeout    time.Duration
	InsecureTLS     bool // the registration system serves a broken certificate chain
}

func Load() *Config {
	cacheMinutes, _ := strconv.Atoi(getEnv("CACHE_TTL_MINUTES", "10"))
	presignedMinutes, _ := strconv.Atoi(getEnv("PRESIGNED_URL_TTL_MINUTES", "15"))
	fetchSeconds, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "10"))
	useSSL, _ := strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))
	insecureTLS, _ := strconv.ParseBool(getEnv("SCHEDULE_INSECURE_TLS", "true"))

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		MinIOEndpoint:   getEnv("MINIO_ENDPOINT", "minio:9000"),
		MinIOAccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOUseSSL:     useSSL,
		ImportBucket:    getEnv("IMPORT_BUCKET", "schedule-imports"),
		CacheTTL:        time.Duration(cacheMinutes) * time.Minute,
		PresignedURLTTL: time.Duration(presignedMinutes) * time.Minute,
		ScheduleURL:     getEnv("SCHEDULE_URL", "https://myapps.iium.edu.my/StudentOnline/schedule1.php"),
		Kulliyyah:       getEnv("SCHEDULE_KULLIYYAH", "KICT"),
		Semester:        getEnv("SCHEDULE_SEMESTER", "2"),
		Session:         getEnv("SCHEDULE_SESSION", "2024/2025"),
		FetchTimeout:    time.Duration(fetchSeconds) * time.Second,
		InsecureTLS:     insecureTLS,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
