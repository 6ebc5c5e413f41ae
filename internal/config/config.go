package config

import (
	"os"
	"strings"
)

// Config carries the service configuration read from environment variables.
type Config struct {
	ListenAddr string

	AuthUsername string
	AuthPassword string
	AuthRealm    string

	MetricsAuthType  string
	MetricsAuthToken string
	MetricsAllowList []string

	StorageDriver string
	StoragePath   string
	DatabasePath  string

	SFTPHost     string
	SFTPPort     string
	SFTPUsername string
	SFTPPassword string

	LogLevel string
}

func LoadConfig() *Config {
	return &Config{
		ListenAddr: getenv("LISTEN_ADDR", ":8025"),

		AuthUsername: os.Getenv("AUTH_USERNAME"),
		AuthPassword: os.Getenv("AUTH_PASSWORD"),
		AuthRealm:    os.Getenv("AUTH_REALM"),

		MetricsAuthType:  getenv("METRICS_AUTH_TYPE", "basic"),
		MetricsAuthToken: os.Getenv("METRICS_AUTH_TOKEN"),
		MetricsAllowList: splitList(os.Getenv("METRICS_ALLOW_LIST")),

		StorageDriver: getenv("STORAGE_DRIVER", "local"),
		StoragePath:   getenv("STORAGE_PATH", "data/storage"),
		DatabasePath:  getenv("DATABASE_PATH", "data/mailstash.db"),

		SFTPHost:     os.Getenv("SFTP_HOST"),
		SFTPPort:     getenv("SFTP_PORT", "22"),
		SFTPUsername: os.Getenv("SFTP_USERNAME"),
		SFTPPassword: os.Getenv("SFTP_PASSWORD"),

		LogLevel: getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
