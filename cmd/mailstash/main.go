package main

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"mailstash/internal/auth"
	"mailstash/internal/config"
	"mailstash/internal/database"
	"mailstash/internal/driver"
	"mailstash/internal/driver/local"
	sftpdriver "mailstash/internal/driver/sftp"
	"mailstash/internal/store"
	"mailstash/internal/web"
)

// Mailstash: authenticated HTTP message store
func main() {
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if cfg.AuthUsername == "" || cfg.AuthPassword == "" {
		log.Warn("AUTH_USERNAME/AUTH_PASSWORD not set, authentication is disabled")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var d driver.StorageDriver
	switch cfg.StorageDriver {
	case "local":
		d = local.NewDriver(cfg.StoragePath)
	case "sftp":
		if cfg.SFTPHost == "" || cfg.SFTPUsername == "" || cfg.SFTPPassword == "" {
			log.Fatal("SFTP config must be set in environment variables")
		}
		log.Infof("Connecting to SFTP: host=%s port=%s user=%s", cfg.SFTPHost, cfg.SFTPPort, cfg.SFTPUsername)
		sd, err := sftpdriver.NewDriver(sftpdriver.Options{
			Host:     cfg.SFTPHost,
			Port:     cfg.SFTPPort,
			Username: cfg.SFTPUsername,
			Password: cfg.SFTPPassword,
			Root:     cfg.StoragePath,
		})
		if err != nil {
			log.Fatalf("Failed to connect to SFTP: %v", err)
		}
		defer sd.Close()
		d = sd
	default:
		log.Fatalf("Unknown storage driver %q", cfg.StorageDriver)
	}
	log.Infof("Using %s storage driver", d.Name())

	s := store.New(d, db, log)

	gate := auth.NewBasicAuth(cfg.AuthUsername, cfg.AuthPassword, cfg.AuthRealm, log)
	metricsAuth := auth.NewEndpointAuth(auth.EndpointOptions{
		Type:      cfg.MetricsAuthType,
		Username:  cfg.AuthUsername,
		Password:  cfg.AuthPassword,
		Token:     cfg.MetricsAuthToken,
		Realm:     cfg.AuthRealm,
		AllowList: cfg.MetricsAllowList,
	}, log)

	router := web.NewRouter(s, gate, metricsAuth, log)

	log.Infof("Listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
