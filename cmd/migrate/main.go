package main

import (
	"quickpay/internal/config" // Configuration loading
	"quickpay/internal/db"     // Schema migration and bootstrap

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.LoadConfig()
	conn, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.WithField("error", err.Error()).Fatal("Failed to connect to database")
	}

	if err := db.Migrate(conn); err != nil {
		logrus.WithField("error", err.Error()).Fatal("Migration failed")
	}
	logrus.Info("Migration completed")

	if err := db.EnsureAdmin(conn, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logrus.WithField("error", err.Error()).Fatal("Admin bootstrap failed")
	}
}
