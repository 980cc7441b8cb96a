package main

import (
	"context" // Context for Redis ping

	"quickpay/internal/api"    // HTTP routes
	"quickpay/internal/config" // Configuration loading

	"github.com/gin-gonic/gin"                                     // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp"      // Prometheus HTTP handler
	"github.com/redis/go-redis/v9"                                 // Redis client
	"github.com/sirupsen/logrus"                                   // Structured logging
	"github.com/slok/go-http-metrics/metrics/prometheus"           // Prometheus recorder
	metricsmw "github.com/slok/go-http-metrics/middleware"         // HTTP metrics middleware
	ginmiddleware "github.com/slok/go-http-metrics/middleware/gin" // Gin adapter
	"gorm.io/driver/mysql"                                         // MySQL driver for GORM
	"gorm.io/gorm"                                                 // GORM ORM library
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.LoadConfig()
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.WithField("error", err.Error()).Fatal("Failed to connect to database")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logrus.WithField("error", err.Error()).Fatal("Failed to connect to Redis")
	}

	mdlw := metricsmw.New(metricsmw.Config{
		Recorder: prometheus.NewRecorder(prometheus.Config{}),
	})

	r := api.NewRouter(db, rdb, cfg.JWTSecret, ginmiddleware.Handler("", mdlw))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := r.SetTrustedProxies(nil); err != nil {
		logrus.WithField("error", err.Error()).Fatal("Failed to set trusted proxies")
	}

	logrus.WithField("port", cfg.AppPort).Info("Starting server")
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.WithField("error", err.Error()).Fatal("Server exited")
	}
}
