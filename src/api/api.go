package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clubwize/backend/src/api/config"
	"github.com/clubwize/backend/src/api/data"
	"github.com/clubwize/backend/src/api/logger"
	"github.com/clubwize/backend/src/api/mail"
	"github.com/clubwize/backend/src/api/storage"
	"github.com/clubwize/backend/src/api/webserver"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogFile)
	defer logger.Sync()

	db := data.MustMySQL(cfg.MySQLDSN)
	if err := data.Migrate(db); err != nil {
		logger.S().Fatalf("migrate: %v", err)
	}
	if err := data.LoadSettings(db); err != nil {
		logger.S().Fatalf("settings: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)

	var mailer mail.Service
	if cfg.SendgridAPIKey != "" {
		mailer = mail.NewSendgrid(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromEmail)
	} else {
		logger.S().Warn("SENDGRID_API_KEY not set, mail goes to the log")
		mailer = mail.NewConsole()
	}

	var store storage.Service
	if cfg.S3Endpoint != "" {
		var err error
		store, err = storage.NewS3(storage.Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			logger.S().Fatalf("storage: %v", err)
		}
	} else {
		logger.S().Warn("S3_ENDPOINT not set, uploads are kept in memory")
		store = storage.NewMemory()
	}

	router := webserver.New(cfg, db, rdb, mailer, store)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.S().Fatalf("http: %v", err)
		}
	}()
	logger.S().Infof("Clubwize API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
