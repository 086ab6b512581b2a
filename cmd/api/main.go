package main

import (
	"context"
	"crypto/tls"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tqpictures/studio/internal/auth"
	"github.com/tqpictures/studio/internal/cache"
	"github.com/tqpictures/studio/internal/config"
	"github.com/tqpictures/studio/internal/events"
	"github.com/tqpictures/studio/internal/gallery"
	"github.com/tqpictures/studio/internal/handlers"
	"github.com/tqpictures/studio/internal/metrics"
	"github.com/tqpictures/studio/internal/notify"
	"github.com/tqpictures/studio/internal/objectstore"
	"github.com/tqpictures/studio/internal/repository"
	"github.com/tqpictures/studio/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	level := slog.LevelDebug
	if cfg.Prod() {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	db, err := storage.Open(cfg.DSN)
	if err != nil {
		log.Fatal("storage: ", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("storage: ", err)
	}

	profiles := repository.NewProfiles(db)
	bookings := repository.NewBookings(db)
	images := repository.NewImages(db)

	// Custom HTTP client with a pinned TLS floor for the storage backend.
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS13,
		},
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithHTTPClient(&http.Client{Transport: tr}),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.AccessKeySecret, "")),
		awsconfig.WithRegion(cfg.S3Region),
	)
	if err != nil {
		log.Fatal("aws config: ", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})
	objects := objectstore.New(client, cfg.Bucket)

	var linkCache cache.LinkCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("redis: ", err)
		}
		defer rc.Close()
		linkCache = rc
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer publisher.Close()

	tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, logger)
	if err != nil {
		log.Fatal("telegram: ", err)
	}

	sess := auth.NewSessions([]byte(cfg.SessionSecret), cfg.Prod(), profiles, logger)

	googleEnabled := cfg.GoogleKey != "" && cfg.GoogleSecret != ""
	if googleEnabled {
		goth.UseProviders(google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.BaseURL+"/auth/google/callback"))
		gothic.Store = sess.Store()
	}

	gal := gallery.New(images, objects, linkCache, m, logger)

	h, err := handlers.New(handlers.Config{
		CSRFKey:        []byte(cfg.CSRFKey),
		EnableCSRF:     true,
		SecureCookies:  cfg.Prod(),
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         time.Duration(cfg.JWTExpireMin) * time.Minute,
		GoogleEnabled:  googleEnabled,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		HealthCheck:    sqlDB.PingContext,
	}, handlers.Deps{
		Profiles: profiles,
		Bookings: bookings,
		Images:   images,
		Gallery:  gal,
		Sessions: sess,
		Events:   publisher,
		Notify:   tg,
		Metrics:  m,
		Log:      logger,
	})
	if err != nil {
		log.Fatal("handlers: ", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", h.Routes())

	logger.Info("starting server", "addr", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
