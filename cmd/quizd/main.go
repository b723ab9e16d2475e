package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	"github.com/mind-engage/mindengage-quiz/internal/attempt"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/lesson"
	"github.com/mind-engage/mindengage-quiz/internal/metrics"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --- DB ---
	driver := db.Driver(cfg.DBDriver)
	dbh, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()
	lessons := lesson.NewSQLStore(dbh, driver)
	records := attempt.NewSQLStore(dbh, driver)
	ready := map[string]func(context.Context) error{"db": dbh.PingContext}

	if cfg.LessonsDir != "" {
		n, err := lesson.NewLoader(cfg.LessonsDir).Seed(ctx, lessons)
		if err != nil {
			log.Fatalf("seed lessons: %v", err)
		}
		log.WithFields(log.Fields{"dir": cfg.LessonsDir, "count": n}).Info("lessons seeded")
	}

	// --- Live sessions ---
	var sessions attempt.SessionStore
	switch cfg.SessionDriver {
	case "redis":
		rs := attempt.NewRedisSessionStore(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), cfg.SessionTTL)
		if err := rs.Ping(ctx); err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		sessions = rs
		ready["redis"] = rs.Ping
	default:
		sessions = attempt.NewMemorySessionStore()
	}

	// --- Events ---
	pub, closePub := publisher(cfg, dbh, driver)
	defer closePub()

	// --- Blobs ---
	bs, err := blobStore(ctx, cfg)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	if p, ok := bs.(interface{ Ping(context.Context) error }); ok {
		ready["blobs"] = p.Ping
	}

	m := metrics.New()
	svc := attempt.NewService(lessons, records, sessions,
		attempt.WithPublisher(pub),
		attempt.WithMetrics(m),
		attempt.WithRetry(cfg.AllowRetry),
	)

	r := api.NewRouter(api.Deps{
		Auth:          auth.NewAuthService(cfg.AuthHMACSecret),
		Lessons:       lessons,
		Attempts:      svc,
		Blobs:         bs,
		Metrics:       m,
		AdminUser:     cfg.AdminUser,
		AdminPassHash: cfg.AdminPassHash,
		EnableGuest:   cfg.EnableGuestAuth,
		CORSOrigins:   cfg.CORSOrigins,
		Ready:         ready,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.WithFields(log.Fields{
			"addr":     cfg.HTTPAddr,
			"mode":     cfg.Mode,
			"db":       cfg.DBDriver,
			"sessions": cfg.SessionDriver,
			"events":   cfg.EventsDriver,
			"blobs":    cfg.BlobDriver,
		}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
}

func setupLogging(cfg config.Config) {
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	if cfg.Mode == config.ModeOnline {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func publisher(cfg config.Config, dbh *sql.DB, driver db.Driver) (attempt.Publisher, func()) {
	switch cfg.EventsDriver {
	case "amqp":
		p, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("amqp: %v", err)
		}
		return p, func() { _ = p.Close() }
	case "log":
		return events.NewLogPublisher(dbh, driver, ""), func() {}
	default:
		return attempt.NopPublisher{}, func() {}
	}
}

func blobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	if cfg.BlobDriver == "minio" {
		return storage.NewMinIOStore(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
	}
	public := "/media"
	if cfg.PublicURL != "" {
		public = strings.TrimRight(cfg.PublicURL, "/") + "/media"
	}
	return storage.NewFSStore(cfg.BlobBasePath, public)
}
