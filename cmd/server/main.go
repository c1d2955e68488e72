package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"atiende/internal/assignment"
	"atiende/internal/audit"
	"atiende/internal/closure"
	"atiende/internal/identity"
	jwttoken "atiende/internal/jwt_token"
	"atiende/internal/platform/config"
	"atiende/internal/platform/database"
	"atiende/internal/platform/httpserver"
	"atiende/internal/platform/logger"
	"atiende/internal/platform/metrics"
	platformredis "atiende/internal/platform/redis"
	"atiende/internal/reports/dedupe"
	reporthandler "atiende/internal/reports/handler"
	reportservice "atiende/internal/reports/service"
	reportstore "atiende/internal/reports/store"
	httptransport "atiende/internal/transport/http"
)

// main wires the dependency graph and owns the process lifecycle. Business
// logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if os.Getenv("APPLY_SCHEMA") == "true" {
		if err := database.ApplySchema(context.Background(), db); err != nil {
			log.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	txRunner := newPostgresTx(db)

	reportsStore := reportstore.NewPostgres(db)
	staffStore := identity.NewPostgres(db)
	assignmentStore := assignment.NewPostgres(db)
	closureStore := closure.NewPostgres(db)
	recorder := audit.NewRecorder(audit.NewPostgres(db), log)

	var checker dedupe.Checker = dedupe.Disabled{}
	if cfg.Dedupe.Enabled {
		if redisClient != nil {
			checker = dedupe.NewRedisChecker(redisClient, cfg.Dedupe)
		} else {
			checker = dedupe.NewStoreChecker(reportsStore, cfg.Dedupe)
		}
	}

	reportsService := reportservice.New(reportsStore, recorder, checker, txRunner, log, m)
	assignmentService := assignment.New(assignmentStore, reportsStore, staffStore, recorder, txRunner, log, m)
	closureService := closure.New(closureStore, reportsStore, assignmentService, staffStore, recorder, txRunner, log, m)

	validator := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	probes := []httptransport.HealthProbe{
		{Name: "postgres", Check: db.PingContext},
	}
	if redisClient != nil {
		probes = append(probes, httptransport.HealthProbe{Name: "redis", Check: redisClient.Health})
	}

	router := httptransport.NewRouter(
		httptransport.Config{
			MaxPayloadBytes: cfg.MaxPayloadBytes,
			Logger:          log,
			Metrics:         m,
			Probes:          probes,
		},
		reporthandler.New(reportsService, validator, log),
		assignment.NewHandler(assignmentService, validator, log),
		closure.NewHandler(closureService, validator, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting atiende", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
