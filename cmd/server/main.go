package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"landregistry/internal/docstore"
	identityhandler "landregistry/internal/identity/handler"
	identitymetrics "landregistry/internal/identity/metrics"
	identityservice "landregistry/internal/identity/service"
	identitystore "landregistry/internal/identity/store"
	"landregistry/internal/platform/config"
	"landregistry/internal/platform/httpserver"
	"landregistry/internal/platform/logger"
	"landregistry/internal/platform/postgres"
	redisclient "landregistry/internal/platform/redis"
	registryhandler "landregistry/internal/registry/handler"
	registryservice "landregistry/internal/registry/service"
	registrystore "landregistry/internal/registry/store"
	httptransport "landregistry/internal/transport/http"
	verificationhandler "landregistry/internal/verification/handler"
	"landregistry/internal/verification/metrics"
	verificationservice "landregistry/internal/verification/service"
	verificationstore "landregistry/internal/verification/store"
	audit "landregistry/pkg/platform/audit"
	auditpublisher "landregistry/pkg/platform/audit/publisher"
	auditmemory "landregistry/pkg/platform/audit/store/memory"
	auditpostgres "landregistry/pkg/platform/audit/store/postgres"
	auditworker "landregistry/pkg/platform/audit/worker"
	"landregistry/pkg/platform/middleware/auth"
)

// main wires storage, services, and the HTTP surface. Business logic lives
// in the internal service packages; everything here is assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema setup failed", "error", err)
			os.Exit(1)
		}
	}

	redisConn, err := redisclient.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisConn != nil {
		defer redisConn.Close()
	}

	// Stores fall back to in-memory when no backing service is configured,
	// which keeps local development dependency-free.
	var (
		identityStore identityservice.Store         = identitystore.NewInMemory()
		caseStore     verificationservice.CaseStore = verificationstore.NewInMemory()
		propertyStore registrystore.PropertyStore   = registrystore.NewInMemory()
		auditStore    audit.Store                   = auditmemory.New()
		blobStore     docstore.Store                = docstore.NewInMemory()
	)
	if db != nil {
		identityStore = identitystore.NewPostgres(db)
		caseStore = verificationstore.NewPostgres(db)
		propertyStore = registrystore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
	}
	if redisConn != nil {
		blobStore = docstore.NewRedis(redisConn.Client)
		propertyStore = registrystore.NewRedisCache(propertyStore, redisConn.Client, 10*time.Minute, log)
	}

	auditSink := auditStore
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := auditpublisher.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close(context.Background())
		auditSink = audit.NewFanout(auditStore, kafka)
	}

	identitySvc := identityservice.New(identityStore, auditSink, log,
		identityservice.WithMetrics(identitymetrics.New()))
	registrySvc := registryservice.New(propertyStore, log)

	inbox := make(chan audit.Event, 256)
	engine := verificationservice.NewEngine(caseStore, identitySvc, blobStore, registrySvc, log,
		verificationservice.WithMetrics(metrics.New()),
		verificationservice.WithAuditInbox(inbox),
		verificationservice.WithSaveAttempts(cfg.SaveRetryAttempts),
	)

	var healthChecks []httptransport.HealthCheck
	if db != nil {
		healthChecks = append(healthChecks, db.PingContext)
	}
	if redisConn != nil {
		healthChecks = append(healthChecks, redisConn.Health)
	}

	validator := auth.NewJWTValidator([]byte(cfg.JWTSigningKey))
	router := httptransport.NewRouter(httptransport.Deps{
		Identity:     identityhandler.New(identitySvc, log),
		Verification: verificationhandler.New(engine, log),
		Registry:     registryhandler.New(registrySvc, log),
		Validator:    validator,
		Logger:       log,
		HealthChecks: healthChecks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return auditworker.NewWorker(auditSink, inbox, log).Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting land registry server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
