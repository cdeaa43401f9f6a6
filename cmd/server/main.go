package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"caseboard/internal/analytics"
	"caseboard/internal/cache"
	"caseboard/internal/comparative"
	"caseboard/internal/config"
	"caseboard/internal/db"
	"caseboard/internal/domain"
	"caseboard/internal/export"
	"caseboard/internal/options"
	"caseboard/internal/query"
	"caseboard/internal/repository"
	"caseboard/internal/server"
	"caseboard/internal/subjects"
)

const (
	optionsCacheSize = 64
	optionsCacheTTL  = 5 * time.Minute
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// The resolver matrix must be total before any request runs.
	if err := domain.CheckResolver(); err != nil {
		log.WithError(err).Fatal("column resolver is incomplete")
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.DB, cfg.MigrationsPath); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	// Create repositories
	eventRepo := repository.NewEventRepository(conn.Pool)
	subjectRepo := repository.NewSubjectRepository(conn.Pool)
	rosterRepo := repository.NewRosterRepository(conn.Pool)

	// Optionally refresh the taxonomy from the feed, then index it.
	if cfg.SubjectFeedPath != "" {
		loader := subjects.NewFeedLoader(subjectRepo)
		n, err := loader.Refresh(ctx, cfg.SubjectFeedPath)
		if err != nil {
			log.WithError(err).Fatal("failed to refresh subject feed")
		}
		log.WithField("nodes", n).Info("subject feed refreshed")
	}
	nodes, err := subjectRepo.LoadAll(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to load subjects")
	}
	tree, err := subjects.NewTree(nodes)
	if err != nil {
		log.WithError(err).Fatal("failed to index subject taxonomy")
	}
	log.WithField("nodes", tree.Len()).Info("subject taxonomy indexed")

	// Create engines
	builder := query.NewBuilder(tree)
	optionsCache := cache.New(optionsCacheSize, optionsCacheTTL)
	optionsSvc := options.NewService(eventRepo, rosterRepo, optionsCache)
	analyticsEngine := analytics.NewEngine(eventRepo, builder, optionsSvc)
	subjectsEngine := subjects.NewEngine(tree, subjectRepo, builder, analyticsEngine)
	comparativeEngine := comparative.NewEngine(analyticsEngine)
	exportSvc := export.NewService(analyticsEngine)

	handlers := server.NewHandlers(
		analyticsEngine, subjectsEngine, comparativeEngine,
		optionsSvc, exportSvc, log,
	)
	router := server.NewRouter(handlers, log, cfg.AdminSecret)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("starting server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server exited")
}
