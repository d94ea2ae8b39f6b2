// Package main is the entry point for the charterbooks API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"charterbooks/internal/config"
	"charterbooks/internal/domain/auth"
	"charterbooks/internal/domain/documents"
	"charterbooks/internal/domain/fx"
	"charterbooks/internal/infrastructure/fxrate"
	v1 "charterbooks/internal/infrastructure/http/v1"
	"charterbooks/internal/infrastructure/numerator"
	"charterbooks/internal/infrastructure/storage/postgres"
	"charterbooks/internal/infrastructure/storage/postgres/document_repo"
	"charterbooks/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Require("DATABASE_URL", "JWT_SECRET"); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting charterbooks server", "version", version, "env", cfg.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
	}

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	// --- FX rates ---
	rates, err := newRateResolver(cfg)
	if err != nil {
		log.Fatalw("invalid FX configuration", "error", err)
	}

	// --- Documents ---
	documentService := documents.NewService(documents.ServiceConfig{
		Repo:      document_repo.NewDocumentRepo(txManager),
		Numerator: numerator.New(pool),
		TxManager: txManager,
		Rates:     rates,
		Ledger:    document_repo.NewLedgerOutbox(txManager),
		Wht:       document_repo.NewWhtRepo(txManager),
		Auditor:   document_repo.NewDocumentAuditor(auditService),
	})

	// --- JWT ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.Issuer = cfg.JWTIssuer
	jwtConfig.AccessTokenTTL = cfg.JWTTTL
	jwtService, err := auth.NewJWTService(jwtConfig)
	if err != nil {
		log.Fatalw("failed to create JWT service", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Database:     pool,
		Logger:       log,
		JWTValidator: jwtService,
		Documents:    documentService,
		Rates:        rates,
		Version:      version,
		Development:  cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// newRateResolver chains the configured providers: Bank of Thailand when a
// client id is set, then the public API, then the static fallback table.
func newRateResolver(cfg *config.Config) (*fx.Resolver, error) {
	var providers []fx.Provider

	if cfg.BOTClientID != "" {
		providers = append(providers, fxrate.NewBOTClient(cfg.BOTAPIURL, cfg.BOTClientID, nil))
	}
	providers = append(providers, fxrate.NewAPIClient(cfg.FXAPIURL, nil))

	if cfg.FXFallbackRates != "" {
		table, err := fxrate.ParseStaticTable(cfg.FXFallbackRates)
		if err != nil {
			return nil, fmt.Errorf("FX_FALLBACK_RATES: %w", err)
		}
		providers = append(providers, table)
	}

	return fx.NewResolver(cfg.BaseCurrency, cfg.FXCacheTTL, providers...), nil
}
