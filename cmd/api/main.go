package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/cultura/internal/auth"
	"github.com/gestaozabele/cultura/internal/config"
	"github.com/gestaozabele/cultura/internal/db"
	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/edital"
	"github.com/gestaozabele/cultura/internal/extract"
	internalhttp "github.com/gestaozabele/cultura/internal/http"
	"github.com/gestaozabele/cultura/internal/mapping"
	"github.com/gestaozabele/cultura/internal/projeto"
	"github.com/gestaozabele/cultura/internal/proponente"
	"github.com/gestaozabele/cultura/internal/recurso"
	"github.com/gestaozabele/cultura/internal/storage"
	"github.com/gestaozabele/cultura/internal/tenant"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	store, closeStore, err := docstore.Open(ctx, cfg.DocStore, pool)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			log.Warn().Err(err).Msg("falha ao fechar docstore")
		}
	}()

	registry := extract.Default()
	if cfg.ExtractPathsFile != "" {
		registry, err = extract.Load(cfg.ExtractPathsFile)
		if err != nil {
			return fmt.Errorf("extract: %w", err)
		}
	}

	uploader, err := newUploader(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	logger := log.Logger
	tenantService := tenant.NewService(tenant.NewRepository(pool))
	editalService := edital.NewService(edital.NewRepository(pool), redisClient, cfg.EditalCacheTTL, logger)
	proponenteService := proponente.NewService(store, registry, logger)
	projetoService := projeto.NewService(projeto.NewRepository(pool), editalService, proponenteService, uploader, cfg.UploadMaxBytes, logger)
	recursoService := recurso.NewService(recurso.NewRepository(pool), projetoService, logger)

	closer, err := edital.NewCloser(editalService, cfg.EditalCloseSchedule, logger)
	if err != nil {
		return err
	}
	closer.Start()
	defer closer.Stop()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	handler := internalhttp.NewRouter(cfg, pool, redisClient, jwtManager, internalhttp.Services{
		Tenants:     tenantService,
		Mapping:     mapping.NewService(store, logger),
		Registry:    registry,
		Editais:     editalService,
		Proponentes: proponenteService,
		Projetos:    projetoService,
		Recursos:    recursoService,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("docstore", cfg.DocStore.Provider).Str("storage", cfg.Storage.Provider).Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newUploader(ctx context.Context, cfg config.StorageConfig) (storage.Uploader, error) {
	switch cfg.Provider {
	case "", config.StorageNoop:
		return storage.NoopUploader{}, nil
	case config.StorageS3, config.StorageR2:
		return storage.NewS3Uploader(ctx, storage.S3Config{
			Endpoint:     cfg.Endpoint,
			Region:       cfg.Region,
			Bucket:       cfg.Bucket,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			PublicDomain: cfg.PublicURL,
			UsePathStyle: cfg.UsePathStyle,
		})
	}
	return nil, fmt.Errorf("provedor %s não suportado", cfg.Provider)
}
