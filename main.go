package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"encode-portal/cache"
	"encode-portal/cache/filesystemCache"
	"encode-portal/cache/memoryCache"
	"encode-portal/cache/s3Cache"
	"encode-portal/config"
	"encode-portal/encode"
	"encode-portal/portal"
	"encode-portal/procedures"
)

// cacheBackend is satisfied by every cache implementation: the hierarchical
// metadata store plus the bulk listing store.
type cacheBackend interface {
	cache.Store
	cache.ListingStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Msgf("unknown log level '%s', keeping default", cfg.LogLevel)
	}

	backend := initializeCacheBackend(cfg)

	client := portal.New(
		cfg.PortalURL,
		cfg.MetadataTimeout,
		cfg.ListingTimeout,
		cfg.TransferTimeout,
	)

	engine := encode.NewEngine(client, backend, backend)

	server := procedures.New(engine, procedures.Info{
		PortalURL: cfg.PortalURL,
		CacheDir:  cfg.CacheDir,
		FilesDir:  cfg.FilesDir,
		Transport: cfg.Transport,
		HTTPAddr:  cfg.HTTPAddr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Transport {
	case "http":
		err = server.RunHTTP(ctx, cfg.HTTPAddr)
	case "stdio":
		err = server.Run(ctx)
	default:
		log.Warn().Msgf("unknown transport '%s', defaulting to stdio", cfg.Transport)
		err = server.Run(ctx)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func initializeCacheBackend(cfg *config.AppConfig) cacheBackend {
	var backend cacheBackend
	switch cfg.Persistence.Type {
	case "filesystem":
		backend = initFilesystemCache(cfg.CacheDir)
	case "s3":
		backend = initS3Cache(cfg.Persistence.S3)
	case "memory":
		backend = memoryCache.New()
		log.Info().Msg("memory cache initialized")
	default:
		log.Warn().Msgf("unknown persistence type '%s', defaulting to filesystem", cfg.Persistence.Type)
		backend = initFilesystemCache(cfg.CacheDir)
	}

	return backend
}

func initFilesystemCache(cacheDir string) cacheBackend {
	fsCache, err := filesystemCache.New(cacheDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize filesystem cache")
	}
	log.Info().
		Str("cache_dir", cacheDir).
		Msg("filesystem cache initialized")

	return fsCache
}

func initS3Cache(cfg config.S3Config) cacheBackend {
	s3Backend, err := s3Cache.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize s3 cache")
	}
	log.Info().
		Str("bucket", cfg.Bucket).
		Msg("s3 cache initialized")

	return s3Backend
}
