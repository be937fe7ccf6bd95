package main

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"
	"time"

	"vastra/internal/auth"
	"vastra/internal/config"
	"vastra/internal/db"
	"vastra/internal/domain/storage"
	"vastra/internal/ratelimiter"
	"vastra/internal/slug"

	"github.com/cloudinary/cloudinary-go/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a colored console logger at the given level.
func NewLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), lvl)

	return zap.New(core).Sugar(), nil
}

var version = "0.4.0"

//	@title			Vastra API
//	@description	Fabric catalogue API: products, SEO entries, taxonomies, topic pages and locations, all addressed by slug.

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer admin access token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(cfg.DB.Addr, cfg.DB.MaxConns, cfg.DB.MaxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	if cfg.DB.MigrateOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := db.Migrate(ctx, pool, logger)
		cancel()
		if err != nil {
			logger.Fatal(err)
		}
	}

	store := storage.NewContainer(pool)

	// Slugs
	registry, err := storage.NewSlugRegistry(cfg.Slug.PolicyFile)
	if err != nil {
		logger.Fatal(err)
	}
	assigner := slug.NewAssigner(registry, store.Slugs,
		slug.WithMaxAttempts(cfg.Slug.MaxAttempts),
		slug.WithPersistRetries(cfg.Slug.PersistRetries),
		slug.WithLogger(logger.Named("slug")),
	)
	logger.Infow("slug policies loaded", "entities", registry.Entities())

	// Cloudinary is only used to clean up product images, so it is optional.
	var cld *cloudinary.Cloudinary
	if cfg.CloudinaryURL != "" {
		cld, err = cloudinary.NewFromURL(cfg.CloudinaryURL)
		if err != nil {
			logger.Fatal(err)
		}
	} else {
		logger.Warn("CLOUDINARY_URL not set, image cleanup disabled")
	}

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.RateLimiter.RequestsPerTimeFrame,
		cfg.RateLimiter.TimeFrame,
	)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.Auth.Secret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.Issuer,
		cfg.Auth.Issuer,
		cfg.Auth.AccessTokenExp,
		cfg.Auth.RefreshTokenExp,
	)

	app := &application{
		config:        cfg,
		store:         store,
		slugs:         assigner,
		logger:        logger,
		cld:           cld,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]any{
			"total_conns":    s.TotalConns(),
			"idle_conns":     s.IdleConns(),
			"acquired_conns": s.AcquiredConns(),
			"max_conns":      s.MaxConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
