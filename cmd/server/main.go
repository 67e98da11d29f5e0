package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/config"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/db"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/events"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/hash"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/httpserver"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/logging"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/middleware/auth"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/middleware/requestlog"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/repo"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/search"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/service"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/tokens"
)

func main() {
	cfg, err := config.Load(config.EnvDefault("ENV_FILE", ".env"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(ctx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	tok, err := tokens.NewService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers, logger)
	index := newSearchIndex(cfg, logger)

	hasher := hash.NewHasher(cfg.BcryptCost)
	logger.Info("auth configured", "bcrypt_cost", hasher.Cost(), "token_ttl", tok.TTL().String())

	store := repo.New(gdb)
	authSvc := &service.AuthService{
		Repo:             store,
		Hasher:           hasher,
		Tokens:           tok,
		Events:           publisher,
		AllowAdminSignup: cfg.AllowAdminSignup,
		Timeout:          cfg.DBTimeout,
	}
	catalogSvc := &service.CatalogService{
		Repo:    store,
		Events:  publisher,
		Search:  index,
		Timeout: cfg.DBTimeout,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(requestlog.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:   &httpserver.AuthHTTP{Svc: authSvc},
		SweetsHandler: &httpserver.SweetsHTTP{Svc: catalogSvc},
		Gate:          auth.NewAuthenticator(tok, store, cfg.DBTimeout),
		DB:            gdb,
		AuthRateRPS:   cfg.AuthRateRPS,
		AuthRateBurst: cfg.AuthRateBurst,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}

	logger.Info("stopped")
}

func newSearchIndex(cfg config.Config, logger *slog.Logger) search.Index {
	if cfg.ESURL == "" {
		logger.Info("search disabled", "reason", "ES_URL not set")
		return search.Disabled{}
	}
	es, err := search.NewClient(search.Config{
		URL:      cfg.ESURL,
		User:     cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.ESIndex,
	})
	if err != nil {
		logger.Warn("search disabled", "reason", "elasticsearch unreachable", "error", err)
		return search.Disabled{}
	}
	return search.NewElastic(es, cfg.ESIndex)
}
