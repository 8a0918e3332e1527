package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/site-inspection-api/internal/config"
	"github.com/iliyamo/site-inspection-api/internal/database"
	"github.com/iliyamo/site-inspection-api/internal/handler"
	"github.com/iliyamo/site-inspection-api/internal/middleware"
	"github.com/iliyamo/site-inspection-api/internal/queue"
	"github.com/iliyamo/site-inspection-api/internal/repository"
	"github.com/iliyamo/site-inspection-api/internal/router"
	"github.com/iliyamo/site-inspection-api/internal/service"
	"github.com/iliyamo/site-inspection-api/internal/utils"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; real env vars still apply

	cfg := config.Load()
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	if cfg.IsDev() {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.INFO)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		e.Logger.Fatalf("db open: %v", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			e.Logger.Fatalf("migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		e.Logger.Warn("redis unavailable: response cache off, in-process rate limiting")
	} else {
		defer rdb.Close()
	}

	qcfg := config.LoadQueueConfig()
	audit := service.NewAuditPublisher(qcfg, e.Logger)
	if qcfg.Enabled {
		go func() {
			if err := queue.StartAuditConsumer(ctx, qcfg, e.Logger); err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("audit consumer: %v", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := utils.NewTokens(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	auth, err := service.NewAuthService(users, tokens, cfg.BcryptCost)
	if err != nil {
		e.Logger.Fatalf("auth service: %v", err)
	}
	stores := repository.NewStores(db)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s %d %s ip=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s ip=%s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, tokens))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(auth, audit, cfg.CookieSecure), auth)
	router.RegisterResources(e, handler.NewEntities(stores, audit), auth, config.LoadCacheConfig(), rdb)
	router.RegisterPosts(e, handler.NewPostHandler(users, stores.Posts, audit), auth)

	addr := ":" + cfg.Port
	e.Logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Errorf("shutdown: %v", err)
	}
}
