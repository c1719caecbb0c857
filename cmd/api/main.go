package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/internal/adapter/handler"
	"github.com/johnquangdev/assembly-floor/internal/adapter/repository"
	"github.com/johnquangdev/assembly-floor/internal/adapter/repository/memory"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
	"github.com/johnquangdev/assembly-floor/internal/infrastructure/cache"
	"github.com/johnquangdev/assembly-floor/internal/infrastructure/database"
	"github.com/johnquangdev/assembly-floor/internal/infrastructure/eventlog"
	httpmw "github.com/johnquangdev/assembly-floor/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/assembly-floor/internal/infrastructure/logging"
	"github.com/johnquangdev/assembly-floor/internal/infrastructure/realtime"
	"github.com/johnquangdev/assembly-floor/internal/infrastructure/storage"
	"github.com/johnquangdev/assembly-floor/internal/usecase/attendee"
	"github.com/johnquangdev/assembly-floor/internal/usecase/floor"
	"github.com/johnquangdev/assembly-floor/internal/usecase/meeting"
	"github.com/johnquangdev/assembly-floor/internal/usecase/notification"
	"github.com/johnquangdev/assembly-floor/internal/usecase/summary"
	"github.com/johnquangdev/assembly-floor/internal/usecase/sweeper"
	"github.com/johnquangdev/assembly-floor/internal/usecase/voting"
	"github.com/johnquangdev/assembly-floor/pkg/clock"
	"github.com/johnquangdev/assembly-floor/pkg/config"
	"github.com/johnquangdev/assembly-floor/pkg/jwt"
	pkgMiddleware "github.com/johnquangdev/assembly-floor/pkg/middleware"
	pkgvalidator "github.com/johnquangdev/assembly-floor/pkg/validator"
)

// @title           Assembly Floor API
// @version         1.0
// @description     Speaking queue, attendance and two-round voting for assemblies

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the administrator JWT.

const codeCacheTTL = 30 * time.Second

type stores struct {
	meetings  repositories.MeetingRepository
	attendees repositories.AttendeeRepository
	events    repositories.EventRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatal("storage.open.failed", zap.Error(err))
	}
	defer st.close()

	clk := clock.System{}
	floorCfg := floor.Config{
		AcceptWindow:  cfg.Floor.AcceptWindow,
		SpeakingLimit: cfg.Floor.SpeakingLimit,
		StrictAccept:  cfg.Floor.StrictAccept,
	}

	// Notifications: websocket hub (directly or through Redis) plus the audit trail
	hub := realtime.NewHub(cfg.Server.AllowedOrigins, logger)
	defer hub.Close()

	notifiers := []notification.Notifier{eventlog.NewNotifier(st.events, clk)}
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("redis.connect.failed", zap.Error(err))
		}
		defer redisClient.Close()

		redisNotifier := realtime.NewRedisNotifier(redisClient, cfg.Redis.ChannelPrefix, logger)
		notifiers = append(notifiers, redisNotifier)
		go func() {
			if err := redisNotifier.Run(ctx, hub, realtime.ResubscribePolicy); err != nil {
				logger.Error("realtime.redis.subscribe.failed", zap.Error(err))
			}
		}()
	} else {
		notifiers = append(notifiers, hub)
	}

	summaries := summary.NewService(st.meetings, st.attendees)
	publisher := notification.NewPublisher(
		notification.NewMulti(logger, notifiers...),
		summaries,
		cfg.Floor.SpeakingLimit,
		logger,
	)

	var (
		archiver  meeting.Archiver
		snapshots handler.SnapshotLinker
	)
	if cfg.Storage.Enabled {
		minioArchiver, err := storage.NewMinIOArchiver(ctx, &cfg.Storage)
		if err != nil {
			logger.Fatal("storage.connect.failed", zap.Error(err))
		}
		archiver = minioArchiver
		snapshots = minioArchiver
		logger.Info("storage.enabled", zap.String("bucket", cfg.Storage.BucketName))
	}

	// Use cases
	meetingService := meeting.NewService(st.meetings, st.attendees, st.events, archiver, clk, publisher, logger)
	attendeeService := attendee.NewService(st.meetings, st.attendees, clk, publisher, logger)
	floorService := floor.NewService(st.meetings, st.attendees, clk, floorCfg, publisher, logger)
	votingService := voting.NewService(st.meetings, st.attendees, publisher, logger)

	var sweep *sweeper.Sweeper
	if cfg.Sweeper.Enabled {
		sweep = sweeper.New(meetingService, floorService, sweeper.Config{
			Interval:       cfg.Sweeper.Interval,
			MeetingTimeout: cfg.Sweeper.MeetingTimeout,
			Concurrency:    cfg.Sweeper.Concurrency,
		}, logger)
		if err := sweep.Start(ctx); err != nil {
			logger.Fatal("sweeper.start.failed", zap.Error(err))
		}
	}

	// HTTP
	codeCache := cache.NewMemoryStore(time.Minute)
	defer codeCache.Close()

	tokens := jwt.NewManager(cfg.JWT.AdminSecret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			httpmw.HeaderMeetingID,
			httpmw.HeaderMeetingCode,
		},
	}))

	router := handler.NewRouter(
		cfg,
		logger,
		handler.NewMeetingHandler(meetingService, floorService, hub, snapshots, logger),
		handler.NewAttendeeHandler(attendeeService, floorService, votingService, logger),
		httpmw.NewAuthMiddleware(tokens),
		httpmw.NewMeetingAccess(meetingService, attendeeService, codeCache, codeCacheTTL),
		pkgMiddleware.NewIPRateLimiter(cfg.RateLimit.RegisterRPS, cfg.RateLimit.RegisterBurst),
	)
	router.Setup(e)

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("server.starting",
			zap.String("addr", addr),
			zap.String("db_driver", cfg.Database.Driver),
			zap.Bool("redis", cfg.Redis.Enabled),
			zap.Bool("sweeper", cfg.Sweeper.Enabled),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server.start.failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("server.stopping")

	if sweep != nil {
		if err := sweep.Stop(); err != nil {
			logger.Warn("sweeper.stop.failed", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown.forced", zap.Error(err))
	}
	cancel()

	logger.Info("server.stopped")
}

// openStores selects the in-memory store or Postgres, applying migrations when enabled
func openStores(cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("storage.memory", zap.String("note", "state is lost on restart"))
		store := memory.NewStore()
		return &stores{
			meetings:  store.Meetings(),
			attendees: store.Attendees(),
			events:    store.Events(),
			close:     func() {},
		}, nil
	}

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if _, err := database.Migrate(db, cfg.Database.MigrationsDir, migrate.Up, 0, logger); err != nil {
			_ = database.CloseDB(db)
			return nil, err
		}
	}

	return &stores{
		meetings:  repository.NewMeetingRepository(db),
		attendees: repository.NewAttendeeRepository(db),
		events:    repository.NewEventRepository(db),
		close: func() {
			if err := database.CloseDB(db); err != nil {
				logger.Warn("database.close.failed", zap.Error(err))
			}
		},
	}, nil
}
