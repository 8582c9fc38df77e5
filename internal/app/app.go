package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/viberoom/server/internal/controller"
	connectioninmemory "github.com/viberoom/server/internal/repository/connection/inmemory"
	roomrepo "github.com/viberoom/server/internal/repository/room"
	roominmemory "github.com/viberoom/server/internal/repository/room/inmemory"
	roomredis "github.com/viberoom/server/internal/repository/room/redis"
	"github.com/viberoom/server/internal/service/room"
	"github.com/viberoom/server/pkg/ctxlogger"
	"github.com/viberoom/server/pkg/redisclient"
	"github.com/viberoom/server/pkg/ytcatalog"
)

const (
	RegistryMemory = "memory"
	RegistryRedis  = "redis"
)

type AppConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	LogLevel      string `json:"log_level"`
	MembersLimit  int    `json:"members_limit"`
	QueueLimit    int    `json:"queue_limit"`
	Registry      string `json:"registry"`
	RedisHost     string `json:"redis_host"`
	RedisPort     int    `json:"redis_port"`
	RedisPassword string `json:"-"`
	YouTubeAPIKey string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.QueueLimit < 1 {
		return fmt.Errorf("queue limit must be greater than 0")
	}
	if cfg.Registry != RegistryMemory && cfg.Registry != RegistryRedis {
		return fmt.Errorf("unknown registry backend: %s", cfg.Registry)
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	var registry roomrepo.Registry
	if cfg.Registry == RegistryRedis {
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer rc.Close()

		registry = roomredis.NewRepo(rc, 24*time.Hour)
	} else {
		registry = roominmemory.NewRepo()
	}

	connectionRepo := connectioninmemory.NewRepo()
	roomService := room.NewService(registry, connectionRepo, &room.Config{
		MembersLimit: cfg.MembersLimit,
		QueueLimit:   cfg.QueueLimit,
	}, logger)
	catalog := ytcatalog.NewClient(cfg.YouTubeAPIKey)
	controller := controller.NewController(roomService, catalog, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		controller.Shutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "registry", cfg.Registry)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
