package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/gridrace/internal/api"
	"github.com/mcoot/gridrace/internal/factory"
	redisstorage "github.com/mcoot/gridrace/internal/storage/redis"
	"github.com/mcoot/gridrace/internal/transport/mcp"
	"github.com/mcoot/gridrace/internal/web"
)

const version = "0.1.0"

// hubCleanupInterval is how often stream hubs without clients are dropped
const hubCleanupInterval = time.Minute

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", slog.String("error", err.Error()))
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		logger.Error("failed to start application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	routerCfg := api.RouterConfig{
		Logger:         logger,
		CarService:     app.CarService,
		MapService:     app.MapService,
		GameController: app.GameController,
		HubManager:     app.HubManager,
	}
	if envBool("MCP_ENABLED") {
		routerCfg.MCPHandler = mcp.NewServer(app.CarService, app.GameController, version, logger).Handler()
		logger.Info("MCP endpoint enabled", slog.String("path", "/mcp"))
	}
	apiRouter := api.NewRouter(routerCfg)

	webRouter := web.NewRouter(web.RouterConfig{
		Logger:         logger,
		CarService:     app.CarService,
		MapService:     app.MapService,
		GameController: app.GameController,
		HubManager:     app.HubManager,
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/mcp", apiRouter)
	mux.Handle("/mcp/", apiRouter)
	mux.Handle("/", webRouter)

	serverConfig := api.DefaultServerConfig()
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			logger.Error("invalid PORT", slog.String("port", port))
			os.Exit(1)
		}
		serverConfig.Port = p
	}
	server := api.NewServer(mux, serverConfig, logger)

	go cleanupHubs(ctx, app)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("application shutdown error", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func loadConfig(logger *slog.Logger) (factory.Config, error) {
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
	}

	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	var err error
	if cfg.GameDuration, err = envDuration("GAME_DURATION"); err != nil {
		return cfg, err
	}
	if cfg.BackInHistoryDelay, err = envDuration("BACK_IN_HISTORY_DELAY"); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// envDuration returns zero when the variable is unset so the factory default applies
func envDuration(key string) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + ": " + err.Error())
	}
	if d <= 0 {
		return 0, errors.New(key + " must be positive")
	}
	return d, nil
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func cleanupHubs(ctx context.Context, app *factory.App) {
	ticker := time.NewTicker(hubCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.HubManager.CleanupEmptyHubs()
		}
	}
}
