// Command loginflow-server serves the login, registration and password
// reset flows of one loginflow Engine over HTTP.
//
// It reads LOGINFLOW_* variables (optionally from a .env file). Without
// LOGINFLOW_SERVER_REDIS_ADDR it starts an embedded miniredis.
//
// Run:
//
//	go run ./cmd/loginflow-server
//
// Then:
//
//	curl -i -X POST localhost:8080/v1/sessions/login \
//	  -H 'Content-Type: application/json' \
//	  -d '{"identifier":"alice","password":"password123"}'
//	curl -i localhost:8080/v1/dashboard
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/loginflow"
	"github.com/MrEthical07/loginflow/handoff"
	"github.com/MrEthical07/loginflow/internal/rate"
	"github.com/MrEthical07/loginflow/internal/stores"
	transporthttp "github.com/MrEthical07/loginflow/internal/transport/http"
	"github.com/MrEthical07/loginflow/metrics/export/prometheus"
	"github.com/MrEthical07/loginflow/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type serverConfig struct {
	Port              string        `env:"PORT" envDefault:"8080"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND" envDefault:"5"`
	Burst             int           `env:"BURST" envDefault:"10"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	AccessLog         bool          `env:"ACCESS_LOG" envDefault:"true"`
	MaxLoginFailures  int           `env:"MAX_LOGIN_FAILURES" envDefault:"5"`
	FailureWindow     time.Duration `env:"FAILURE_WINDOW" envDefault:"15m"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	var srvCfg serverConfig
	if err := env.ParseWithOptions(&srvCfg, env.Options{Prefix: loginflow.EnvPrefix + "SERVER_"}); err != nil {
		log.Fatalf("server config: %v", err)
	}
	cfg, err := loginflow.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("engine config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(srvCfg.LogLevel)}))

	client, cleanup, err := openRedis(srvCfg.RedisAddr, logger)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer cleanup()

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		log.Fatalf("password hasher: %v", err)
	}
	accounts := stores.NewAccountStore(client, "", hasher, nil)

	engine, err := loginflow.New().
		WithConfig(cfg).
		WithRedis(client).
		WithLogger(logger).
		WithNavigator(handoff.NavigatorFunc(func(route handoff.Route) {
			logger.Info("navigate", "route", string(route))
		})).
		WithNotifier(handoff.NotifierFunc(func(kind handoff.NoticeKind, message string, d time.Duration) {
			logger.Info("notice", "kind", string(kind), "message", message, "duration", d)
		})).
		WithRegistrar(accounts).
		WithAuditSink(loginflow.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	if err := engine.Init(context.Background()); err != nil {
		logger.Warn("session resume failed", "err", err)
	}
	defer engine.Close()

	var metrics http.Handler
	if cfg.Metrics.Enabled {
		metrics = prometheus.New(engine).Handler()
	}

	router, closeRouter := transporthttp.NewRouter(&transporthttp.Deps{
		Engine: engine,
		Limiter: rate.New(client, rate.Config{
			MaxAttempts:      srvCfg.MaxLoginFailures,
			Window:           srvCfg.FailureWindow,
			EnableIPThrottle: true,
		}),
		Metrics:           metrics,
		AllowedOrigins:    srvCfg.AllowedOrigins,
		RequestsPerSecond: srvCfg.RequestsPerSecond,
		Burst:             srvCfg.Burst,
		RequestTimeout:    srvCfg.RequestTimeout,
		RequestLogging:    srvCfg.AccessLog,
	})
	defer closeRouter()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", srvCfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", srvCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// openRedis connects to addr, or to an embedded miniredis when addr is
// empty.
func openRedis(addr string, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		logger.Info("using embedded miniredis", "addr", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("using redis", "addr", addr)
	return client, func() { _ = client.Close() }, nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
