package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/chat-service/config"
	"github.com/cwrk-planet/chat-service/internal/badgerdb"
	"github.com/cwrk-planet/chat-service/internal/broker"
	"github.com/cwrk-planet/chat-service/internal/logger"
	"github.com/cwrk-planet/chat-service/internal/memory"
	"github.com/cwrk-planet/chat-service/internal/pg"
	"github.com/cwrk-planet/chat-service/internal/postgres"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/scheduler"
	"github.com/cwrk-planet/chat-service/internal/security"
	"github.com/cwrk-planet/chat-service/internal/service"
	grpcx "github.com/cwrk-planet/chat-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/chat-service/internal/transport/http"
	"github.com/cwrk-planet/chat-service/internal/transport/ws"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- config ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- tracing ---
	if cfg.Tracing.Enabled {
		tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// --- storage ---
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("storage unavailable", "driver", cfg.Storage.Driver, "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("storage close", "err", err)
		}
	}()

	// --- services ---
	signer := security.NewJWTSigner([]byte(cfg.Security.JWT.Secret), cfg.Security.JWT.Issuer,
		cfg.Security.JWT.TTL, cfg.Security.JWT.ClockSkew)
	authSvc := service.NewAuthService(store.Users(), signer, security.BcryptConfig{
		Cost:      cfg.Security.Password.BcryptCost,
		MinLength: cfg.Security.Password.MinLength,
	}, nil)
	chatSvc := service.NewChatService(store.Messages(), service.ChatConfig{
		HistoryLimit:  cfg.Chat.HistoryLimit,
		MaxTextLength: cfg.Chat.MaxTextLength,
	}, nil)

	// --- broker & WS ---
	b := broker.New(chatSvc, broker.Options{TypingTTL: cfg.Chat.TypingTTL})
	wsServer := ws.NewServer(b, authSvc, ws.Config{
		PingEvery:      cfg.Chat.PingEvery,
		OutboundQueue:  cfg.Chat.OutboundQueue,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// --- HTTP ---
	router := httpx.NewRouter(httpx.Deps{
		Handler:        httpx.NewHandler(authSvc, chatSvc, b),
		Auth:           authSvc,
		WS:             wsServer.HandleWS,
		Ready:          store.Ping,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	// --- gRPC (health) ---
	grpcSrv := grpcx.NewServer(10 * time.Second)

	// --- jobs ---
	sched, err := scheduler.New()
	if err != nil {
		slog.Error("scheduler init", "err", err)
		os.Exit(1)
	}
	probe := scheduler.StorageProbe(ctx, store, 5*time.Second, grpcSrv.SetServing)
	if err := errors.Join(
		sched.Every(scheduler.JobTypingSweep, cfg.Chat.TypingSweepEvery, scheduler.TypingSweep(b, nil)),
		sched.Every(scheduler.JobStorageProbe, cfg.Chat.HealthProbeEvery, probe),
	); err != nil {
		slog.Error("scheduler jobs", "err", err)
		os.Exit(1)
	}
	probe()
	sched.Start()

	// --- run both servers ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcSrv.Serve(lis); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})

	// --- graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if err := sched.Shutdown(); err != nil {
			slog.Warn("scheduler shutdown", "err", err)
		}
		// hijacked WS соединения http.Server не закрывает
		b.Shutdown()
		grpcSrv.Stop()

		return httpSrv.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
	}
	slog.Info("stopped")
}

func openStore(ctx context.Context, cfg config.Storage) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pg.NewPool(ctx, cfg.Postgres.ToPGConfig())
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.Migrate {
			if err := pg.Migrate(pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return postgres.NewStore(pool), nil
	case config.DriverBadger:
		return badgerdb.Open(badgerdb.Options{Dir: cfg.Badger.Dir, InMemory: cfg.Badger.InMemory})
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
