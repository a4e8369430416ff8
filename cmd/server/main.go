package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"intentgate/internal/activity"
	jwttoken "intentgate/internal/jwt_token"
	"intentgate/internal/platform/config"
	"intentgate/internal/platform/httpserver"
	"intentgate/internal/platform/logger"
	platformMetrics "intentgate/internal/platform/metrics"
	"intentgate/internal/platform/postgres"
	platformRedis "intentgate/internal/platform/redis"
	portfolioStore "intentgate/internal/portfolio/store"
	proxyHandler "intentgate/internal/proxy/handler"
	proxyMetrics "intentgate/internal/proxy/metrics"
	proxyService "intentgate/internal/proxy/service"
	signerClient "intentgate/internal/signer/client"
	"intentgate/internal/signer/listener"
	signerService "intentgate/internal/signer/service"
	signerStore "intentgate/internal/signer/store"
	"intentgate/pkg/platform/circuit"
	"intentgate/pkg/platform/httputil"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("intentgate stopped", "error", err)
		os.Exit(1)
	}
}

type backends struct {
	portfolios portfolioStore.TxStore
	pending    signerStore.Store
	health     []func(context.Context) error
	closers    []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	breaker := circuit.New("signer",
		circuit.WithFailureThreshold(cfg.Signer.BreakerFailures),
		circuit.WithCooldown(cfg.Signer.BreakerCooldown),
	)
	rpc := signerClient.New(cfg.Signer.RPCURL,
		signerClient.WithTimeout(cfg.Signer.Timeout),
		signerClient.WithBreaker(breaker),
		signerClient.WithLogger(log),
	)
	dispatcher, err := signerService.New(rpc, b.pending,
		signerService.WithLogger(log),
		signerService.WithBudget(cfg.Signer.Deposit, cfg.Signer.Gas),
	)
	if err != nil {
		return err
	}

	publisher, err := openPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	if kp, ok := publisher.(*activity.KafkaPublisher); ok {
		defer kp.Close()
	}

	proxy, err := proxyService.New(cfg.Proxy.OwnerID, b.portfolios, dispatcher,
		proxyService.WithLogger(log),
		proxyService.WithMetrics(proxyMetrics.New(reg)),
		proxyService.WithPublisher(publisher),
		proxyService.WithSignerService(cfg.Proxy.SignerServiceID),
	)
	if err != nil {
		return err
	}
	if proxy.SignerServiceID() == "" {
		log.Warn("proxy starts uninitialized; sign calls fail until initialize runs")
	}

	httpMetrics := platformMetrics.New(reg)
	r := chi.NewRouter()
	r.Get("/healthz", healthz(b.health))
	r.Handle("/metrics", platformMetrics.Handler(reg))
	jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, jwttoken.DefaultAudience)
	proxyHandler.New(proxy, jwt, log, httpMetrics).Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	if cfg.Signer.ListenerURL != "" {
		l := listener.New(cfg.Signer.ListenerURL, proxy, listener.WithLogger(log))
		g.Go(func() error {
			return l.Run(gctx)
		})
	}

	log.Info("intentgate started",
		"addr", cfg.Server.Addr,
		"owner_id", cfg.Proxy.OwnerID,
		"postgres", cfg.Postgres.URL != "",
		"redis", cfg.Redis.URL != "",
		"kafka", len(cfg.Kafka.Brokers) > 0,
	)
	return g.Wait()
}

func openBackends(ctx context.Context, cfg config.Config, log *slog.Logger) (*backends, error) {
	b := &backends{}
	txOpt := portfolioStore.WithTxTimeout(cfg.Proxy.TxTimeout)

	var db *sql.DB
	if cfg.Postgres.URL != "" {
		var err error
		db, err = postgres.Open(ctx, postgres.Config{
			DSN:             cfg.Postgres.URL,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		b.closers = append(b.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			b.close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		b.portfolios = portfolioStore.NewPostgres(db, txOpt)
		b.health = append(b.health, db.PingContext)
	} else {
		log.Warn("DATABASE_URL not set; portfolio state is in-memory")
		b.portfolios = portfolioStore.NewInMemory(txOpt)
	}

	rc, err := platformRedis.New(ctx, cfg.Redis)
	if err != nil {
		b.close()
		return nil, err
	}
	switch {
	case rc != nil:
		b.closers = append(b.closers, func() { _ = rc.Close() })
		b.health = append(b.health, rc.Health)
		b.pending = signerStore.NewRedis(rc.Client, signerStore.WithTTL(cfg.Redis.PendingTTL))
	case db != nil:
		b.pending = signerStore.NewPostgres(db)
	default:
		b.pending = signerStore.NewInMemory()
	}
	return b, nil
}

func openPublisher(ctx context.Context, cfg config.Kafka, log *slog.Logger) (activity.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return activity.NopPublisher{}, nil
	}
	p, err := activity.NewKafkaPublisher(cfg.Brokers,
		activity.WithTopic(cfg.Topic),
		activity.WithKafkaLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	if err := p.EnsureTopic(ctx, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		log.Warn("activity topic not ensured", "topic", cfg.Topic, "error", err)
	}
	return p, nil
}

func healthz(checks []func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
