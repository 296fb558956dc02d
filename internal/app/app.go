// Package app wires the storefront's dependencies and runs the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/honey-market/db"
	"github.com/xenking/honey-market/internal/catalog"
	"github.com/xenking/honey-market/internal/domain/auth"
	"github.com/xenking/honey-market/internal/domain/cart"
	"github.com/xenking/honey-market/internal/domain/order"
	"github.com/xenking/honey-market/internal/domain/product"
	"github.com/xenking/honey-market/internal/domain/session"
	"github.com/xenking/honey-market/internal/handler"
	"github.com/xenking/honey-market/internal/storage/memory"
	"github.com/xenking/honey-market/internal/storage/postgres"
	"github.com/xenking/honey-market/internal/storage/redis"
	"github.com/xenking/honey-market/pkg/health"
	"github.com/xenking/honey-market/pkg/httpmiddleware"
)

// deps are the storage-backed collaborators selected by configuration.
type deps struct {
	products product.Repository
	orders   order.Repository
	apikeys  auth.Repository
	sessions session.Store
	limiter  httpmiddleware.Limiter
	health   *health.Health
	sweepers []func(ctx context.Context, interval time.Duration) error
	closers  []func()
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("session_backend", cfg.SessionBackend),
	)

	d, err := setup(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	carts := cart.NewService(d.products)
	orders := order.NewService(d.products, d.sessions, d.orders)
	h, err := handler.New(handler.Config{
		MeterProvider:  m.MeterProvider(),
		TracerProvider: m.TracerProvider(),
	}, d.products, carts, orders, d.sessions, auth.NewAuthenticator(d.apikeys, []byte(cfg.APIKeyPepper)))
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", d.health.LiveEndpoint)
	mux.HandleFunc("GET /readyz", d.health.ReadyEndpoint)
	mux.Handle("/api/", httpmiddleware.Wrap(h.Routes(),
		httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
			Limiter: d.limiter,
			Max:     cfg.RateLimit.Max,
		}),
		httpmiddleware.Session(cfg.SessionTTL),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.LogRequests(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				Origins:          cfg.CORS.Origins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
		),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.health.Run(ctx, 10*time.Second)
	})
	if wl, ok := d.limiter.(*httpmiddleware.WindowLimiter); ok {
		g.Go(func() error {
			return wl.RunSweeper(ctx, 2*cfg.RateLimit.Window)
		})
	}
	for _, sweep := range d.sweepers {
		g.Go(func() error {
			return sweep(ctx, time.Hour)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		d.health.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		d.health.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}

// setup selects storage backends. Products, orders and API keys live in
// PostgreSQL when a database is configured and in memory otherwise; the
// session store follows cfg.SessionBackend.
func setup(ctx context.Context, lg *zap.Logger, cfg *Config) (_ *deps, rerr error) {
	d := &deps{health: health.New()}
	defer func() {
		if rerr != nil {
			d.close()
		}
	}()
	d.health.AddLiveness(health.Check{
		Name: "goroutines",
		Func: health.GoroutineCountCheck(10000),
	})

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		if pool, err = postgres.NewPool(ctx, cfg.DatabaseURL); err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		d.closers = append(d.closers, pool.Close)
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
		d.health.AddReadiness(health.Check{
			Name:    "postgres",
			Timeout: 5 * time.Second,
			Func:    health.PingCheck(pool),
		})

		d.products = postgres.NewProductRepository(pool)
		d.orders = postgres.NewOrderRepository(pool)
		d.apikeys = postgres.NewAPIKeyRepository(pool)
	} else {
		products, err := loadCatalog(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		lg.Info("Catalog loaded", zap.Int("products", len(products)))

		keys := memory.NewAPIKeyRepository()
		if cfg.StaffAPIKey != "" {
			keys.Add(auth.APIKeyInfo{
				ID:      "staff",
				KeyHash: auth.HashKey([]byte(cfg.APIKeyPepper), cfg.StaffAPIKey),
				Name:    "staff",
				Scopes:  []string{auth.ScopeOrders},
			})
		}
		d.products = memory.NewProductRepository(products)
		d.orders = memory.NewOrderRepository()
		d.apikeys = keys
	}

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		if rdb, err = redis.Open(ctx, cfg.RedisURL); err != nil {
			return nil, errors.Wrap(err, "open redis")
		}
		d.closers = append(d.closers, func() { _ = rdb.Close() })
		d.health.AddReadiness(health.Check{
			Name: "redis",
			Func: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		d.limiter = redis.NewLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window)
	} else {
		d.limiter = httpmiddleware.NewWindowLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	}

	switch cfg.SessionBackend {
	case BackendRedis:
		d.sessions = redis.NewKV(rdb, cfg.SessionTTL)
	case BackendPostgres:
		kv := postgres.NewKV(pool, cfg.SessionTTL)
		d.sessions = kv
		d.sweepers = append(d.sweepers, kv.RunSweeper)
	default:
		d.sessions = memory.NewKV()
	}
	return d, nil
}

func loadCatalog(path string) ([]product.Product, error) {
	if path == "" {
		products, err := catalog.Parse(db.Catalog)
		if err != nil {
			return nil, errors.Wrap(err, "embedded catalog")
		}
		return products, nil
	}
	products, err := catalog.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %q", path)
	}
	return products, nil
}
