// Command seed-db loads the product catalog and a staff API key into
// PostgreSQL.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/honey-market/db"
	"github.com/xenking/honey-market/internal/catalog"
	"github.com/xenking/honey-market/internal/domain/auth"
	"github.com/xenking/honey-market/internal/domain/product"
	"github.com/xenking/honey-market/internal/storage/postgres"
)

type options struct {
	databaseURL  string
	catalogFile  string
	apiKey       string
	apiKeyPepper string
}

func main() {
	var opts options
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.catalogFile, "catalog-file", "", "catalog JSON file, optionally gzipped; the embedded catalog when empty")
	flag.StringVar(&opts.apiKey, "api-key", "", "staff API key to seed (or HONEY_SEED_API_KEY env)")
	flag.StringVar(&opts.apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or HONEY_API_KEY_PEPPER env)")
	flag.Parse()

	opts.databaseURL = orEnv(opts.databaseURL, "DATABASE_URL")
	opts.apiKey = orEnv(opts.apiKey, "HONEY_SEED_API_KEY")
	opts.apiKeyPepper = orEnv(opts.apiKeyPepper, "HONEY_API_KEY_PEPPER")
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("seed completed successfully")
}

func orEnv(v, key string) string {
	if v != "" {
		return v
	}
	return os.Getenv(key)
}

func run(ctx context.Context, opts options) error {
	var (
		products []product.Product
		pool     *pgxpool.Pool
	)
	defer func() {
		if pool != nil {
			pool.Close()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = loadCatalog(opts.catalogFile)
		return err
	})
	g.Go(func() error {
		slog.Info("connecting to database")
		p, err := postgres.NewPool(gctx, opts.databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		pool = p
		slog.Info("running migrations")
		if err := postgres.RunMigrations(gctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("upserting products", slog.Int("count", len(products)))
		if err := postgres.NewProductRepository(pool).Upsert(gctx, products); err != nil {
			return errors.Wrap(err, "seed products")
		}
		return nil
	})
	if opts.apiKey != "" {
		g.Go(func() error {
			if err := seedAPIKey(gctx, pool, opts.apiKey, opts.apiKeyPepper); err != nil {
				return errors.Wrap(err, "seed api key")
			}
			return nil
		})
	} else {
		slog.Warn("no API key given, order status updates will be unavailable")
	}
	return g.Wait()
}

func loadCatalog(path string) ([]product.Product, error) {
	if path == "" {
		slog.Info("using embedded catalog")
		products, err := catalog.Parse(db.Catalog)
		if err != nil {
			return nil, errors.Wrap(err, "embedded catalog")
		}
		return products, nil
	}
	slog.Info("reading catalog file", slog.String("path", path))
	products, err := catalog.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %q", path)
	}
	return products, nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	info := auth.APIKeyInfo{
		ID:      "staff",
		KeyHash: auth.HashKey([]byte(pepper), apiKey),
		Name:    "Staff key",
		Scopes:  []string{auth.ScopeOrders},
	}
	if err := postgres.NewAPIKeyRepository(pool).Upsert(ctx, info); err != nil {
		return err
	}
	slog.Info("upserted API key", slog.String("id", info.ID), slog.String("name", info.Name))
	return nil
}
