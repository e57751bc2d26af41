// Command seed-db applies the schema and seeds the database: the product
// catalog from one or more gzip-compressed JSONL dumps, an API key for
// local development, and a demo shipping address for that key's owner.
package main

import (
	"bufio"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sulaiman-00/FoodCart/internal/repository"
)

const progressEvery = 50_000

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
}

func main() {
	var (
		databaseURL  string
		catalogFiles string
		apiKey       string
		apiKeyPepper string
		ownerID      string
		seller       bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFiles, "catalog-files", "db/seed/catalog.jsonl.gz", "comma-separated gzip JSONL catalog dumps")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or FOODCART_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or FOODCART_API_KEY_PEPPER env)")
	flag.StringVar(&ownerID, "owner-id", "dev-user", "owner the seeded API key acts for")
	flag.BoolVar(&seller, "seller", false, "grant the seller scope to the seeded API key")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("FOODCART_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or FOODCART_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("FOODCART_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	files := strings.Split(catalogFiles, ",")
	if err := run(ctx, databaseURL, files, apiKey, apiKeyPepper, ownerID, seller); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, apiKey, pepper, ownerID string, seller bool) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, files); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper, ownerID, seller); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	if err := seedAddress(ctx, pool, ownerID); err != nil {
		return errors.Wrap(err, "seed address")
	}

	return nil
}

// seedCatalog ingests all dump files concurrently, one goroutine per file.
func seedCatalog(ctx context.Context, pool *pgxpool.Pool, files []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(ingestCatalogFile(ctx, pool, strings.TrimSpace(f)))
	}
	return g.Wait()
}

func ingestCatalogFile(ctx context.Context, pool *pgxpool.Pool, path string) func() error {
	const upsertProductSQL = `INSERT INTO products (id, name, category, price, image_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, category = EXCLUDED.category,
		    price = EXCLUDED.price, image_url = EXCLUDED.image_url`

	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var count uint64
		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var p productJSON
			if err := json.Unmarshal(line, &p); err != nil {
				return errors.Wrapf(err, "parse product in %s", path)
			}

			if _, err := pool.Exec(ctx, upsertProductSQL,
				p.ID, p.Name, p.Category, p.Price, p.ImageURL,
			); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.ID)
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("catalog progress", slog.String("file", path), slog.Uint64("products", count))
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("catalog file done", slog.String("file", path), slog.Uint64("products", count))
		return nil
	}
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper, ownerID string, seller bool) error {
	const insertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, owner_id, name, scopes, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (key_hash) DO NOTHING`

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	hash := hex.EncodeToString(mac.Sum(nil))

	scopes := []string{"customer"}
	if seller {
		scopes = append(scopes, "seller")
	}

	if _, err := pool.Exec(ctx, insertAPIKeySQL,
		uuid.New().String(), hash, ownerID, "seeded key", scopes,
	); err != nil {
		return errors.Wrap(err, "insert api key")
	}

	slog.Info("api key seeded", slog.String("owner_id", ownerID), slog.Bool("seller", seller))
	return nil
}

func seedAddress(ctx context.Context, pool *pgxpool.Pool, ownerID string) error {
	const insertAddressSQL = `INSERT INTO addresses (id, owner_id, street, city, state, zip_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	if _, err := pool.Exec(ctx, insertAddressSQL,
		"addr-"+ownerID, ownerID, "1 Demo Street", "Devville", "CA", "00000", "US",
	); err != nil {
		return errors.Wrap(err, "insert address")
	}
	return nil
}
