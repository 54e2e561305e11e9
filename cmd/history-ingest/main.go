// Command history-ingest imports historical order exports into PostgreSQL so
// the per-customer order limit sees activity that predates this service.
//
// Exports are gzip-compressed JSON lines, one order per line. Several export
// files can overlap (daily dumps with carry-over), so a bloom filter over
// order codes drops duplicates across files. Files are streamed and decoded
// concurrently; a single writer goroutine owns the filter and the database
// inserts.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/orderdesk/orderdesk/internal/domain/order"
	"github.com/orderdesk/orderdesk/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.0001
	progressEvery = 100_000
)

// exportOrder mirrors the JSON shape of the order API response, which is
// also the shape the nightly export job writes.
type exportOrder struct {
	ID           string `json:"id"`
	CustomerName string `json:"customerName"`
	Email        string `json:"email"`
	Products     []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"products"`
	Total     decimal.Decimal `json:"total"`
	OrderCode string          `json:"orderCode"`
	Timestamp time.Time       `json:"timestamp"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing orders-*.json.gz export files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("history ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("history ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "orders-*.json.gz"))
	if err != nil {
		return errors.Wrap(err, "glob export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no orders-*.json.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return ingest(ctx, repository.NewOrderRepository(pool), files)
}

// ingest decodes all export files concurrently and funnels the rows through
// a single writer that deduplicates and inserts.
func ingest(ctx context.Context, repo *repository.OrderRepository, files []string) error {
	slog.Info("ingesting export files", slog.Int("files", len(files)))

	rows := make(chan exportOrder, 1024)

	g, ctx := errgroup.WithContext(ctx)

	readers, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		readers.Go(decodeFile(ctx, f, rows))
	}
	g.Go(func() error {
		defer close(rows)
		return readers.Wait()
	})
	g.Go(writeOrders(ctx, repo, rows))

	return g.Wait()
}

// decodeFile streams one gzipped export and sends decoded rows downstream.
func decodeFile(ctx context.Context, path string, rows chan<- exportOrder) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var (
			scanner = bufio.NewScanner(gz)
			lineNo  int
		)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lineNo++
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var row exportOrder
			if err := json.Unmarshal(line, &row); err != nil {
				return errors.Wrapf(err, "decode %s line %d", path, lineNo)
			}

			select {
			case rows <- row:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("file decoded", slog.String("path", path), slog.Int("lines", lineNo))
		return nil
	}
}

// writeOrders is the single consumer: it owns the bloom filter, so no
// locking is needed around membership tests.
func writeOrders(ctx context.Context, repo *repository.OrderRepository, rows <-chan exportOrder) func() error {
	return func() error {
		seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

		var inserted, skipped, invalid uint64
		for row := range rows {
			key := row.OrderCode
			if key == "" {
				key = row.ID
			}
			if key == "" {
				invalid++
				continue
			}

			// TestOrAdd treats a rare false positive as a duplicate,
			// which only drops a historical row. Acceptable for limit
			// accounting, where overlap between exports is the norm.
			if seen.TestOrAddString(key) {
				skipped++
				continue
			}

			o := order.Order{
				ID:           row.ID,
				CustomerName: row.CustomerName,
				Email:        row.Email,
				Total:        row.Total,
				OrderCode:    row.OrderCode,
				CreatedAt:    row.Timestamp,
			}
			for _, p := range row.Products {
				o.Lines = append(o.Lines, order.OrderLine{ProductID: p.ProductID, Quantity: p.Quantity})
			}

			if err := repo.Create(ctx, &o); err != nil {
				return errors.Wrapf(err, "insert order %s", key)
			}

			inserted++
			if inserted%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.Uint64("inserted", inserted),
					slog.Uint64("skipped", skipped),
				)
			}
		}

		slog.Info("ingest complete",
			slog.Uint64("inserted", inserted),
			slog.Uint64("skipped_duplicates", skipped),
			slog.Uint64("skipped_invalid", invalid),
		)
		return nil
	}
}
