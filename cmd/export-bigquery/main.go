package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/config"
	"github.com/dvloznov/receipt-ledger/internal/infra/bigquery"
	"github.com/dvloznov/receipt-ledger/internal/infra/postgres"
	"github.com/dvloznov/receipt-ledger/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	project := flag.String("project", cfg.BigQueryProject, "GCP project (or set BIGQUERY_PROJECT env)")
	dataset := flag.String("dataset", cfg.BigQueryDataset, "BigQuery dataset (or set BIGQUERY_DATASET env)")
	sinceStr := flag.String("since", "", "Export rows modified after this RFC3339 time (default: latest exported)")
	full := flag.Bool("full", false, "Export every transaction")
	flag.Parse()

	if *project == "" {
		log.Fatal().Msg("Error: --project is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	db, err := postgres.Open(config.NormalizeDatabaseURL(cfg.DatabaseURL), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgres.Close(db)
	repo := postgres.NewRepository(db)

	exporter, err := bigquery.NewExporter(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer exporter.Close()

	if err := exporter.EnsureTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare export table")
	}

	since, err := exportWindow(ctx, exporter, *sinceStr, *full)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve export window")
	}

	txs, err := repo.ListTransactionsModifiedSince(ctx, since)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	log.Info().
		Time("since", since).
		Int("transaction_count", len(txs)).
		Msg("Exporting transactions to BigQuery")

	n, err := exporter.Export(ctx, txs)
	if err != nil {
		log.Fatal().Err(err).Int("exported", n).Msg("Export failed")
	}

	fmt.Printf("Exported %d transactions to %s.%s\n", n, *project, *dataset)
}

type latestModifier interface {
	LatestModified(ctx context.Context) (time.Time, error)
}

// exportWindow picks the lower bound of the export: zero for a full export,
// the explicit -since value, or the newest row already in BigQuery.
func exportWindow(ctx context.Context, src latestModifier, since string, full bool) (time.Time, error) {
	switch {
	case full:
		return time.Time{}, nil
	case since != "":
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid -since %q, expected RFC3339: %w", since, err)
		}
		return t, nil
	default:
		return src.LatestModified(ctx)
	}
}
