package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/config"
	"github.com/dvloznov/receipt-ledger/internal/infra/postgres"
	"github.com/dvloznov/receipt-ledger/internal/logger"
	"github.com/dvloznov/receipt-ledger/internal/notionsync"
)

func main() {
	cfg := config.Load()

	// Initialize structured logger
	log := logger.NewWithLevel(cfg.LogLevel)

	// Parse CLI flags
	notionToken := flag.String("notion-token", cfg.NotionToken, "Notion API token (or set NOTION_TOKEN env)")
	notionDBID := flag.String("notion-db-id", cfg.NotionDBID, "Notion database ID (or set NOTION_DATABASE_ID env)")
	userID := flag.String("user", "", "Only mirror this user's transactions")
	transactionID := flag.String("transaction", "", "Mirror a single transaction")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	log = logger.WithFields(log, map[string]interface{}{
		"notion_db_id": *notionDBID,
		"dry_run":      *dryRun,
	})
	ctx = logger.WithContext(ctx, log)

	db, err := postgres.Open(config.NormalizeDatabaseURL(cfg.DatabaseURL), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgres.Close(db)
	repo := postgres.NewRepository(db)

	notionClient := notionsync.NewNotionClient(*notionToken)

	if *transactionID != "" {
		tx, err := repo.GetTransaction(ctx, *transactionID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load transaction")
		}
		if *dryRun {
			fmt.Printf("Would sync transaction %s\n", tx.ID)
			return
		}
		pageID, err := notionsync.SyncTransaction(ctx, tx, notionClient, *notionDBID)
		if err != nil {
			log.Fatal().Err(err).Msg("Sync failed")
		}
		fmt.Printf("Synced transaction %s to page %s\n", tx.ID, pageID)
		return
	}

	stats, err := notionsync.SyncTransactions(ctx, repo, notionClient, *notionDBID, notionsync.SyncOptions{
		UserID: *userID,
		DryRun: *dryRun,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d unchanged, %d archived, %d failed\n",
		stats.Created, stats.Updated, stats.Unchanged, stats.Deleted, stats.Failed)
}
