package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
	"github.com/jomei/notionapi"
)

const (
	// BatchSize defines the number of transactions to process in a single batch
	BatchSize = 100
)

// SyncStats counts what a sync did, or would do in a dry run.
type SyncStats struct {
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
	Failed    int
}

// SyncOptions narrows a sync.
type SyncOptions struct {
	// UserID limits the mirror to one user's transactions when set.
	UserID string
	DryRun bool
}

// SyncTransactions mirrors stored transactions into a Notion database.
// Pages are keyed by their "Transaction ID" property:
// 1. Queries all existing Notion pages
// 2. Archives pages whose transaction no longer exists
// 3. Creates missing pages and updates pages whose transaction changed
// Per-page API failures are logged and counted, not returned.
func SyncTransactions(ctx context.Context, source TransactionSource, notionClient NotionService, notionDBID string, opts SyncOptions) (SyncStats, error) {
	log := logger.FromContext(ctx)
	var stats SyncStats

	log.Info().
		Str("user_id", opts.UserID).
		Bool("dry_run", opts.DryRun).
		Msg("Starting transaction sync to Notion")

	txs, err := listSource(ctx, source, opts.UserID)
	if err != nil {
		return stats, fmt.Errorf("SyncTransactions: failed to query transactions: %w", err)
	}
	log.Info().Int("transaction_count", len(txs)).Msg("Retrieved transactions from database")

	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return stats, fmt.Errorf("SyncTransactions: failed to query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	valid := make(map[string]bool, len(txs))
	for _, tx := range txs {
		valid[tx.ID] = true
	}

	existing := make(map[string]notionapi.Page, len(notionPages))
	for _, page := range notionPages {
		txID := pageText(page, PropTransactionID)
		if opts.UserID != "" && pageText(page, PropUserID) != opts.UserID {
			continue
		}

		if txID != "" && valid[txID] {
			existing[txID] = page
			continue
		}

		// Stale: transaction deleted, or page without a Transaction ID
		if opts.DryRun {
			log.Info().Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would delete stale Notion page")
			stats.Deleted++
			continue
		}
		if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("Failed to delete stale Notion page")
			stats.Failed++
			continue
		}
		stats.Deleted++
	}

	for i := 0; i < len(txs); i += BatchSize {
		end := min(i+BatchSize, len(txs))
		log.Debug().Int("batch_start", i).Int("batch_end", end).Msg("Processing batch")

		for _, tx := range txs[i:end] {
			page, found := existing[tx.ID]
			if found && sameInstant(pageDate(page, PropLastModified), tx.UpdatedAt) {
				stats.Unchanged++
				continue
			}

			if opts.DryRun {
				if found {
					log.Info().Str("transaction_id", tx.ID).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would update existing Notion page")
					stats.Updated++
				} else {
					log.Info().Str("transaction_id", tx.ID).Msg("[DRY RUN] Would create new Notion page")
					stats.Created++
				}
				continue
			}

			props := TransactionToNotionProperties(tx)
			if found {
				if _, err := notionClient.UpdatePage(ctx, string(page.ID), props); err != nil {
					log.Warn().Err(err).Str("transaction_id", tx.ID).Str("page_id", string(page.ID)).Msg("Failed to update Notion page")
					stats.Failed++
					continue
				}
				stats.Updated++
				continue
			}

			created, err := notionClient.CreatePage(ctx, notionDBID, props)
			if err != nil {
				log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to create Notion page")
				stats.Failed++
				continue
			}
			log.Debug().Str("transaction_id", tx.ID).Str("page_id", string(created.ID)).Msg("Created Notion page")
			stats.Created++
		}
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("unchanged", stats.Unchanged).
		Int("deleted", stats.Deleted).
		Int("failed", stats.Failed).
		Msg("Transaction sync completed")

	return stats, nil
}

func listSource(ctx context.Context, source TransactionSource, userID string) ([]*domain.Transaction, error) {
	if userID != "" {
		return source.ListTransactionsByUser(ctx, userID)
	}
	return source.ListTransactions(ctx)
}

// sameInstant compares timestamps at second precision, which is what
// survives a round trip through Notion.
func sameInstant(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// SyncTransaction creates or updates the page of a single transaction,
// looking it up with a filtered query instead of listing the database.
// It returns the page id.
func SyncTransaction(ctx context.Context, tx *domain.Transaction, notionClient NotionService, notionDBID string) (string, error) {
	resp, err := notionClient.QueryDatabase(ctx, notionDBID, TransactionQuery(tx.ID))
	if err != nil {
		return "", fmt.Errorf("SyncTransaction: %w", err)
	}

	props := TransactionToNotionProperties(tx)
	if len(resp.Results) > 0 {
		pageID := string(resp.Results[0].ID)
		if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
			return "", fmt.Errorf("SyncTransaction: %w", err)
		}
		return pageID, nil
	}

	page, err := notionClient.CreatePage(ctx, notionDBID, props)
	if err != nil {
		return "", fmt.Errorf("SyncTransaction: %w", err)
	}
	return string(page.ID), nil
}
