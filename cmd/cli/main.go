package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/config"
	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/gcsuploader"
	"github.com/dvloznov/receipt-ledger/internal/infra/postgres"
	"github.com/dvloznov/receipt-ledger/internal/llm"
	"github.com/dvloznov/receipt-ledger/internal/logger"
	"github.com/dvloznov/receipt-ledger/internal/pipeline"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ingest":
		runIngest(cfg, log)
	case "summarize":
		runSummarize(cfg, log)
	case "upload":
		runUpload(cfg, log)
	case "inspect":
		runInspect(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Receipt Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  ingest     Extract and store transactions from receipt images")
	fmt.Println("  summarize  Print a financial summary for a user")
	fmt.Println("  upload     Archive a receipt image in GCS")
	fmt.Println("  inspect    Show a user's transactions or a single transaction")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func openRepository(cfg *config.Config, log zerolog.Logger) *postgres.Repository {
	db, err := postgres.Open(config.NormalizeDatabaseURL(cfg.DatabaseURL), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	return postgres.NewRepository(db)
}

func runIngest(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	userID := fs.String("user", "", "Owner user ID (UUID)")
	var files fileList
	fs.Var(&files, "file", "Local receipt image; repeat or comma-separate for several")
	var gcsURIs fileList
	fs.Var(&gcsURIs, "gcs-uri", "gs:// URI of an archived receipt image; repeatable")
	fs.Parse(os.Args[2:])

	if *userID == "" || (len(files) == 0 && len(gcsURIs) == 0) {
		log.Fatal().Msg("Usage: cli ingest -user ID -file PATH [-file PATH] [-gcs-uri URI]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	uploads, err := readLocalUploads(files)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read receipt files")
	}

	if len(gcsURIs) > 0 {
		storage, err := gcsuploader.NewGCSReceiptStorage(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS client")
		}
		defer storage.Close()

		for _, uri := range gcsURIs {
			upload, err := storage.FetchReceipt(ctx, uri)
			if err != nil {
				log.Fatal().Err(err).Str("gcs_uri", uri).Msg("Failed to fetch receipt")
			}
			uploads = append(uploads, upload)
		}
	}

	repo := openRepository(cfg, log)
	defer postgres.Close(repo.DB())

	ai := llm.New(ctx, llm.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
	result, err := pipeline.NewIngester(ai, repo).Ingest(ctx, *userID, uploads)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("kind", string(domain.KindOf(err))).
			Str("failed_stage", string(result.FailedStage)).
			Msg("Ingestion failed")
	}

	printJSON(result)
}

func runSummarize(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	userID := fs.String("user", "", "User ID (UUID)")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo := openRepository(cfg, log)
	defer postgres.Close(repo.DB())

	ai := llm.New(ctx, llm.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
	summary, err := pipeline.NewAdvisor(ai, repo).Summarize(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Str("kind", string(domain.KindOf(err))).Msg("Summary failed")
	}

	fmt.Println(summary)
}

func runUpload(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", cfg.GCSBucket, "GCS bucket name (or set GCS_BUCKET env)")
	userID := fs.String("user", "", "Owner user ID, used in the object path")
	objectName := fs.String("object", "", "GCS object name (defaults to receipts/<user>/<date>/<uuid>-<file>)")
	filePath := fs.String("file", "", "Path to local receipt image")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" || (*userID == "" && *objectName == "") {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -user ID -file PATH")
	}

	if *objectName == "" {
		*objectName = gcsuploader.ObjectName(*userID, *filePath, time.Now())
	}

	ctx := logger.WithContext(context.Background(), log)

	storage, err := gcsuploader.NewGCSReceiptStorage(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create GCS client")
	}
	defer storage.Close()

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading receipt to GCS")

	uri, err := storage.UploadReceipt(ctx, *bucketName, *objectName, *filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

func runInspect(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	userID := fs.String("user", "", "List this user's transactions")
	transactionID := fs.String("transaction", "", "Show a single transaction")
	fs.Parse(os.Args[2:])

	if *userID == "" && *transactionID == "" {
		log.Fatal().Msg("Error: --user or --transaction is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	repo := openRepository(cfg, log)
	defer postgres.Close(repo.DB())

	if *transactionID != "" {
		tx, err := repo.GetTransaction(ctx, *transactionID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load transaction")
		}
		printTransactions([]*domain.Transaction{tx})
		return
	}

	user, err := repo.GetUser(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load user")
	}
	txs, err := repo.ListTransactionsByUser(ctx, user.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	fmt.Println("\n=== User ===")
	fmt.Printf("ID:       %s\n", user.ID)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Email:    %s\n", user.Email)
	printTransactions(txs)
}

func printTransactions(txs []*domain.Transaction) {
	fmt.Printf("\n=== Transactions (%d) ===\n", len(txs))
	for i, tx := range txs {
		fmt.Printf("\n%d. %s\n", i+1, tx.Detail)
		fmt.Printf("   ID:       %s\n", tx.ID)
		fmt.Printf("   Type:     %s\n", tx.Type)
		fmt.Printf("   Amount:   %.2f\n", tx.Amount)
		if tx.Tag != "" {
			fmt.Printf("   Tag:      %s\n", tx.Tag)
		}
		fmt.Printf("   Created:  %s\n", tx.CreatedAt.Format(time.RFC3339))
	}
	fmt.Println()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
