package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/config"
	"github.com/dvloznov/receipt-ledger/internal/infra/postgres"
	"github.com/dvloznov/receipt-ledger/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	dbURL := flag.String("db", cfg.DatabaseURL, "PostgreSQL connection URL (or set DB_URL env)")
	appliedBy := flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	migrationsDir := flag.String("migrations", "", "Directory of NNNN_name.sql files (defaults to the embedded set)")
	list := flag.Bool("list", false, "List pending migrations without applying them")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal().Msg("Error: -db flag or DB_URL is required")
	}

	migrations, err := loadMigrations(*migrationsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	db, err := postgres.Open(config.NormalizeDatabaseURL(*dbURL), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgres.Close(db)

	if *list {
		var applied []postgres.AppliedMigration
		if err := db.WithContext(ctx).AutoMigrate(&postgres.AppliedMigration{}); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure schema_migrations table")
		}
		if err := db.WithContext(ctx).Find(&applied).Error; err != nil {
			log.Fatal().Err(err).Msg("Failed to read applied migrations")
		}
		for _, m := range postgres.PendingMigrations(migrations, applied) {
			fmt.Printf("  [PENDING] %04d_%s\n", m.Version, m.Name)
		}
		return
	}

	appliedCount, err := postgres.Migrate(ctx, db, migrations, *appliedBy)
	if err != nil {
		log.Fatal().Err(err).Int("applied", appliedCount).Msg("Migration failed")
	}

	if appliedCount == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
	} else {
		log.Info().Int("applied", appliedCount).Msg("Successfully applied migrations")
	}
}

// loadMigrations reads migrations from dir, or the embedded set when dir is empty.
func loadMigrations(dir string) ([]postgres.Migration, error) {
	var fsys fs.FS
	if dir == "" {
		embedded, err := postgres.EmbeddedMigrations()
		if err != nil {
			return nil, err
		}
		fsys = embedded
	} else {
		fsys = os.DirFS(dir)
	}
	return postgres.ReadMigrations(fsys)
}
