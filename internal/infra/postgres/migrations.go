package postgres

import (
	"context"
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/logger"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migration represents a single migration file
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
	Checksum  string
	AppliedBy string
}

func (AppliedMigration) TableName() string {
	return "schema_migrations"
}

// Pattern to match migration files: 0001_name.sql
var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// EmbeddedMigrations returns the migrations compiled into the binary.
func EmbeddedMigrations() (fs.FS, error) {
	return fs.Sub(embeddedMigrations, "migrations")
}

// ReadMigrations reads every NNNN_name.sql file in fsys, sorted by version.
// Files with another name are skipped.
func ReadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("ReadMigrations: reading directory: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := migrationPattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("ReadMigrations: version %04d used by both %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("ReadMigrations: reading file %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: entry.Name(),
			SQL:      string(content),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// PendingMigrations returns the migrations whose version has not been applied.
func PendingMigrations(all []Migration, applied []AppliedMigration) []Migration {
	done := make(map[int]bool, len(applied))
	for _, am := range applied {
		done[am.Version] = true
	}

	var pending []Migration
	for _, m := range all {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// Migrate applies every pending migration, each in its own transaction
// together with its schema_migrations record. It returns how many were
// applied, including on failure.
func Migrate(ctx context.Context, db *gorm.DB, migrations []Migration, appliedBy string) (int, error) {
	log := logger.FromContext(ctx)

	if err := db.WithContext(ctx).AutoMigrate(&AppliedMigration{}); err != nil {
		return 0, fmt.Errorf("Migrate: ensuring schema_migrations table: %w", err)
	}

	var applied []AppliedMigration
	if err := db.WithContext(ctx).Order("version ASC").Find(&applied).Error; err != nil {
		return 0, fmt.Errorf("Migrate: reading applied migrations: %w", err)
	}

	checksums := make(map[int]string, len(applied))
	for _, am := range applied {
		checksums[am.Version] = am.Checksum
	}
	for _, m := range migrations {
		if sum, ok := checksums[m.Version]; ok && sum != "" && sum != m.Checksum {
			log.Warn().Int("version", m.Version).Str("name", m.Name).Msg("Applied migration has changed since it ran")
		}
	}

	pending := PendingMigrations(migrations, applied)
	for i, m := range pending {
		log.Info().Msgf("  [RUN]  %04d_%s", m.Version, m.Name)

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.SQL).Error; err != nil {
				return fmt.Errorf("executing: %w", err)
			}
			return tx.Create(&AppliedMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now().UTC(),
				Checksum:  m.Checksum,
				AppliedBy: appliedBy,
			}).Error
		})
		if err != nil {
			return i, fmt.Errorf("Migrate: migration %04d_%s: %w", m.Version, m.Name, err)
		}

		log.Info().Msgf("  [OK]   %04d_%s", m.Version, m.Name)
	}

	return len(pending), nil
}
