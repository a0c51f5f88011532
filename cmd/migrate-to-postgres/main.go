// migrate-to-postgres copies the run archive from SQLite to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/wavetiles.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user wavetiles \
//	    -pg-password wavetiles \
//	    -pg-database wavetiles
package main

import (
	"flag"
	"log"

	"github.com/lawnchairsociety/wavetiles/internal/database"
)

func main() {
	sqlitePath := flag.String("sqlite", "data/wavetiles.db", "Path to SQLite run archive")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "wavetiles", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "wavetiles", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	force := flag.Bool("force", false, "Copy into a PostgreSQL archive that already holds runs, skipping runs copied before")
	flag.Parse()

	log.Println("SQLite to PostgreSQL Migration Tool")
	log.Println("====================================")

	log.Printf("Opening SQLite archive: %s", *sqlitePath)
	src, err := database.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite archive: %v", err)
	}
	defer src.Close()

	pg := database.DefaultPostgresConfig()
	pg.Host = *pgHost
	pg.Port = *pgPort
	pg.User = *pgUser
	pg.Password = *pgPassword
	pg.Database = *pgDatabase
	pg.SSLMode = *pgSSLMode

	// Opening runs the schema migrations
	log.Printf("Opening PostgreSQL archive: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	dst, err := database.OpenWithConfig(database.Config{
		Driver:   string(database.DialectPostgres),
		Postgres: pg,
	})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL archive: %v", err)
	}
	defer dst.Close()

	existing, err := dst.CountRuns("")
	if err != nil {
		log.Fatalf("Failed to count PostgreSQL runs: %v", err)
	}
	if existing > 0 && !*force && !*dryRun {
		log.Fatalf("PostgreSQL archive already holds %d runs; use -force to append", existing)
	}

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	stats, err := database.CopyRuns(src, dst, *dryRun)
	if err != nil {
		log.Fatalf("Migration stopped after %d runs: %v", stats.Copied, err)
	}

	log.Println("====================================")
	log.Printf("Migration complete! Runs migrated: %d", stats.Copied)
	if stats.Skipped > 0 {
		log.Printf("Runs already present, skipped: %d", stats.Skipped)
	}
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}
