package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/tripmesh/reservation-backend/internal/config"
	"github.com/tripmesh/reservation-backend/internal/database"
)

// Deletes terminal reservation rows (released or expired) older than the
// retention window. Terminal rows only matter until their validity window has
// passed; after that they are audit noise the upsert path never reuses.
func main() {
	var dbURLFlag string
	var retentionDays int
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.IntVar(&retentionDays, "retention-days", 90, "delete terminal rows older than this many days")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database. Pruning terminal rows older than %d days...\n", retentionDays)

	for _, table := range []string{"seat_reservations", "room_reservations"} {
		query := fmt.Sprintf(`
			DELETE FROM %s
			WHERE status IN ('released', 'expired')
			  AND updated_at < NOW() - ($1 || ' days')::interval`, table)

		result, err := db.Exec(query, retentionDays)
		if err != nil {
			log.Fatalf("failed to prune %s: %v", table, err)
		}
		rows, _ := result.RowsAffected()
		fmt.Printf("%s: %d row(s) pruned\n", table, rows)
	}

	fmt.Println("Done.")
}
