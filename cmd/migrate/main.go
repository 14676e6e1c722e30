package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS participations CASCADE`,
		`DROP TABLE IF EXISTS winners CASCADE`,
		`DROP TABLE IF EXISTS draw_entries CASCADE`,
		`DROP TABLE IF EXISTS draws CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		// Draw aggregates. Both variants share the table, nullable schedule
		// columns apply to major draws only.
		`CREATE TABLE IF NOT EXISTS draws (
			id UUID PRIMARY KEY,
			draw_type VARCHAR(10) NOT NULL CHECK (draw_type IN ('major', 'mini')),
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			cycle BIGINT NOT NULL DEFAULT 1 CHECK (cycle >= 1),
			total_entries BIGINT NOT NULL DEFAULT 0 CHECK (total_entries >= 0),
			minimum_entries BIGINT NOT NULL DEFAULT 0,
			prize JSONB NOT NULL,
			configuration_locked BOOLEAN NOT NULL DEFAULT false,
			locked_at TIMESTAMPTZ,
			latest_winner_id UUID,
			draw_date TIMESTAMPTZ,
			activation_date TIMESTAMPTZ,
			freeze_entries_at TIMESTAMPTZ,
			start_date TIMESTAMPTZ,
			end_date TIMESTAMPTZ,
			month_bucket DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		// Entry ledger. The bigserial position preserves insertion order,
		// which fixes each participant's ticket range.
		`CREATE TABLE IF NOT EXISTS draw_entries (
			position BIGSERIAL PRIMARY KEY,
			draw_id UUID NOT NULL REFERENCES draws(id) ON DELETE CASCADE,
			participant_id VARCHAR(255) NOT NULL,
			total_entries BIGINT NOT NULL CHECK (total_entries > 0),
			purchase_entries BIGINT NOT NULL DEFAULT 0,
			membership_entries BIGINT NOT NULL DEFAULT 0,
			free_entries BIGINT NOT NULL DEFAULT 0,
			package_entries BIGINT NOT NULL DEFAULT 0,
			upsell_entries BIGINT NOT NULL DEFAULT 0,
			other_entries BIGINT NOT NULL DEFAULT 0,
			first_added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE(draw_id, participant_id)
		)`,

		// Winner history is append-only. One winner per cycle of a draw.
		`CREATE TABLE IF NOT EXISTS winners (
			id UUID PRIMARY KEY,
			draw_id UUID NOT NULL REFERENCES draws(id) ON DELETE CASCADE,
			draw_type VARCHAR(10) NOT NULL,
			participant_id VARCHAR(255) NOT NULL,
			entry_number BIGINT NOT NULL CHECK (entry_number >= 1),
			cycle BIGINT NOT NULL,
			selected_at TIMESTAMPTZ NOT NULL,
			selection_method VARCHAR(40) NOT NULL,
			selected_by VARCHAR(255) NOT NULL,
			prize_snapshot JSONB NOT NULL,
			image_url TEXT,
			notified BOOLEAN NOT NULL DEFAULT false,
			UNIQUE(draw_id, cycle)
		)`,

		// Cached per-participant state, reset when a cycle concludes
		`CREATE TABLE IF NOT EXISTS participations (
			draw_id UUID NOT NULL REFERENCES draws(id) ON DELETE CASCADE,
			participant_id VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			cached_entries BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (draw_id, participant_id)
		)`,

		// At most one non-terminal major draw per civil month. Creation
		// relies on this index, not just its pre-insert conflict check.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_draws_major_month_live ON draws(month_bucket)
			WHERE draw_type = 'major' AND status NOT IN ('completed', 'cancelled')`,
		`CREATE INDEX IF NOT EXISTS idx_draws_type_status ON draws(draw_type, status)`,
		`CREATE INDEX IF NOT EXISTS idx_draws_draw_date ON draws(draw_date)`,
		`CREATE INDEX IF NOT EXISTS idx_draw_entries_draw_id ON draw_entries(draw_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_winners_draw_id ON winners(draw_id, cycle)`,
		`CREATE INDEX IF NOT EXISTS idx_winners_participant ON winners(participant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_participations_participant ON participations(participant_id)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", objectName(query))
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	query := `
		INSERT INTO draws (
			id, draw_type, name, description, status, cycle, total_entries,
			minimum_entries, prize
		) VALUES (
			gen_random_uuid(), 'mini', 'Weekly Mini Draw',
			'Recurring mini draw seeded for local development',
			'active', 1, 0, 100,
			'{"name": "Gift Card", "description": "Store gift card", "value": 250}'::jsonb
		)
	`

	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed draws: %w", err)
	}

	fmt.Println("  Seeded 1 mini draw")
	return nil
}

func objectName(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		if strings.EqualFold(f, "EXISTS") && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	if len(fields) > 2 {
		return fields[2]
	}
	return query
}
