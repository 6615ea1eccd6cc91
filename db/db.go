package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/padraicbc/raceprep/config"
	"github.com/padraicbc/raceprep/models"
)

// Setup opens the SQLite database using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	return Open(cfg.DBPath, cfg.Debug)
}

// Open opens a SQLite database at the given path. SQLite handles one writer
// at a time, so the pool is capped at a single connection.
func Open(path string, debug bool) *bun.DB {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", path)
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Fatal("failed to open database:", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Race)(nil),
		(*models.Task)(nil),
		(*models.PersonalizationProfile)(nil),
		(*models.Settings)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS tasks_race_id_idx ON tasks (race_id)`,
		`CREATE INDEX IF NOT EXISTS races_date_idx ON races (date)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("index: %v", err)
		}
	}

	return nil
}
