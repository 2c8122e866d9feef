package repository

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteStore implements Store using SQLite. WAL mode plus a single writer
// connection keeps concurrent consumer loops and HTTP handlers safe.
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens (and bootstraps) a SQLite-backed store.
// dbPath is the path to the database file (e.g., "./data/laklak.db").
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return &SQLiteStore{sqlStore{db: db}}, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_id INTEGER NOT NULL,
		type TEXT NOT NULL DEFAULT 'other',
		name TEXT NOT NULL,
		info TEXT NOT NULL DEFAULT '',
		price INTEGER NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_provider ON products(provider_id, is_deleted);

	CREATE TABLE IF NOT EXISTS packages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		target_group TEXT NOT NULL DEFAULT '',
		total_price INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		score_sum INTEGER NOT NULL DEFAULT 0,
		score_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS package_products (
		package_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		PRIMARY KEY (package_id, product_id)
	);
	CREATE INDEX IF NOT EXISTS idx_package_products_product ON package_products(product_id);

	CREATE TABLE IF NOT EXISTS inventory_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		previous_stock INTEGER NOT NULL,
		new_stock INTEGER NOT NULL,
		transaction_type TEXT NOT NULL,
		notes TEXT,
		performed_by INTEGER,
		timestamp DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_product_time ON inventory_transactions(product_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_transactions_type ON inventory_transactions(transaction_type);

	CREATE TABLE IF NOT EXISTS low_stock_alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		stock_level INTEGER NOT NULL,
		threshold INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL,
		acknowledged_by INTEGER,
		acknowledged_at DATETIME,
		resolved_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_product_status ON low_stock_alerts(product_id, status);

	CREATE TABLE IF NOT EXISTS price_change_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		old_price INTEGER NOT NULL,
		new_price INTEGER NOT NULL,
		changed_by INTEGER,
		changed_at DATETIME NOT NULL,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_price_changes_product_time ON price_change_logs(product_id, changed_at);
	`
	_, err := db.Exec(query)
	return err
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
