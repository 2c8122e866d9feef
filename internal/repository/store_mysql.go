package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore implements Store using MySQL. The DSN must include
// parseTime=true so DATETIME columns scan into time.Time.
type MySQLStore struct {
	sqlStore
}

// NewMySQLStore opens (and bootstraps) a MySQL-backed store.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("[MySQLStore] Initialized")
	return &MySQLStore{sqlStore{db: db}}, nil
}

func createMySQLTables(db *sql.DB) error {
	// MySQL cannot run multiple statements in one Exec by default.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			provider_id BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL DEFAULT 'other',
			name VARCHAR(255) NOT NULL,
			info TEXT,
			price BIGINT NOT NULL DEFAULT 0,
			stock BIGINT NOT NULL DEFAULT 0,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			is_deleted TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			INDEX idx_products_provider (provider_id, is_deleted)
		)`,
		`CREATE TABLE IF NOT EXISTS packages (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			summary VARCHAR(255) NOT NULL DEFAULT '',
			description TEXT,
			target_group VARCHAR(50) NOT NULL DEFAULT '',
			total_price BIGINT NOT NULL DEFAULT 0,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			score_sum BIGINT NOT NULL DEFAULT 0,
			score_count BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS package_products (
			package_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			PRIMARY KEY (package_id, product_id),
			INDEX idx_package_products_product (product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS inventory_transactions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			quantity BIGINT NOT NULL,
			previous_stock BIGINT NOT NULL,
			new_stock BIGINT NOT NULL,
			transaction_type VARCHAR(10) NOT NULL,
			notes TEXT,
			performed_by BIGINT,
			timestamp DATETIME(6) NOT NULL,
			INDEX idx_transactions_product_time (product_id, timestamp),
			INDEX idx_transactions_type (transaction_type)
		)`,
		`CREATE TABLE IF NOT EXISTS low_stock_alerts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			stock_level BIGINT NOT NULL,
			threshold BIGINT NOT NULL,
			status VARCHAR(15) NOT NULL DEFAULT 'pending',
			created_at DATETIME(6) NOT NULL,
			acknowledged_by BIGINT,
			acknowledged_at DATETIME(6),
			resolved_at DATETIME(6),
			INDEX idx_alerts_product_status (product_id, status)
		)`,
		`CREATE TABLE IF NOT EXISTS price_change_logs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			old_price BIGINT NOT NULL,
			new_price BIGINT NOT NULL,
			changed_by BIGINT,
			changed_at DATETIME(6) NOT NULL,
			notes TEXT,
			INDEX idx_price_changes_product_time (product_id, changed_at)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ensure MySQLStore implements Store
var _ Store = (*MySQLStore)(nil)
