package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"laklak-api/internal/model"
)

// sqlStore implements Store over database/sql. SQLite and MySQL share the
// query text; only schema bootstrap and connection setup differ per backend.
type sqlStore struct {
	db *sql.DB
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// PingContext checks database connectivity for readiness probes.
func (s *sqlStore) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- products ---

func (s *sqlStore) CreateProduct(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (provider_id, type, name, info, price, stock, is_active, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		p.ProviderID, p.Type, p.Name, p.Info, p.Price, p.Stock, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read product id: %w", err)
	}
	return nil
}

func (s *sqlStore) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, provider_id, type, name, info, price, stock, is_active, is_deleted, created_at, updated_at
		FROM products WHERE id = ? AND is_deleted = 0`, id).
		Scan(&p.ID, &p.ProviderID, &p.Type, &p.Name, &p.Info, &p.Price, &p.Stock,
			&p.IsActive, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (s *sqlStore) ListProductsByProvider(ctx context.Context, providerID int64) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider_id, type, name, info, price, stock, is_active, is_deleted, created_at, updated_at
		FROM products WHERE provider_id = ? AND is_deleted = 0 ORDER BY id`, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.ProviderID, &p.Type, &p.Name, &p.Info, &p.Price, &p.Stock,
			&p.IsActive, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *sqlStore) UpdateProduct(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET type = ?, name = ?, info = ?, price = ?, stock = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		p.Type, p.Name, p.Info, p.Price, p.Stock, p.IsActive, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) SoftDeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET is_deleted = 1, updated_at = ? WHERE id = ? AND is_deleted = 0`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// placeholders builds "?, ?, ?" for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (s *sqlStore) snapshotStocks(ctx context.Context, providerID int64, ids []int64) (map[int64]int64, error) {
	query := `SELECT id, stock FROM products WHERE provider_id = ? AND is_deleted = 0`
	args := []interface{}{providerID}
	if len(ids) > 0 {
		query += ` AND id IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stocks := make(map[int64]int64)
	for rows.Next() {
		var id, stock int64
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, err
		}
		stocks[id] = stock
	}
	return stocks, rows.Err()
}

func (s *sqlStore) BulkAdjustStock(ctx context.Context, providerID int64, ids []int64, delta int64) ([]model.StockChange, error) {
	if delta == 0 {
		return nil, nil
	}

	before, err := s.snapshotStocks(ctx, providerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot stocks: %w", err)
	}

	scope := ` WHERE provider_id = ? AND is_deleted = 0`
	scopeArgs := []interface{}{providerID}
	if len(ids) > 0 {
		scope += ` AND id IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			scopeArgs = append(scopeArgs, id)
		}
	}
	now := time.Now().UTC()

	if delta > 0 {
		args := append([]interface{}{delta, now}, scopeArgs...)
		if _, err := s.db.ExecContext(ctx,
			`UPDATE products SET stock = stock + ?, updated_at = ?`+scope, args...); err != nil {
			return nil, fmt.Errorf("failed to bulk add stock: %w", err)
		}
	} else {
		// Floor-at-zero as two conditional bulk updates: rows with enough
		// stock take the full delta, the rest clamp to zero. Each statement
		// is one atomic pass; the gap between the two is an accepted race.
		args := append([]interface{}{delta, now}, append(append([]interface{}{}, scopeArgs...), -delta)...)
		if _, err := s.db.ExecContext(ctx,
			`UPDATE products SET stock = stock + ?, updated_at = ?`+scope+` AND stock > ?`, args...); err != nil {
			return nil, fmt.Errorf("failed to bulk remove stock: %w", err)
		}
		args = append([]interface{}{now}, append(append([]interface{}{}, scopeArgs...), -delta)...)
		if _, err := s.db.ExecContext(ctx,
			`UPDATE products SET stock = 0, updated_at = ?`+scope+` AND stock <= ?`, args...); err != nil {
			return nil, fmt.Errorf("failed to clamp stock: %w", err)
		}
	}

	after, err := s.snapshotStocks(ctx, providerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot stocks: %w", err)
	}

	var changes []model.StockChange
	for id, oldStock := range before {
		if newStock, ok := after[id]; ok && newStock != oldStock {
			changes = append(changes, model.StockChange{ProductID: id, OldStock: oldStock, NewStock: newStock})
		}
	}
	return changes, nil
}

func (s *sqlStore) ApplyStockChange(ctx context.Context, productID int64, kind string, quantity int64, notes string, performedBy *int64) (*model.InventoryTransaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var prev int64
	err = tx.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = ? AND is_deleted = 0`, productID).Scan(&prev)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stock: %w", err)
	}

	now := time.Now().UTC()
	var newStock int64
	switch kind {
	case model.TransactionAdd:
		newStock = prev + quantity
		_, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`, quantity, now, productID)
	case model.TransactionRemove:
		if prev < quantity {
			return nil, ErrInsufficientStock
		}
		newStock = prev - quantity
		_, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ?`, quantity, now, productID)
	case model.TransactionAdjust:
		newStock = quantity
		_, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`, quantity, now, productID)
	default:
		return nil, fmt.Errorf("unknown transaction type %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	// Adjust records the signed delta; add/remove record the moved amount.
	recorded := quantity
	if kind == model.TransactionAdjust {
		recorded = quantity - prev
	}
	rec := &model.InventoryTransaction{
		ProductID:     productID,
		Quantity:      recorded,
		PreviousStock: prev,
		NewStock:      newStock,
		Type:          kind,
		Notes:         notes,
		PerformedBy:   performedBy,
		Timestamp:     now,
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_transactions (product_id, quantity, previous_stock, new_stock, transaction_type, notes, performed_by, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ProductID, rec.Quantity, rec.PreviousStock, rec.NewStock, rec.Type, rec.Notes, rec.PerformedBy, rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert inventory transaction: %w", err)
	}
	rec.ID, _ = res.LastInsertId()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock change: %w", err)
	}
	return rec, nil
}

func (s *sqlStore) ApplyPriceChange(ctx context.Context, productID, newPrice int64, notes string, changedBy *int64) (*model.PriceChangeLog, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldPrice int64
	err = tx.QueryRowContext(ctx,
		`SELECT price FROM products WHERE id = ? AND is_deleted = 0`, productID).Scan(&oldPrice)
	if err == sql.ErrNoRows {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read price: %w", err)
	}
	if oldPrice == newPrice {
		return nil, false, nil
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET price = ?, updated_at = ? WHERE id = ?`, newPrice, now, productID); err != nil {
		return nil, false, fmt.Errorf("failed to update price: %w", err)
	}

	rec := &model.PriceChangeLog{
		ProductID: productID,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
		ChangedBy: changedBy,
		ChangedAt: now,
		Notes:     notes,
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO price_change_logs (product_id, old_price, new_price, changed_by, changed_at, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ProductID, rec.OldPrice, rec.NewPrice, rec.ChangedBy, rec.ChangedAt, rec.Notes)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert price change log: %w", err)
	}
	rec.ID, _ = res.LastInsertId()

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit price change: %w", err)
	}
	return rec, true, nil
}

// --- packages ---

func (s *sqlStore) CreatePackage(ctx context.Context, p *model.Package) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO packages (name, summary, description, target_group, total_price, is_active, score_sum, score_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, 0, 0, ?, ?)`,
		p.Name, p.Summary, p.Description, p.TargetGroup, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read package id: %w", err)
	}
	return nil
}

func (s *sqlStore) GetPackage(ctx context.Context, id int64) (*model.Package, error) {
	var p model.Package
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, summary, description, target_group, total_price, is_active, score_sum, score_count, created_at, updated_at
		FROM packages WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Summary, &p.Description, &p.TargetGroup, &p.TotalPrice,
			&p.IsActive, &p.ScoreSum, &p.ScoreCount, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id FROM package_products WHERE package_id = ? ORDER BY product_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list package products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pid int64
		if err := rows.Scan(&pid); err != nil {
			return nil, fmt.Errorf("failed to scan package product: %w", err)
		}
		p.ProductIDs = append(p.ProductIDs, pid)
	}
	return &p, rows.Err()
}

func (s *sqlStore) AddPackageProduct(ctx context.Context, packageID, productID int64) error {
	if _, err := s.GetPackage(ctx, packageID); err != nil {
		return err
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}
	var member bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM package_products WHERE package_id = ? AND product_id = ?)`,
		packageID, productID).Scan(&member)
	if err != nil {
		return fmt.Errorf("failed membership check: %w", err)
	}
	if member {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO package_products (package_id, product_id) VALUES (?, ?)`,
		packageID, productID); err != nil {
		return fmt.Errorf("failed to add package product: %w", err)
	}
	return nil
}

func (s *sqlStore) RemovePackageProduct(ctx context.Context, packageID, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM package_products WHERE package_id = ? AND product_id = ?`, packageID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove package product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) ClearPackageProducts(ctx context.Context, packageID int64) error {
	if _, err := s.GetPackage(ctx, packageID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM package_products WHERE package_id = ?`, packageID); err != nil {
		return fmt.Errorf("failed to clear package products: %w", err)
	}
	return nil
}

func (s *sqlStore) RecomputePackagePrice(ctx context.Context, packageID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE packages SET total_price = COALESCE((
			SELECT SUM(p.price) FROM products p
			JOIN package_products pp ON pp.product_id = p.id
			WHERE pp.package_id = packages.id AND p.is_deleted = 0
		), 0), updated_at = ?
		WHERE id = ?`, time.Now().UTC(), packageID)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute package price: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT total_price FROM packages WHERE id = ?`, packageID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to read package price: %w", err)
	}
	return total, nil
}

func (s *sqlStore) PackagesContaining(ctx context.Context, productID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT package_id FROM package_products WHERE product_id = ? ORDER BY package_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find packages containing product: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan package id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- inventory audit / alerts ---

func (s *sqlStore) RecordInventoryEvent(ctx context.Context, rec model.InventoryTransaction, window time.Duration, threshold int64) (bool, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	cutoff := rec.Timestamp.Add(-window)

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM inventory_transactions
			WHERE product_id = ? AND previous_stock = ? AND new_stock = ? AND timestamp >= ?
		)`, rec.ProductID, rec.PreviousStock, rec.NewStock, cutoff).Scan(&exists)
	if err != nil {
		return false, false, fmt.Errorf("failed dedup check: %w", err)
	}

	created := false
	if !exists {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_transactions (product_id, quantity, previous_stock, new_stock, transaction_type, notes, performed_by, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ProductID, rec.Quantity, rec.PreviousStock, rec.NewStock, rec.Type,
			rec.Notes, rec.PerformedBy, rec.Timestamp); err != nil {
			return false, false, fmt.Errorf("failed to insert inventory transaction: %w", err)
		}
		created = true
	}

	// Alert evaluation runs even for duplicate transactions: redelivery must
	// still converge on exactly one open alert per product.
	alerted := false
	if rec.NewStock <= threshold {
		var open bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM low_stock_alerts
				WHERE product_id = ? AND status IN (?, ?)
			)`, rec.ProductID, model.AlertPending, model.AlertAcknowledged).Scan(&open)
		if err != nil {
			return false, false, fmt.Errorf("failed open-alert check: %w", err)
		}
		if !open {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO low_stock_alerts (product_id, stock_level, threshold, status, created_at)
				VALUES (?, ?, ?, ?, ?)`,
				rec.ProductID, rec.NewStock, threshold, model.AlertPending, rec.Timestamp); err != nil {
				return false, false, fmt.Errorf("failed to insert low stock alert: %w", err)
			}
			alerted = true
		}
	}

	if err := tx.Commit(); err != nil {
		return false, false, fmt.Errorf("failed to commit inventory event: %w", err)
	}
	return created, alerted, nil
}

func (s *sqlStore) RecordPriceChange(ctx context.Context, rec model.PriceChangeLog, window time.Duration) (bool, error) {
	if rec.ChangedAt.IsZero() {
		rec.ChangedAt = time.Now().UTC()
	}
	cutoff := rec.ChangedAt.Add(-window)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM price_change_logs
			WHERE product_id = ? AND old_price = ? AND new_price = ? AND changed_at >= ?
		)`, rec.ProductID, rec.OldPrice, rec.NewPrice, cutoff).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed dedup check: %w", err)
	}
	if exists {
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO price_change_logs (product_id, old_price, new_price, changed_by, changed_at, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ProductID, rec.OldPrice, rec.NewPrice, rec.ChangedBy, rec.ChangedAt, rec.Notes); err != nil {
		return false, fmt.Errorf("failed to insert price change log: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit price change: %w", err)
	}
	return true, nil
}

func scanAlert(row interface {
	Scan(dest ...interface{}) error
}) (*model.LowStockAlert, error) {
	var a model.LowStockAlert
	var ackBy sql.NullInt64
	var ackAt, resAt sql.NullTime
	err := row.Scan(&a.ID, &a.ProductID, &a.ProviderID, &a.StockLevel, &a.Threshold,
		&a.Status, &a.CreatedAt, &ackBy, &ackAt, &resAt)
	if err != nil {
		return nil, err
	}
	if ackBy.Valid {
		a.AcknowledgedBy = &ackBy.Int64
	}
	if ackAt.Valid {
		t := ackAt.Time
		a.AcknowledgedAt = &t
	}
	if resAt.Valid {
		t := resAt.Time
		a.ResolvedAt = &t
	}
	return &a, nil
}

const alertColumns = `a.id, a.product_id, p.provider_id, a.stock_level, a.threshold,
	a.status, a.created_at, a.acknowledged_by, a.acknowledged_at, a.resolved_at`

func (s *sqlStore) GetAlert(ctx context.Context, id int64) (*model.LowStockAlert, error) {
	a, err := scanAlert(s.db.QueryRowContext(ctx, `
		SELECT `+alertColumns+`
		FROM low_stock_alerts a JOIN products p ON p.id = a.product_id
		WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

func (s *sqlStore) AcknowledgeAlert(ctx context.Context, id, userID int64, at time.Time) error {
	return s.transitionAlert(ctx, id, []string{model.AlertPending}, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE low_stock_alerts SET status = ?, acknowledged_by = ?, acknowledged_at = ?
			WHERE id = ?`, model.AlertAcknowledged, userID, at, id)
		return err
	})
}

func (s *sqlStore) ResolveAlert(ctx context.Context, id int64, at time.Time) error {
	return s.transitionAlert(ctx, id, []string{model.AlertPending, model.AlertAcknowledged}, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE low_stock_alerts SET status = ?, resolved_at = ?
			WHERE id = ?`, model.AlertResolved, at, id)
		return err
	})
}

// transitionAlert guards a status change: the alert must exist and its
// current status must be one of allowed, otherwise ErrAlertConflict.
func (s *sqlStore) transitionAlert(ctx context.Context, id int64, allowed []string, apply func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM low_stock_alerts WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read alert status: %w", err)
	}

	ok := false
	for _, a := range allowed {
		if status == a {
			ok = true
			break
		}
	}
	if !ok {
		return ErrAlertConflict
	}

	if err := apply(tx); err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alert update: %w", err)
	}
	return nil
}

// --- reporting reads ---

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

func (s *sqlStore) ListTransactions(ctx context.Context, f model.TransactionFilter) ([]model.InventoryTransaction, error) {
	query := `
		SELECT t.id, t.product_id, t.quantity, t.previous_stock, t.new_stock, t.transaction_type, t.notes, t.performed_by, t.timestamp
		FROM inventory_transactions t JOIN products p ON p.id = t.product_id
		WHERE 1 = 1`
	var args []interface{}
	if f.ProviderID != 0 {
		query += ` AND p.provider_id = ?`
		args = append(args, f.ProviderID)
	}
	if f.ProductID != 0 {
		query += ` AND t.product_id = ?`
		args = append(args, f.ProductID)
	}
	if f.Type != "" {
		query += ` AND t.transaction_type = ?`
		args = append(args, f.Type)
	}
	if !f.Since.IsZero() {
		query += ` AND t.timestamp >= ?`
		args = append(args, f.Since)
	}
	query += ` ORDER BY t.timestamp DESC, t.id DESC LIMIT ?`
	args = append(args, clampLimit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var recs []model.InventoryTransaction
	for rows.Next() {
		var t model.InventoryTransaction
		var notes sql.NullString
		var by sql.NullInt64
		if err := rows.Scan(&t.ID, &t.ProductID, &t.Quantity, &t.PreviousStock, &t.NewStock,
			&t.Type, &notes, &by, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Notes = notes.String
		if by.Valid {
			t.PerformedBy = &by.Int64
		}
		recs = append(recs, t)
	}
	return recs, rows.Err()
}

func (s *sqlStore) ListAlerts(ctx context.Context, f model.AlertFilter) ([]model.LowStockAlert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM low_stock_alerts a JOIN products p ON p.id = a.product_id
		WHERE 1 = 1`
	var args []interface{}
	if f.ProviderID != 0 {
		query += ` AND p.provider_id = ?`
		args = append(args, f.ProviderID)
	}
	if f.ProductID != 0 {
		query += ` AND a.product_id = ?`
		args = append(args, f.ProductID)
	}
	if f.Status != "" {
		query += ` AND a.status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY a.created_at DESC, a.id DESC LIMIT ?`
	args = append(args, clampLimit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.LowStockAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (s *sqlStore) ListPriceChanges(ctx context.Context, f model.PriceChangeFilter) ([]model.PriceChangeLog, error) {
	query := `
		SELECT c.id, c.product_id, c.old_price, c.new_price, c.changed_by, c.changed_at, c.notes
		FROM price_change_logs c JOIN products p ON p.id = c.product_id
		WHERE 1 = 1`
	var args []interface{}
	if f.ProviderID != 0 {
		query += ` AND p.provider_id = ?`
		args = append(args, f.ProviderID)
	}
	if f.ProductID != 0 {
		query += ` AND c.product_id = ?`
		args = append(args, f.ProductID)
	}
	query += ` ORDER BY c.changed_at DESC, c.id DESC LIMIT ?`
	args = append(args, clampLimit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list price changes: %w", err)
	}
	defer rows.Close()

	var recs []model.PriceChangeLog
	for rows.Next() {
		var c model.PriceChangeLog
		var notes sql.NullString
		var by sql.NullInt64
		if err := rows.Scan(&c.ID, &c.ProductID, &c.OldPrice, &c.NewPrice, &by, &c.ChangedAt, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan price change: %w", err)
		}
		c.Notes = notes.String
		if by.Valid {
			c.ChangedBy = &by.Int64
		}
		recs = append(recs, c)
	}
	return recs, rows.Err()
}

func (s *sqlStore) DashboardStats(ctx context.Context, providerID, threshold int64) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{GeneratedAt: time.Now().UTC()}

	scope := ` WHERE is_deleted = 0`
	var scopeArgs []interface{}
	if providerID != 0 {
		scope += ` AND provider_id = ?`
		scopeArgs = append(scopeArgs, providerID)
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(stock), 0) FROM products`+scope, scopeArgs...).
		Scan(&stats.TotalProducts, &stats.TotalStock)
	if err != nil {
		return nil, fmt.Errorf("failed product totals: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products`+scope+` AND stock <= ?`,
		append(append([]interface{}{}, scopeArgs...), threshold)...).Scan(&stats.LowStockCount)
	if err != nil {
		return nil, fmt.Errorf("failed low stock count: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products`+scope+` AND stock = 0`, scopeArgs...).
		Scan(&stats.OutOfStockCount)
	if err != nil {
		return nil, fmt.Errorf("failed out of stock count: %w", err)
	}

	alertQuery := `
		SELECT COUNT(*) FROM low_stock_alerts a JOIN products p ON p.id = a.product_id
		WHERE a.status IN (?, ?)`
	alertArgs := []interface{}{model.AlertPending, model.AlertAcknowledged}
	if providerID != 0 {
		alertQuery += ` AND p.provider_id = ?`
		alertArgs = append(alertArgs, providerID)
	}
	if err := s.db.QueryRowContext(ctx, alertQuery, alertArgs...).Scan(&stats.OpenAlertCount); err != nil {
		return nil, fmt.Errorf("failed open alert count: %w", err)
	}

	recent, err := s.ListTransactions(ctx, model.TransactionFilter{ProviderID: providerID, Limit: 10})
	if err != nil {
		return nil, err
	}
	stats.RecentTransactions = recent
	return stats, nil
}
