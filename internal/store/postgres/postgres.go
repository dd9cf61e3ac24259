package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"dapurstok/backend/internal/costing"
	"dapurstok/backend/internal/domain"
	"dapurstok/backend/internal/store"
	"dapurstok/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateIngredient(ctx context.Context, ing domain.Ingredient) (*domain.Ingredient, error) {
	if ing.ID == "" || ing.Name == "" || ing.StockUnit == "" {
		return nil, store.ErrInvalidInput
	}
	if ing.PurchaseToStockRatio.Sign() <= 0 || ing.MinStock.Sign() < 0 {
		return nil, store.ErrInvalidInput
	}
	ing.Active = true
	if ing.CreatedAt.IsZero() {
		ing.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingredients (id, name, stock_unit, purchase_unit, purchase_to_stock_ratio, min_stock, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
	`, ing.ID, ing.Name, ing.StockUnit, ing.PurchaseUnit, ing.PurchaseToStockRatio, ing.MinStock, ing.Active, ing.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := ing
	return &created, nil
}

func (s *Store) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	var ing domain.Ingredient
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, stock_unit, purchase_unit, purchase_to_stock_ratio, min_stock, active, created_at
		FROM ingredients
		WHERE id = $1
	`, id).Scan(&ing.ID, &ing.Name, &ing.StockUnit, &ing.PurchaseUnit, &ing.PurchaseToStockRatio, &ing.MinStock, &ing.Active, &ing.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrIngredientNotFound
		}
		return nil, err
	}
	ing.CreatedAt = ing.CreatedAt.UTC()
	return &ing, nil
}

func (s *Store) UpdateIngredient(ctx context.Context, ing domain.Ingredient) (*domain.Ingredient, error) {
	if ing.ID == "" || ing.Name == "" || ing.StockUnit == "" {
		return nil, store.ErrInvalidInput
	}
	if ing.PurchaseToStockRatio.Sign() <= 0 || ing.MinStock.Sign() < 0 {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE ingredients
		SET name = $2, stock_unit = $3, purchase_unit = $4, purchase_to_stock_ratio = $5, min_stock = $6, active = $7, updated_at = now()
		WHERE id = $1
	`, ing.ID, ing.Name, ing.StockUnit, ing.PurchaseUnit, ing.PurchaseToStockRatio, ing.MinStock, ing.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrIngredientNotFound
	}

	updated := ing
	return &updated, nil
}

func (s *Store) ListIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, stock_unit, purchase_unit, purchase_to_stock_ratio, min_stock, active, created_at
		FROM ingredients
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := make([]domain.Ingredient, 0, 64)
	for rows.Next() {
		var ing domain.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.StockUnit, &ing.PurchaseUnit, &ing.PurchaseToStockRatio, &ing.MinStock, &ing.Active, &ing.CreatedAt); err != nil {
			return nil, err
		}
		ing.CreatedAt = ing.CreatedAt.UTC()
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ingredients, nil
}

// CreateLot appends the lot and bumps the stock level in one serializable
// transaction, so the aggregate can never observe the lot without its stock
// contribution.
func (s *Store) CreateLot(ctx context.Context, lot domain.Lot) (*domain.Lot, error) {
	if lot.InitialQty.Sign() <= 0 || lot.UnitCost.Sign() < 0 {
		return nil, store.ErrInvalidInput
	}
	if lot.ID == "" {
		lot.ID = xid.New("lot")
	}
	if lot.AcquiredAt.IsZero() {
		lot.AcquiredAt = time.Now().UTC()
	}
	if lot.RemainingQty.Sign() < 0 || lot.RemainingQty.GreaterThan(lot.InitialQty) {
		return nil, store.ErrInvalidInput
	}
	if lot.RemainingQty.IsZero() {
		lot.RemainingQty = lot.InitialQty
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM ingredients WHERE id = $1)`, lot.IngredientID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrIngredientNotFound
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO inventory_lots (id, ingredient_id, acquired_at, initial_qty, remaining_qty, unit_cost, purchase_ref, note, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
		RETURNING seq
	`, lot.ID, lot.IngredientID, lot.AcquiredAt, lot.InitialQty, lot.RemainingQty, lot.UnitCost, nullIfEmpty(lot.PurchaseRef), strings.TrimSpace(lot.Note)).Scan(&lot.Seq)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_levels (ingredient_id, current_stock, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (ingredient_id)
		DO UPDATE SET current_stock = stock_levels.current_stock + EXCLUDED.current_stock, updated_at = now()
	`, lot.IngredientID, lot.RemainingQty)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := lot
	return &created, nil
}

func (s *Store) ListActiveLots(ctx context.Context, ingredientID string) ([]domain.Lot, error) {
	return s.ListLots(ctx, ingredientID, false, 0)
}

func (s *Store) ListLots(ctx context.Context, ingredientID string, includeDepleted bool, limit int) ([]domain.Lot, error) {
	if _, err := s.GetIngredient(ctx, ingredientID); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 500
	}

	query := `
		SELECT id, ingredient_id, acquired_at, initial_qty, remaining_qty, unit_cost, COALESCE(purchase_ref,''), note, seq
		FROM inventory_lots
		WHERE ingredient_id = $1
	`
	if !includeDepleted {
		query += ` AND remaining_qty > 0`
	}
	query += `
		ORDER BY acquired_at ASC, seq ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, ingredientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lots := make([]domain.Lot, 0, 64)
	for rows.Next() {
		var lot domain.Lot
		if err := rows.Scan(&lot.ID, &lot.IngredientID, &lot.AcquiredAt, &lot.InitialQty, &lot.RemainingQty, &lot.UnitCost, &lot.PurchaseRef, &lot.Note, &lot.Seq); err != nil {
			return nil, err
		}
		lot.AcquiredAt = lot.AcquiredAt.UTC()
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lots, nil
}

// ConsumeFIFO locks the ingredient's active lot rows, plans the debits
// oldest-first and applies them together with the stock decrement in one
// serializable transaction. Concurrent consumers of the same ingredient
// queue on the row locks, which is the single-writer guarantee the ledger
// needs.
func (s *Store) ConsumeFIFO(ctx context.Context, ingredientID string, qty decimal.Decimal) (domain.ConsumptionResult, error) {
	if qty.Sign() < 0 {
		return domain.ConsumptionResult{}, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.ConsumptionResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM ingredients WHERE id = $1)`, ingredientID).Scan(&exists); err != nil {
		return domain.ConsumptionResult{}, err
	}
	if !exists {
		return domain.ConsumptionResult{}, store.ErrIngredientNotFound
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, ingredient_id, acquired_at, initial_qty, remaining_qty, unit_cost, seq
		FROM inventory_lots
		WHERE ingredient_id = $1 AND remaining_qty > 0
		ORDER BY acquired_at ASC, seq ASC
		FOR UPDATE
	`, ingredientID)
	if err != nil {
		return domain.ConsumptionResult{}, err
	}

	lots := make([]domain.Lot, 0, 16)
	for rows.Next() {
		var lot domain.Lot
		if err := rows.Scan(&lot.ID, &lot.IngredientID, &lot.AcquiredAt, &lot.InitialQty, &lot.RemainingQty, &lot.UnitCost, &lot.Seq); err != nil {
			rows.Close()
			return domain.ConsumptionResult{}, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return domain.ConsumptionResult{}, err
	}
	rows.Close()

	result := costing.PlanConsumption(ingredientID, lots, qty)

	for _, debit := range result.Debits {
		_, err := tx.ExecContext(ctx, `
			UPDATE inventory_lots
			SET remaining_qty = remaining_qty - $2, updated_at = now()
			WHERE id = $1
		`, debit.LotID, debit.Qty)
		if err != nil {
			return domain.ConsumptionResult{}, err
		}
	}
	if result.QtyConsumed.Sign() > 0 {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stock_levels (ingredient_id, current_stock, updated_at)
			VALUES ($1, -$2::numeric, now())
			ON CONFLICT (ingredient_id)
			DO UPDATE SET current_stock = stock_levels.current_stock - $2, updated_at = now()
		`, ingredientID, result.QtyConsumed)
		if err != nil {
			return domain.ConsumptionResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.ConsumptionResult{}, err
	}
	return result, nil
}

func (s *Store) GetStockLevel(ctx context.Context, ingredientID string) (domain.StockLevel, error) {
	if _, err := s.GetIngredient(ctx, ingredientID); err != nil {
		return domain.StockLevel{}, err
	}

	var level domain.StockLevel
	err := s.db.QueryRowContext(ctx, `
		SELECT ingredient_id, current_stock, updated_at
		FROM stock_levels
		WHERE ingredient_id = $1
	`, ingredientID).Scan(&level.IngredientID, &level.CurrentStock, &level.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockLevel{IngredientID: ingredientID, CurrentStock: decimal.Zero}, nil
		}
		return domain.StockLevel{}, err
	}
	level.LastUpdated = level.LastUpdated.UTC()
	return level, nil
}

func (s *Store) GetStockMap(ctx context.Context, ingredientIDs []string) (map[string]decimal.Decimal, error) {
	stockMap := make(map[string]decimal.Decimal, len(ingredientIDs))
	if len(ingredientIDs) == 0 {
		return stockMap, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ingredient_id, current_stock
		FROM stock_levels
		WHERE ingredient_id = ANY($1)
	`, ingredientIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var qty decimal.Decimal
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		stockMap[id] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ingredientIDs {
		if _, ok := stockMap[id]; !ok {
			stockMap[id] = decimal.Zero
		}
	}
	return stockMap, nil
}

func (s *Store) ListStockLevels(ctx context.Context) ([]domain.StockLevel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, COALESCE(sl.current_stock, 0), COALESCE(sl.updated_at, i.created_at)
		FROM ingredients i
		LEFT JOIN stock_levels sl ON sl.ingredient_id = i.id
		ORDER BY i.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make([]domain.StockLevel, 0, 64)
	for rows.Next() {
		var level domain.StockLevel
		if err := rows.Scan(&level.IngredientID, &level.CurrentStock, &level.LastUpdated); err != nil {
			return nil, err
		}
		level.LastUpdated = level.LastUpdated.UTC()
		levels = append(levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return levels, nil
}

// RecomputeStockLevel rewrites the aggregate from the lot ledger inside a
// serializable transaction that locks the ingredient's lots, so a concurrent
// consumption cannot slip between the sum and the write.
func (s *Store) RecomputeStockLevel(ctx context.Context, ingredientID string) (decimal.Decimal, decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM ingredients WHERE id = $1)`, ingredientID).Scan(&exists); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if !exists {
		return decimal.Zero, decimal.Zero, store.ErrIngredientNotFound
	}

	before := decimal.Zero
	err = tx.QueryRowContext(ctx, `
		SELECT current_stock FROM stock_levels WHERE ingredient_id = $1 FOR UPDATE
	`, ingredientID).Scan(&before)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, decimal.Zero, err
	}

	after := decimal.Zero
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(remaining_qty), 0)
		FROM inventory_lots
		WHERE ingredient_id = $1 AND remaining_qty > 0
	`, ingredientID).Scan(&after)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_levels (ingredient_id, current_stock, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (ingredient_id)
		DO UPDATE SET current_stock = EXCLUDED.current_stock, updated_at = now()
	`, ingredientID, after)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return before, after, nil
}

func (s *Store) UpsertRecipe(ctx context.Context, itemID string, lines []domain.RecipeLine) error {
	if itemID == "" {
		return store.ErrInvalidInput
	}
	for _, line := range lines {
		if line.IngredientID == "" || line.QtyPerUnit.Sign() < 0 {
			return store.ErrInvalidInput
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_lines WHERE item_id = $1`, itemID); err != nil {
		return err
	}
	for _, line := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_lines (item_id, ingredient_id, qty_per_unit, optional, updated_at)
			VALUES ($1,$2,$3,$4,now())
		`, itemID, line.IngredientID, line.QtyPerUnit, line.Optional)
		if err != nil {
			if isForeignKeyViolation(err) {
				return store.ErrIngredientNotFound
			}
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) GetRecipeLines(ctx context.Context, itemID string) ([]domain.RecipeLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, ingredient_id, qty_per_unit, optional
		FROM recipe_lines
		WHERE item_id = $1
		ORDER BY ingredient_id ASC
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.RecipeLine, 0, 8)
	for rows.Next() {
		var line domain.RecipeLine
		if err := rows.Scan(&line.ItemID, &line.IngredientID, &line.QtyPerUnit, &line.Optional); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Store) ListRecipeItemIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT item_id FROM recipe_lines ORDER BY item_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0, 32)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.SoldAt.IsZero() {
		sale.SoldAt = time.Now().UTC()
	}
	consumptions, err := json.Marshal(sale.Consumptions)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sales (id, item_id, qty, platform, gross_revenue, net_revenue, cogs, cost_known, consumptions, sold_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, sale.ID, sale.ItemID, sale.Qty, sale.Platform, sale.GrossRevenue, sale.NetRevenue, sale.COGS, sale.CostKnown, consumptions, sale.SoldAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, qty, platform, gross_revenue, net_revenue, cogs, cost_known, consumptions, sold_at
		FROM sales
		WHERE sold_at >= $1 AND sold_at < $2
		ORDER BY sold_at ASC, id ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 128)
	for rows.Next() {
		var sale domain.Sale
		var consumptions []byte
		if err := rows.Scan(&sale.ID, &sale.ItemID, &sale.Qty, &sale.Platform, &sale.GrossRevenue, &sale.NetRevenue, &sale.COGS, &sale.CostKnown, &consumptions, &sale.SoldAt); err != nil {
			return nil, err
		}
		if len(consumptions) > 0 {
			if err := json.Unmarshal(consumptions, &sale.Consumptions); err != nil {
				return nil, err
			}
		}
		sale.SoldAt = sale.SoldAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) CreateWaste(ctx context.Context, entry domain.WasteEntry) (*domain.WasteEntry, error) {
	if entry.ID == "" {
		entry.ID = xid.New("waste")
	}
	if entry.WastedAt.IsZero() {
		entry.WastedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO waste_entries (id, ingredient_id, qty_requested, qty_consumed, shortfall, cost, reason, wasted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.IngredientID, entry.QtyRequested, entry.QtyConsumed, entry.Shortfall, entry.Cost, strings.TrimSpace(entry.Reason), entry.WastedAt)
	if err != nil {
		return nil, err
	}

	created := entry
	return &created, nil
}

func (s *Store) ListWaste(ctx context.Context, from time.Time, to time.Time) ([]domain.WasteEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ingredient_id, qty_requested, qty_consumed, shortfall, cost, reason, wasted_at
		FROM waste_entries
		WHERE wasted_at >= $1 AND wasted_at < $2
		ORDER BY wasted_at ASC, id ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.WasteEntry, 0, 64)
	for rows.Next() {
		var entry domain.WasteEntry
		if err := rows.Scan(&entry.ID, &entry.IngredientID, &entry.QtyRequested, &entry.QtyConsumed, &entry.Shortfall, &entry.Cost, &entry.Reason, &entry.WastedAt); err != nil {
			return nil, err
		}
		entry.WastedAt = entry.WastedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) CreateBatch(ctx context.Context, batch domain.ProductionBatch) (*domain.ProductionBatch, error) {
	if batch.ID == "" {
		batch.ID = xid.New("batch")
	}
	if batch.ProducedAt.IsZero() {
		batch.ProducedAt = time.Now().UTC()
	}
	consumptions, err := json.Marshal(batch.Consumptions)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO production_batches (id, recipe_id, produced_units, total_cost, consumptions, note, produced_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, batch.ID, batch.RecipeID, batch.ProducedUnits, batch.TotalCost, consumptions, strings.TrimSpace(batch.Note), batch.ProducedAt)
	if err != nil {
		return nil, err
	}

	created := batch
	return &created, nil
}

func (s *Store) ListBatches(ctx context.Context, from time.Time, to time.Time) ([]domain.ProductionBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipe_id, produced_units, total_cost, consumptions, note, produced_at
		FROM production_batches
		WHERE produced_at >= $1 AND produced_at < $2
		ORDER BY produced_at ASC, id ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := make([]domain.ProductionBatch, 0, 32)
	for rows.Next() {
		var batch domain.ProductionBatch
		var consumptions []byte
		if err := rows.Scan(&batch.ID, &batch.RecipeID, &batch.ProducedUnits, &batch.TotalCost, &consumptions, &batch.Note, &batch.ProducedAt); err != nil {
			return nil, err
		}
		if len(consumptions) > 0 {
			if err := json.Unmarshal(consumptions, &batch.Consumptions); err != nil {
				return nil, err
			}
		}
		batch.ProducedAt = batch.ProducedAt.UTC()
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = "staff"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
