package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dapurstok/backend/internal/cache"
	"dapurstok/backend/internal/costing"
	"dapurstok/backend/internal/domain"
	"dapurstok/backend/internal/store"
	"dapurstok/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo       store.Repository
	stockCache cache.StockCache
}

func New(repo store.Repository, stockCache cache.StockCache) *Service {
	if stockCache == nil {
		stockCache = cache.NoopStockCache{}
	}
	return &Service{repo: repo, stockCache: stockCache}
}

// ── Ingredient catalog ──────────────────────────────────────────────────────

func (s *Service) CreateIngredient(ctx context.Context, req domain.IngredientCreateRequest) (domain.Ingredient, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Ingredient{}, fmt.Errorf("admin role required")
	}

	req.ID = strings.ToUpper(strings.TrimSpace(req.ID))
	req.Name = strings.TrimSpace(req.Name)
	req.StockUnit = strings.TrimSpace(req.StockUnit)
	req.PurchaseUnit = strings.TrimSpace(req.PurchaseUnit)
	if req.ID == "" || req.Name == "" || req.StockUnit == "" {
		return domain.Ingredient{}, store.ErrInvalidInput
	}
	if req.PurchaseUnit == "" {
		req.PurchaseUnit = req.StockUnit
	}
	if req.PurchaseToStockRatio.Sign() <= 0 {
		return domain.Ingredient{}, store.ErrInvalidInput
	}
	if req.MinStock.Sign() < 0 {
		return domain.Ingredient{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateIngredient(ctx, domain.Ingredient{
		ID:                   req.ID,
		Name:                 req.Name,
		StockUnit:            req.StockUnit,
		PurchaseUnit:         req.PurchaseUnit,
		PurchaseToStockRatio: req.PurchaseToStockRatio,
		MinStock:             req.MinStock,
		Active:               true,
		CreatedAt:            time.Now().UTC(),
	})
	if err != nil {
		return domain.Ingredient{}, err
	}

	s.logAudit(ctx, "ingredient_create", "ingredient", created.ID, fmt.Sprintf("name=%s,unit=%s,ratio=%s", created.Name, created.StockUnit, created.PurchaseToStockRatio))
	return *created, nil
}

func (s *Service) UpdateIngredient(ctx context.Context, id string, req domain.IngredientUpdateRequest) (domain.Ingredient, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Ingredient{}, fmt.Errorf("admin role required")
	}

	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return domain.Ingredient{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetIngredient(ctx, id)
	if err != nil {
		return domain.Ingredient{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Ingredient{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.StockUnit != nil {
		unit := strings.TrimSpace(*req.StockUnit)
		if unit == "" {
			return domain.Ingredient{}, store.ErrInvalidInput
		}
		updated.StockUnit = unit
	}
	if req.PurchaseUnit != nil {
		updated.PurchaseUnit = strings.TrimSpace(*req.PurchaseUnit)
	}
	if req.PurchaseToStockRatio != nil {
		if req.PurchaseToStockRatio.Sign() <= 0 {
			return domain.Ingredient{}, store.ErrInvalidInput
		}
		updated.PurchaseToStockRatio = *req.PurchaseToStockRatio
	}
	if req.MinStock != nil {
		if req.MinStock.Sign() < 0 {
			return domain.Ingredient{}, store.ErrInvalidInput
		}
		updated.MinStock = *req.MinStock
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateIngredient(ctx, updated)
	if err != nil {
		return domain.Ingredient{}, err
	}

	s.logAudit(ctx, "ingredient_update", "ingredient", saved.ID, fmt.Sprintf("active=%t,ratio=%s,min_stock=%s", saved.Active, saved.PurchaseToStockRatio, saved.MinStock))
	return *saved, nil
}

func (s *Service) ListIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	return s.repo.ListIngredients(ctx)
}

// ── Lot ledger ──────────────────────────────────────────────────────────────

// RecordPurchase converts the purchase to stock units, appends a lot and
// bumps the stock level in one repository transaction. The ingredient must
// already exist in the catalog: unknown IDs are a configuration problem, not
// a prompt to invent one.
func (s *Service) RecordPurchase(ctx context.Context, req domain.PurchaseRequest) (domain.PurchaseResponse, error) {
	req.IngredientID = strings.ToUpper(strings.TrimSpace(req.IngredientID))
	if req.IngredientID == "" {
		return domain.PurchaseResponse{}, store.ErrInvalidInput
	}
	if req.PurchaseQty.Sign() <= 0 || req.TotalPrice.Sign() <= 0 {
		return domain.PurchaseResponse{}, store.ErrInvalidInput
	}
	if req.ActualYield != nil && req.ActualYield.Sign() < 0 {
		return domain.PurchaseResponse{}, store.ErrInvalidInput
	}

	ing, err := s.repo.GetIngredient(ctx, req.IngredientID)
	if err != nil {
		return domain.PurchaseResponse{}, err
	}

	stockQty := costing.StockQtyFromPurchase(req.PurchaseQty, ing.PurchaseToStockRatio, req.ActualYield)
	if stockQty.Sign() <= 0 {
		return domain.PurchaseResponse{}, store.ErrZeroYield
	}
	unitCost := costing.UnitCostFromPurchase(req.TotalPrice, stockQty)

	acquiredAt := time.Now().UTC()
	if req.AcquiredAt != nil {
		acquiredAt = req.AcquiredAt.UTC()
	}

	lot, err := s.repo.CreateLot(ctx, domain.Lot{
		ID:           xid.New("lot"),
		IngredientID: ing.ID,
		AcquiredAt:   acquiredAt,
		InitialQty:   stockQty,
		RemainingQty: stockQty,
		UnitCost:     unitCost,
		PurchaseRef:  strings.TrimSpace(req.PurchaseRef),
		Note:         strings.TrimSpace(req.Note),
	})
	if err != nil {
		return domain.PurchaseResponse{}, err
	}

	s.invalidateStock(ctx, ing.ID)
	level, err := s.repo.GetStockLevel(ctx, ing.ID)
	if err != nil {
		return domain.PurchaseResponse{}, err
	}

	s.logAudit(ctx, "purchase", "lot", lot.ID, fmt.Sprintf("ingredient=%s,qty=%s,unit_cost=%s", ing.ID, stockQty, unitCost))
	return domain.PurchaseResponse{Lot: *lot, StockAfter: level.CurrentStock}, nil
}

func (s *Service) ListLots(ctx context.Context, ingredientID string, includeDepleted bool, limit int) ([]domain.Lot, error) {
	ingredientID = strings.ToUpper(strings.TrimSpace(ingredientID))
	if ingredientID == "" {
		return nil, store.ErrInvalidInput
	}
	if limit < 1 {
		limit = 200
	}
	return s.repo.ListLots(ctx, ingredientID, includeDepleted, limit)
}

// ── Consumption ─────────────────────────────────────────────────────────────

// Consume debits the ingredient's lots oldest-first. A zero quantity is a
// no-op; insufficient stock comes back as Shortfall on the result. Each call
// consumes ledger state, so this is a mutation, not a query.
func (s *Service) Consume(ctx context.Context, ingredientID string, qty decimal.Decimal) (domain.ConsumptionResult, error) {
	ingredientID = strings.ToUpper(strings.TrimSpace(ingredientID))
	if ingredientID == "" {
		return domain.ConsumptionResult{}, store.ErrInvalidInput
	}
	if qty.Sign() < 0 {
		return domain.ConsumptionResult{}, store.ErrInvalidInput
	}
	if qty.IsZero() {
		return domain.ConsumptionResult{
			IngredientID: ingredientID,
			QtyRequested: decimal.Zero,
			QtyConsumed:  decimal.Zero,
			Shortfall:    decimal.Zero,
			TotalCost:    decimal.Zero,
		}, nil
	}

	result, err := s.repo.ConsumeFIFO(ctx, ingredientID, qty)
	if err != nil {
		return domain.ConsumptionResult{}, err
	}
	s.invalidateStock(ctx, ingredientID)
	return result, nil
}

// ── Recipe book ─────────────────────────────────────────────────────────────

func (s *Service) UpsertRecipe(ctx context.Context, req domain.RecipeUpsertRequest) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	req.ItemID = strings.ToUpper(strings.TrimSpace(req.ItemID))
	if req.ItemID == "" {
		return store.ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(req.Lines))
	for i := range req.Lines {
		req.Lines[i].IngredientID = strings.ToUpper(strings.TrimSpace(req.Lines[i].IngredientID))
		if req.Lines[i].IngredientID == "" || req.Lines[i].QtyPerUnit.Sign() < 0 {
			return store.ErrInvalidInput
		}
		if _, dup := seen[req.Lines[i].IngredientID]; dup {
			return store.ErrInvalidInput
		}
		seen[req.Lines[i].IngredientID] = struct{}{}
	}

	if err := s.repo.UpsertRecipe(ctx, req.ItemID, req.Lines); err != nil {
		return err
	}
	s.logAudit(ctx, "recipe_upsert", "recipe", req.ItemID, fmt.Sprintf("lines=%d", len(req.Lines)))
	return nil
}

func (s *Service) GetRecipe(ctx context.Context, itemID string) ([]domain.RecipeLine, error) {
	itemID = strings.ToUpper(strings.TrimSpace(itemID))
	if itemID == "" {
		return nil, store.ErrInvalidInput
	}
	return s.repo.GetRecipeLines(ctx, itemID)
}

// ResolveRequirements scales the item's recipe by multiplier. An item without
// a recipe resolves to an empty list, which callers must read as "cost
// unknown" rather than "zero cost".
func (s *Service) ResolveRequirements(ctx context.Context, itemID string, multiplier decimal.Decimal) ([]domain.Requirement, error) {
	lines, err := s.repo.GetRecipeLines(ctx, itemID)
	if err != nil {
		return nil, err
	}
	requirements := make([]domain.Requirement, 0, len(lines))
	for _, line := range lines {
		requirements = append(requirements, domain.Requirement{
			IngredientID: line.IngredientID,
			Qty:          line.QtyPerUnit.Mul(multiplier),
			Optional:     line.Optional,
		})
	}
	return requirements, nil
}

// ComputeAvailableUnits reports how many whole units of the item current
// stock covers: the minimum of floor(stock / qtyPerUnit) over required lines.
// Optional lines and zero-quantity lines do not constrain availability. An
// item with no required lines has undefined availability (nil), not infinity.
func (s *Service) ComputeAvailableUnits(ctx context.Context, itemID string) (domain.AvailabilityResponse, error) {
	itemID = strings.ToUpper(strings.TrimSpace(itemID))
	if itemID == "" {
		return domain.AvailabilityResponse{}, store.ErrInvalidInput
	}

	lines, err := s.repo.GetRecipeLines(ctx, itemID)
	if err != nil {
		return domain.AvailabilityResponse{}, err
	}

	required := make([]domain.RecipeLine, 0, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.Optional || line.QtyPerUnit.Sign() <= 0 {
			continue
		}
		required = append(required, line)
		ids = append(ids, line.IngredientID)
	}
	if len(required) == 0 {
		return domain.AvailabilityResponse{ItemID: itemID}, nil
	}

	stockMap, err := s.stockMapCached(ctx, ids)
	if err != nil {
		return domain.AvailabilityResponse{}, err
	}

	var units int64
	for i, line := range required {
		possible := stockMap[line.IngredientID].Div(line.QtyPerUnit).IntPart()
		if possible < 0 {
			possible = 0
		}
		if i == 0 || possible < units {
			units = possible
		}
	}
	return domain.AvailabilityResponse{ItemID: itemID, Units: &units}, nil
}

// ── Sale / waste / batch orchestration ──────────────────────────────────────

// RecordSale resolves the item's recipe and consumes every ingredient line
// FIFO. A shortfall on one line does not roll back lines already consumed;
// partial consumption stands and all shortfalls are surfaced on the response
// so the caller can decide whether to block. Callers that must never go
// short should check ComputeAvailableUnits first.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleRequest) (domain.SaleResponse, error) {
	req.ItemID = strings.ToUpper(strings.TrimSpace(req.ItemID))
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	if req.ItemID == "" || req.Qty < 1 {
		return domain.SaleResponse{}, store.ErrInvalidInput
	}
	if req.UnitPrice.Sign() < 0 || req.NetUnitPrice.Sign() < 0 {
		return domain.SaleResponse{}, store.ErrInvalidInput
	}
	if req.Platform == "" {
		req.Platform = domain.PlatformDineIn
	}
	if req.NetUnitPrice.IsZero() {
		req.NetUnitPrice = req.UnitPrice
	}

	soldAt := time.Now().UTC()
	if req.SoldAt != nil {
		soldAt = req.SoldAt.UTC()
	}

	multiplier := decimal.NewFromInt(req.Qty)
	requirements, err := s.ResolveRequirements(ctx, req.ItemID, multiplier)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	consumptions, totalCost, shortfalls, err := s.consumeRequirements(ctx, requirements)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	sale := domain.Sale{
		ID:           xid.New("sale"),
		ItemID:       req.ItemID,
		Qty:          req.Qty,
		Platform:     req.Platform,
		GrossRevenue: req.UnitPrice.Mul(multiplier),
		NetRevenue:   req.NetUnitPrice.Mul(multiplier),
		COGS:         totalCost,
		CostKnown:    len(requirements) > 0,
		Consumptions: consumptions,
		SoldAt:       soldAt,
	}
	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	if len(shortfalls) > 0 {
		log.Printf("[service] WARN: sale %s recorded with %d ingredient shortfall(s)", created.ID, len(shortfalls))
	}
	s.logAudit(ctx, "sale", "sale", created.ID, fmt.Sprintf("item=%s,qty=%d,platform=%s,cogs=%s,shortfalls=%d", created.ItemID, created.Qty, created.Platform, created.COGS, len(shortfalls)))

	return domain.SaleResponse{Sale: *created, Shortfalls: shortfalls}, nil
}

// RecordWaste consumes a single ingredient with no revenue; the cost is pure
// loss and feeds the report's waste column.
func (s *Service) RecordWaste(ctx context.Context, req domain.WasteRequest) (domain.WasteEntry, error) {
	req.IngredientID = strings.ToUpper(strings.TrimSpace(req.IngredientID))
	if req.IngredientID == "" || req.Qty.Sign() <= 0 {
		return domain.WasteEntry{}, store.ErrInvalidInput
	}

	wastedAt := time.Now().UTC()
	if req.WastedAt != nil {
		wastedAt = req.WastedAt.UTC()
	}

	result, err := s.Consume(ctx, req.IngredientID, req.Qty)
	if err != nil {
		return domain.WasteEntry{}, err
	}

	entry := domain.WasteEntry{
		ID:           xid.New("waste"),
		IngredientID: req.IngredientID,
		QtyRequested: result.QtyRequested,
		QtyConsumed:  result.QtyConsumed,
		Shortfall:    result.Shortfall,
		Cost:         result.TotalCost,
		Reason:       strings.TrimSpace(req.Reason),
		WastedAt:     wastedAt,
	}
	created, err := s.repo.CreateWaste(ctx, entry)
	if err != nil {
		return domain.WasteEntry{}, err
	}

	if created.Shortfall.Sign() > 0 {
		log.Printf("[service] WARN: waste %s short by %s (ingredient %s)", created.ID, created.Shortfall, created.IngredientID)
	}
	s.logAudit(ctx, "waste", "waste", created.ID, fmt.Sprintf("ingredient=%s,qty=%s,cost=%s", created.IngredientID, created.QtyConsumed, created.Cost))
	return *created, nil
}

// RecordBatch consumes a production recipe (e.g. a sauce) through the same
// FIFO path as sales. The batch output becoming an ingredient elsewhere is a
// separate purchase-shaped event, out of this call's hands.
func (s *Service) RecordBatch(ctx context.Context, req domain.BatchRequest) (domain.BatchResponse, error) {
	req.RecipeID = strings.ToUpper(strings.TrimSpace(req.RecipeID))
	if req.RecipeID == "" || req.ProducedUnits < 1 {
		return domain.BatchResponse{}, store.ErrInvalidInput
	}

	producedAt := time.Now().UTC()
	if req.ProducedAt != nil {
		producedAt = req.ProducedAt.UTC()
	}

	requirements, err := s.ResolveRequirements(ctx, req.RecipeID, decimal.NewFromInt(req.ProducedUnits))
	if err != nil {
		return domain.BatchResponse{}, err
	}

	consumptions, totalCost, shortfalls, err := s.consumeRequirements(ctx, requirements)
	if err != nil {
		return domain.BatchResponse{}, err
	}

	batch := domain.ProductionBatch{
		ID:            xid.New("batch"),
		RecipeID:      req.RecipeID,
		ProducedUnits: req.ProducedUnits,
		TotalCost:     totalCost,
		Consumptions:  consumptions,
		Note:          strings.TrimSpace(req.Note),
		ProducedAt:    producedAt,
	}
	created, err := s.repo.CreateBatch(ctx, batch)
	if err != nil {
		return domain.BatchResponse{}, err
	}

	if len(shortfalls) > 0 {
		log.Printf("[service] WARN: batch %s recorded with %d ingredient shortfall(s)", created.ID, len(shortfalls))
	}
	s.logAudit(ctx, "batch", "batch", created.ID, fmt.Sprintf("recipe=%s,units=%d,cost=%s", created.RecipeID, created.ProducedUnits, created.TotalCost))
	return domain.BatchResponse{Batch: *created, Shortfalls: shortfalls}, nil
}

func (s *Service) consumeRequirements(ctx context.Context, requirements []domain.Requirement) ([]domain.SaleConsumption, decimal.Decimal, []domain.SaleConsumption, error) {
	consumptions := make([]domain.SaleConsumption, 0, len(requirements))
	shortfalls := make([]domain.SaleConsumption, 0)
	totalCost := decimal.Zero

	for _, requirement := range requirements {
		result, err := s.Consume(ctx, requirement.IngredientID, requirement.Qty)
		if err != nil {
			return nil, decimal.Zero, nil, fmt.Errorf("consume %s: %w", requirement.IngredientID, err)
		}
		consumption := domain.SaleConsumption{
			IngredientID: result.IngredientID,
			QtyRequested: result.QtyRequested,
			QtyConsumed:  result.QtyConsumed,
			Shortfall:    result.Shortfall,
			Cost:         result.TotalCost,
		}
		consumptions = append(consumptions, consumption)
		totalCost = totalCost.Add(result.TotalCost)
		if result.Shortfall.Sign() > 0 {
			shortfalls = append(shortfalls, consumption)
		}
	}
	return consumptions, totalCost, shortfalls, nil
}

// ── Stock reads / maintenance ───────────────────────────────────────────────

func (s *Service) GetStockLevel(ctx context.Context, ingredientID string) (domain.StockLevel, error) {
	ingredientID = strings.ToUpper(strings.TrimSpace(ingredientID))
	if ingredientID == "" {
		return domain.StockLevel{}, store.ErrInvalidInput
	}
	if cached, ok, err := s.stockCache.Get(ctx, ingredientID); err == nil && ok {
		return *cached, nil
	}
	level, err := s.repo.GetStockLevel(ctx, ingredientID)
	if err != nil {
		return domain.StockLevel{}, err
	}
	if err := s.stockCache.Set(ctx, ingredientID, &level); err != nil {
		log.Printf("[service] WARN: stock cache set failed for %s: %v", ingredientID, err)
	}
	return level, nil
}

func (s *Service) ListStockLevels(ctx context.Context) ([]domain.StockLevel, error) {
	return s.repo.ListStockLevels(ctx)
}

// LowStockAlerts lists active ingredients whose cached stock is at or below
// their minimum threshold.
func (s *Service) LowStockAlerts(ctx context.Context) ([]domain.LowStockAlert, error) {
	ingredients, err := s.repo.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		ids = append(ids, ing.ID)
	}
	stockMap, err := s.repo.GetStockMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.LowStockAlert, 0)
	for _, ing := range ingredients {
		if !ing.Active || ing.MinStock.Sign() <= 0 {
			continue
		}
		current := stockMap[ing.ID]
		if current.LessThanOrEqual(ing.MinStock) {
			alerts = append(alerts, domain.LowStockAlert{
				IngredientID: ing.ID,
				Name:         ing.Name,
				StockUnit:    ing.StockUnit,
				CurrentStock: current,
				MinStock:     ing.MinStock,
			})
		}
	}
	return alerts, nil
}

// RecomputeStock rebuilds the ingredient's cached stock level from the lot
// ledger. The ledger is the source of truth; this is the only sanctioned
// repair for a drifted aggregate.
func (s *Service) RecomputeStock(ctx context.Context, ingredientID string) (domain.RecomputeResponse, error) {
	ingredientID = strings.ToUpper(strings.TrimSpace(ingredientID))
	if ingredientID == "" {
		return domain.RecomputeResponse{}, store.ErrInvalidInput
	}

	before, after, err := s.repo.RecomputeStockLevel(ctx, ingredientID)
	if err != nil {
		return domain.RecomputeResponse{}, err
	}
	s.invalidateStock(ctx, ingredientID)

	drift := before.Sub(after)
	if !drift.IsZero() {
		log.Printf("[service] WARN: stock aggregate for %s drifted by %s (repaired)", ingredientID, drift)
	}
	s.logAudit(ctx, "stock_recompute", "stock", ingredientID, fmt.Sprintf("before=%s,after=%s", before, after))

	return domain.RecomputeResponse{
		IngredientID: ingredientID,
		StockBefore:  before,
		StockAfter:   after,
		Drift:        drift,
	}, nil
}

// ── Cost reporting ──────────────────────────────────────────────────────────

func (s *Service) CostReport(ctx context.Context, from time.Time, to time.Time, granularity string) (domain.CostReport, error) {
	granularity = strings.ToLower(strings.TrimSpace(granularity))
	if granularity == "" {
		granularity = domain.GranularityDay
	}
	if granularity != domain.GranularityDay && granularity != domain.GranularityMonth {
		return domain.CostReport{}, store.ErrInvalidInput
	}
	if !to.After(from) {
		return domain.CostReport{}, store.ErrInvalidInput
	}

	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return domain.CostReport{}, err
	}
	waste, err := s.repo.ListWaste(ctx, from, to)
	if err != nil {
		return domain.CostReport{}, err
	}

	return domain.CostReport{
		From:        from.UTC().Format(time.RFC3339),
		To:          to.UTC().Format(time.RFC3339),
		Granularity: granularity,
		Buckets:     costing.Aggregate(sales, waste, granularity),
	}, nil
}

func (s *Service) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	if !to.After(from) {
		return nil, store.ErrInvalidInput
	}
	return s.repo.ListSales(ctx, from, to)
}

func (s *Service) ListWaste(ctx context.Context, from time.Time, to time.Time) ([]domain.WasteEntry, error) {
	if !to.After(from) {
		return nil, store.ErrInvalidInput
	}
	return s.repo.ListWaste(ctx, from, to)
}

func (s *Service) ListBatches(ctx context.Context, from time.Time, to time.Time) ([]domain.ProductionBatch, error) {
	if !to.After(from) {
		return nil, store.ErrInvalidInput
	}
	return s.repo.ListBatches(ctx, from, to)
}

func (s *Service) ListRecipeItems(ctx context.Context) ([]string, error) {
	return s.repo.ListRecipeItemIDs(ctx)
}

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

// ── Helpers ─────────────────────────────────────────────────────────────────

func (s *Service) stockMapCached(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	stockMap := make(map[string]decimal.Decimal, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if cached, ok, err := s.stockCache.Get(ctx, id); err == nil && ok {
			stockMap[id] = cached.CurrentStock
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		fresh, err := s.repo.GetStockMap(ctx, missing)
		if err != nil {
			return nil, err
		}
		for id, qty := range fresh {
			stockMap[id] = qty
		}
	}
	return stockMap, nil
}

func (s *Service) invalidateStock(ctx context.Context, ingredientID string) {
	if err := s.stockCache.Invalidate(ctx, ingredientID); err != nil {
		log.Printf("[service] WARN: stock cache invalidate failed for %s: %v", ingredientID, err)
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, _ := ActorFromContext(ctx)
	err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[service] WARN: failed to write audit log action=%s: %v", action, err)
	}
}
