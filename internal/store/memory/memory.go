package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"dapurstok/backend/internal/costing"
	"dapurstok/backend/internal/domain"
	"dapurstok/backend/internal/store"
	"dapurstok/backend/internal/xid"
)

// Store is the in-memory repository used for dev mode and tests. The single
// write lock serializes every mutation, which trivially satisfies the
// single-writer-per-ingredient requirement of FIFO consumption.
type Store struct {
	mu          sync.RWMutex
	ingredients map[string]domain.Ingredient
	lotsByIng   map[string][]domain.Lot
	lotSeq      int64
	stock       map[string]domain.StockLevel
	recipes     map[string][]domain.RecipeLine
	salesByID   map[string]domain.Sale
	wasteByID   map[string]domain.WasteEntry
	batchesByID map[string]domain.ProductionBatch
	auditLogs   []domain.AuditLog
	users       map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		ingredients: make(map[string]domain.Ingredient),
		lotsByIng:   make(map[string][]domain.Lot),
		stock:       make(map[string]domain.StockLevel),
		recipes:     make(map[string][]domain.RecipeLine),
		salesByID:   make(map[string]domain.Sale),
		wasteByID:   make(map[string]domain.WasteEntry),
		batchesByID: make(map[string]domain.ProductionBatch),
		auditLogs:   make([]domain.AuditLog, 0, 128),
		users:       seedUsers(),
	}
}

// NewSeeded returns a store preloaded with a small restaurant catalog and
// recipes, enough to exercise purchases, sales and reports in dev mode.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	ingredients := []domain.Ingredient{
		{ID: "ING-UDANG", Name: "Udang Kupas", StockUnit: "piece", PurchaseUnit: "kg", PurchaseToStockRatio: dec("60"), MinStock: dec("30"), Active: true, CreatedAt: now},
		{ID: "ING-BERAS", Name: "Beras", StockUnit: "g", PurchaseUnit: "kg", PurchaseToStockRatio: dec("1000"), MinStock: dec("5000"), Active: true, CreatedAt: now},
		{ID: "ING-CABAI", Name: "Cabai Merah", StockUnit: "g", PurchaseUnit: "kg", PurchaseToStockRatio: dec("1000"), MinStock: dec("500"), Active: true, CreatedAt: now},
		{ID: "ING-MINYAK", Name: "Minyak Goreng", StockUnit: "ml", PurchaseUnit: "l", PurchaseToStockRatio: dec("1000"), MinStock: dec("2000"), Active: true, CreatedAt: now},
		{ID: "ING-SAUS", Name: "Saus Padang (batch)", StockUnit: "ml", PurchaseUnit: "l", PurchaseToStockRatio: dec("1000"), MinStock: dec("1000"), Active: true, CreatedAt: now},
	}
	for _, ing := range ingredients {
		s.ingredients[ing.ID] = ing
	}

	s.recipes["ITEM-NASI-UDANG"] = []domain.RecipeLine{
		{ItemID: "ITEM-NASI-UDANG", IngredientID: "ING-UDANG", QtyPerUnit: dec("6")},
		{ItemID: "ITEM-NASI-UDANG", IngredientID: "ING-BERAS", QtyPerUnit: dec("150")},
		{ItemID: "ITEM-NASI-UDANG", IngredientID: "ING-SAUS", QtyPerUnit: dec("40")},
		{ItemID: "ITEM-NASI-UDANG", IngredientID: "ING-CABAI", QtyPerUnit: dec("5"), Optional: true},
	}
	s.recipes["RECIPE-SAUS-PADANG"] = []domain.RecipeLine{
		{ItemID: "RECIPE-SAUS-PADANG", IngredientID: "ING-CABAI", QtyPerUnit: dec("80")},
		{ItemID: "RECIPE-SAUS-PADANG", IngredientID: "ING-MINYAK", QtyPerUnit: dec("30")},
	}

	return s
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD; unset
// variables fall back to hardcoded dev defaults with a warning. Production
// deployments use PostgreSQL (DATABASE_URL) and never hit this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"staff", staffPwd, "staff"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) CreateIngredient(_ context.Context, ing domain.Ingredient) (*domain.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ing.ID == "" || ing.Name == "" || ing.StockUnit == "" {
		return nil, store.ErrInvalidInput
	}
	if ing.PurchaseToStockRatio.Sign() <= 0 || ing.MinStock.Sign() < 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.ingredients[ing.ID]; exists {
		return nil, store.ErrInvalidInput
	}

	ing.Active = true
	if ing.CreatedAt.IsZero() {
		ing.CreatedAt = time.Now().UTC()
	}
	s.ingredients[ing.ID] = ing
	created := ing
	return &created, nil
}

func (s *Store) GetIngredient(_ context.Context, id string) (*domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ing, exists := s.ingredients[id]
	if !exists {
		return nil, store.ErrIngredientNotFound
	}
	copyIng := ing
	return &copyIng, nil
}

func (s *Store) UpdateIngredient(_ context.Context, ing domain.Ingredient) (*domain.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ing.ID == "" || ing.Name == "" || ing.StockUnit == "" {
		return nil, store.ErrInvalidInput
	}
	if ing.PurchaseToStockRatio.Sign() <= 0 || ing.MinStock.Sign() < 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.ingredients[ing.ID]; !exists {
		return nil, store.ErrIngredientNotFound
	}

	s.ingredients[ing.ID] = ing
	updated := ing
	return &updated, nil
}

func (s *Store) ListIngredients(_ context.Context) ([]domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ingredients := make([]domain.Ingredient, 0, len(s.ingredients))
	for _, ing := range s.ingredients {
		ingredients = append(ingredients, ing)
	}
	slices.SortFunc(ingredients, func(a, b domain.Ingredient) int {
		return strings.Compare(a.ID, b.ID)
	})
	return ingredients, nil
}

func (s *Store) CreateLot(_ context.Context, lot domain.Lot) (*domain.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ingredients[lot.IngredientID]; !exists {
		return nil, store.ErrIngredientNotFound
	}
	if lot.InitialQty.Sign() <= 0 || lot.UnitCost.Sign() < 0 {
		return nil, store.ErrInvalidInput
	}
	if lot.RemainingQty.Sign() < 0 || lot.RemainingQty.GreaterThan(lot.InitialQty) {
		return nil, store.ErrInvalidInput
	}
	if lot.ID == "" {
		lot.ID = xid.New("lot")
	}
	if lot.AcquiredAt.IsZero() {
		lot.AcquiredAt = time.Now().UTC()
	}
	if lot.RemainingQty.IsZero() {
		lot.RemainingQty = lot.InitialQty
	}

	s.lotSeq++
	lot.Seq = s.lotSeq
	s.lotsByIng[lot.IngredientID] = append(s.lotsByIng[lot.IngredientID], lot)
	s.bumpStockLocked(lot.IngredientID, lot.RemainingQty)

	created := lot
	return &created, nil
}

func (s *Store) ListActiveLots(_ context.Context, ingredientID string) ([]domain.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.ingredients[ingredientID]; !exists {
		return nil, store.ErrIngredientNotFound
	}
	return s.activeLotsLocked(ingredientID), nil
}

func (s *Store) activeLotsLocked(ingredientID string) []domain.Lot {
	lots := make([]domain.Lot, 0, len(s.lotsByIng[ingredientID]))
	for _, lot := range s.lotsByIng[ingredientID] {
		if lot.RemainingQty.Sign() > 0 {
			lots = append(lots, lot)
		}
	}
	costing.SortLotsFIFO(lots)
	return lots
}

func (s *Store) ListLots(_ context.Context, ingredientID string, includeDepleted bool, limit int) ([]domain.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.ingredients[ingredientID]; !exists {
		return nil, store.ErrIngredientNotFound
	}
	lots := make([]domain.Lot, 0, len(s.lotsByIng[ingredientID]))
	for _, lot := range s.lotsByIng[ingredientID] {
		if !includeDepleted && lot.RemainingQty.Sign() <= 0 {
			continue
		}
		lots = append(lots, lot)
	}
	costing.SortLotsFIFO(lots)
	if limit > 0 && len(lots) > limit {
		lots = lots[:limit]
	}
	return lots, nil
}

func (s *Store) ConsumeFIFO(_ context.Context, ingredientID string, qty decimal.Decimal) (domain.ConsumptionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ingredients[ingredientID]; !exists {
		return domain.ConsumptionResult{}, store.ErrIngredientNotFound
	}
	if qty.Sign() < 0 {
		return domain.ConsumptionResult{}, store.ErrInvalidInput
	}

	result := costing.PlanConsumption(ingredientID, s.activeLotsLocked(ingredientID), qty)

	debitByLot := make(map[string]decimal.Decimal, len(result.Debits))
	for _, debit := range result.Debits {
		debitByLot[debit.LotID] = debit.Qty
	}
	lots := s.lotsByIng[ingredientID]
	for i := range lots {
		if use, ok := debitByLot[lots[i].ID]; ok {
			lots[i].RemainingQty = lots[i].RemainingQty.Sub(use)
		}
	}
	if result.QtyConsumed.Sign() > 0 {
		s.bumpStockLocked(ingredientID, result.QtyConsumed.Neg())
	}

	return result, nil
}

func (s *Store) bumpStockLocked(ingredientID string, delta decimal.Decimal) {
	level := s.stock[ingredientID]
	level.IngredientID = ingredientID
	level.CurrentStock = level.CurrentStock.Add(delta)
	level.LastUpdated = time.Now().UTC()
	s.stock[ingredientID] = level
}

func (s *Store) GetStockLevel(_ context.Context, ingredientID string) (domain.StockLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.ingredients[ingredientID]; !exists {
		return domain.StockLevel{}, store.ErrIngredientNotFound
	}
	level, ok := s.stock[ingredientID]
	if !ok {
		return domain.StockLevel{IngredientID: ingredientID, CurrentStock: decimal.Zero}, nil
	}
	return level, nil
}

func (s *Store) GetStockMap(_ context.Context, ingredientIDs []string) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stockMap := make(map[string]decimal.Decimal, len(ingredientIDs))
	for _, id := range ingredientIDs {
		stockMap[id] = s.stock[id].CurrentStock
	}
	return stockMap, nil
}

func (s *Store) ListStockLevels(_ context.Context) ([]domain.StockLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	levels := make([]domain.StockLevel, 0, len(s.ingredients))
	for id := range s.ingredients {
		level, ok := s.stock[id]
		if !ok {
			level = domain.StockLevel{IngredientID: id, CurrentStock: decimal.Zero}
		}
		levels = append(levels, level)
	}
	slices.SortFunc(levels, func(a, b domain.StockLevel) int {
		return strings.Compare(a.IngredientID, b.IngredientID)
	})
	return levels, nil
}

func (s *Store) RecomputeStockLevel(_ context.Context, ingredientID string) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ingredients[ingredientID]; !exists {
		return decimal.Zero, decimal.Zero, store.ErrIngredientNotFound
	}

	before := s.stock[ingredientID].CurrentStock
	after := costing.SumRemaining(s.lotsByIng[ingredientID])
	s.stock[ingredientID] = domain.StockLevel{
		IngredientID: ingredientID,
		CurrentStock: after,
		LastUpdated:  time.Now().UTC(),
	}
	return before, after, nil
}

func (s *Store) UpsertRecipe(_ context.Context, itemID string, lines []domain.RecipeLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if itemID == "" {
		return store.ErrInvalidInput
	}
	for _, line := range lines {
		if line.IngredientID == "" || line.QtyPerUnit.Sign() < 0 {
			return store.ErrInvalidInput
		}
		if _, exists := s.ingredients[line.IngredientID]; !exists {
			return store.ErrIngredientNotFound
		}
	}

	stored := make([]domain.RecipeLine, len(lines))
	copy(stored, lines)
	for i := range stored {
		stored[i].ItemID = itemID
	}
	s.recipes[itemID] = stored
	return nil
}

func (s *Store) GetRecipeLines(_ context.Context, itemID string) ([]domain.RecipeLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.recipes[itemID]
	result := make([]domain.RecipeLine, len(lines))
	copy(result, lines)
	return result, nil
}

func (s *Store) ListRecipeItemIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.recipes))
	for id := range s.recipes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.SoldAt.IsZero() {
		sale.SoldAt = time.Now().UTC()
	}
	s.salesByID[sale.ID] = sale
	created := sale
	return &created, nil
}

func (s *Store) ListSales(_ context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if sale.SoldAt.Before(from) || !sale.SoldAt.Before(to) {
			continue
		}
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.SoldAt.Equal(b.SoldAt) {
			return strings.Compare(a.ID, b.ID)
		}
		if a.SoldAt.Before(b.SoldAt) {
			return -1
		}
		return 1
	})
	return sales, nil
}

func (s *Store) CreateWaste(_ context.Context, entry domain.WasteEntry) (*domain.WasteEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("waste")
	}
	if entry.WastedAt.IsZero() {
		entry.WastedAt = time.Now().UTC()
	}
	s.wasteByID[entry.ID] = entry
	created := entry
	return &created, nil
}

func (s *Store) ListWaste(_ context.Context, from time.Time, to time.Time) ([]domain.WasteEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.WasteEntry, 0, len(s.wasteByID))
	for _, entry := range s.wasteByID {
		if entry.WastedAt.Before(from) || !entry.WastedAt.Before(to) {
			continue
		}
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b domain.WasteEntry) int {
		if a.WastedAt.Equal(b.WastedAt) {
			return strings.Compare(a.ID, b.ID)
		}
		if a.WastedAt.Before(b.WastedAt) {
			return -1
		}
		return 1
	})
	return entries, nil
}

func (s *Store) CreateBatch(_ context.Context, batch domain.ProductionBatch) (*domain.ProductionBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.ID == "" {
		batch.ID = xid.New("batch")
	}
	if batch.ProducedAt.IsZero() {
		batch.ProducedAt = time.Now().UTC()
	}
	s.batchesByID[batch.ID] = batch
	created := batch
	return &created, nil
}

func (s *Store) ListBatches(_ context.Context, from time.Time, to time.Time) ([]domain.ProductionBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches := make([]domain.ProductionBatch, 0, len(s.batchesByID))
	for _, batch := range s.batchesByID {
		if batch.ProducedAt.Before(from) || !batch.ProducedAt.Before(to) {
			continue
		}
		batches = append(batches, batch)
	}
	slices.SortFunc(batches, func(a, b domain.ProductionBatch) int {
		if a.ProducedAt.Equal(b.ProducedAt) {
			return strings.Compare(a.ID, b.ID)
		}
		if a.ProducedAt.Before(b.ProducedAt) {
			return -1
		}
		return 1
	})
	return batches, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.AuditLog, 0, len(s.auditLogs))
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		logs = append(logs, entry)
	}
	slices.SortFunc(logs, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.users[user.Username]; exists {
		return store.ErrInvalidInput
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}
