package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is catalog reference data. Stock is tracked internally in
// StockUnit; purchases arrive in PurchaseUnit and are converted through
// PurchaseToStockRatio (1 purchase unit = ratio stock units).
type Ingredient struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	StockUnit            string          `json:"stock_unit"`
	PurchaseUnit         string          `json:"purchase_unit"`
	PurchaseToStockRatio decimal.Decimal `json:"purchase_to_stock_ratio"`
	MinStock             decimal.Decimal `json:"min_stock"`
	Active               bool            `json:"active"`
	CreatedAt            time.Time       `json:"created_at"`
}

type IngredientCreateRequest struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	StockUnit            string          `json:"stock_unit"`
	PurchaseUnit         string          `json:"purchase_unit"`
	PurchaseToStockRatio decimal.Decimal `json:"purchase_to_stock_ratio"`
	MinStock             decimal.Decimal `json:"min_stock"`
}

type IngredientUpdateRequest struct {
	Name                 *string          `json:"name,omitempty"`
	StockUnit            *string          `json:"stock_unit,omitempty"`
	PurchaseUnit         *string          `json:"purchase_unit,omitempty"`
	PurchaseToStockRatio *decimal.Decimal `json:"purchase_to_stock_ratio,omitempty"`
	MinStock             *decimal.Decimal `json:"min_stock,omitempty"`
	Active               *bool            `json:"active,omitempty"`
}

// Lot is one purchase event in the ledger. RemainingQty only ever decreases
// after creation; depleted lots are kept for audit, never deleted.
type Lot struct {
	ID           string          `json:"id"`
	IngredientID string          `json:"ingredient_id"`
	AcquiredAt   time.Time       `json:"acquired_at"`
	InitialQty   decimal.Decimal `json:"initial_qty"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	PurchaseRef  string          `json:"purchase_ref,omitempty"`
	Note         string          `json:"note,omitempty"`
	// Seq breaks acquired-at ties so FIFO stays deterministic
	// (first created, first consumed).
	Seq int64 `json:"seq"`
}

// StockLevel is the denormalized current-stock cache entry for one
// ingredient. It must always equal the sum of remaining lot quantities and
// is fully recomputable from the lot ledger.
type StockLevel struct {
	IngredientID string          `json:"ingredient_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	LastUpdated  time.Time       `json:"last_updated"`
}

type RecipeLine struct {
	ItemID       string          `json:"item_id"`
	IngredientID string          `json:"ingredient_id"`
	QtyPerUnit   decimal.Decimal `json:"qty_per_unit"`
	Optional     bool            `json:"optional"`
}

type RecipeUpsertRequest struct {
	ItemID string       `json:"item_id"`
	Lines  []RecipeLine `json:"lines"`
}

// Requirement is one resolved (ingredient, quantity) pair for an item at a
// given multiplier.
type Requirement struct {
	IngredientID string          `json:"ingredient_id"`
	Qty          decimal.Decimal `json:"qty"`
	Optional     bool            `json:"optional"`
}

// LotDebit records how much was taken from a single lot during one
// consumption, and at what unit cost.
type LotDebit struct {
	LotID    string          `json:"lot_id"`
	Qty      decimal.Decimal `json:"qty"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Cost     decimal.Decimal `json:"cost"`
}

// ConsumptionResult is the value returned by a FIFO consumption. Shortfall
// is the portion of the request that could not be satisfied; it is a result,
// not an error, and must never be swallowed.
type ConsumptionResult struct {
	IngredientID string          `json:"ingredient_id"`
	QtyRequested decimal.Decimal `json:"qty_requested"`
	QtyConsumed  decimal.Decimal `json:"qty_consumed"`
	Shortfall    decimal.Decimal `json:"shortfall"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Debits       []LotDebit      `json:"debits,omitempty"`
}

type PurchaseRequest struct {
	IngredientID string          `json:"ingredient_id"`
	PurchaseQty  decimal.Decimal `json:"purchase_qty"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	// ActualYield, when set, overrides the nominal ratio conversion with the
	// observed stock-unit yield of this delivery (e.g. a kilogram of shrimp
	// that counted out to 62 pieces).
	ActualYield *decimal.Decimal `json:"actual_yield,omitempty"`
	AcquiredAt  *time.Time       `json:"acquired_at,omitempty"`
	PurchaseRef string           `json:"purchase_ref,omitempty"`
	Note        string           `json:"note,omitempty"`
}

type PurchaseResponse struct {
	Lot        Lot             `json:"lot"`
	StockAfter decimal.Decimal `json:"stock_after"`
}

type SaleRequest struct {
	ItemID    string          `json:"item_id"`
	Qty       int64           `json:"qty"`
	Platform  string          `json:"platform"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	// NetUnitPrice is the per-unit revenue after platform commission.
	// Zero means no commission (net == gross).
	NetUnitPrice decimal.Decimal `json:"net_unit_price"`
	SoldAt       *time.Time      `json:"sold_at,omitempty"`
}

// SaleConsumption is the per-ingredient cost breakdown of one consumption
// pass (sale, waste, or production batch).
type SaleConsumption struct {
	IngredientID string          `json:"ingredient_id"`
	QtyRequested decimal.Decimal `json:"qty_requested"`
	QtyConsumed  decimal.Decimal `json:"qty_consumed"`
	Shortfall    decimal.Decimal `json:"shortfall"`
	Cost         decimal.Decimal `json:"cost"`
}

type Sale struct {
	ID           string            `json:"id"`
	ItemID       string            `json:"item_id"`
	Qty          int64             `json:"qty"`
	Platform     string            `json:"platform"`
	GrossRevenue decimal.Decimal   `json:"gross_revenue"`
	NetRevenue   decimal.Decimal   `json:"net_revenue"`
	COGS         decimal.Decimal   `json:"cogs"`
	CostKnown    bool              `json:"cost_known"`
	Consumptions []SaleConsumption `json:"consumptions"`
	SoldAt       time.Time         `json:"sold_at"`
}

type SaleResponse struct {
	Sale       Sale              `json:"sale"`
	Shortfalls []SaleConsumption `json:"shortfalls,omitempty"`
}

type WasteRequest struct {
	IngredientID string          `json:"ingredient_id"`
	Qty          decimal.Decimal `json:"qty"`
	Reason       string          `json:"reason"`
	WastedAt     *time.Time      `json:"wasted_at,omitempty"`
}

type WasteEntry struct {
	ID           string          `json:"id"`
	IngredientID string          `json:"ingredient_id"`
	QtyRequested decimal.Decimal `json:"qty_requested"`
	QtyConsumed  decimal.Decimal `json:"qty_consumed"`
	Shortfall    decimal.Decimal `json:"shortfall"`
	Cost         decimal.Decimal `json:"cost"`
	Reason       string          `json:"reason"`
	WastedAt     time.Time       `json:"wasted_at"`
}

type BatchRequest struct {
	RecipeID      string     `json:"recipe_id"`
	ProducedUnits int64      `json:"produced_units"`
	Note          string     `json:"note"`
	ProducedAt    *time.Time `json:"produced_at,omitempty"`
}

type ProductionBatch struct {
	ID            string            `json:"id"`
	RecipeID      string            `json:"recipe_id"`
	ProducedUnits int64             `json:"produced_units"`
	TotalCost     decimal.Decimal   `json:"total_cost"`
	Consumptions  []SaleConsumption `json:"consumptions"`
	Note          string            `json:"note,omitempty"`
	ProducedAt    time.Time         `json:"produced_at"`
}

type BatchResponse struct {
	Batch      ProductionBatch   `json:"batch"`
	Shortfalls []SaleConsumption `json:"shortfalls,omitempty"`
}

// AvailabilityResponse reports how many units of an item current stock can
// cover. Units is nil when the item has no required recipe lines, in which
// case availability is undefined rather than infinite.
type AvailabilityResponse struct {
	ItemID string `json:"item_id"`
	Units  *int64 `json:"units"`
}

type LowStockAlert struct {
	IngredientID string          `json:"ingredient_id"`
	Name         string          `json:"name"`
	StockUnit    string          `json:"stock_unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
}

type RecomputeResponse struct {
	IngredientID string          `json:"ingredient_id"`
	StockBefore  decimal.Decimal `json:"stock_before"`
	StockAfter   decimal.Decimal `json:"stock_after"`
	Drift        decimal.Decimal `json:"drift"`
}

// PlatformSlice is the per-platform allocation inside a report bucket.
type PlatformSlice struct {
	Platform   string          `json:"platform"`
	NetRevenue decimal.Decimal `json:"net_revenue"`
	COGS       decimal.Decimal `json:"cogs"`
	Profit     decimal.Decimal `json:"profit"`
}

type ReportBucket struct {
	Period         string          `json:"period"`
	GrossRevenue   decimal.Decimal `json:"gross_revenue"`
	NetRevenue     decimal.Decimal `json:"net_revenue"`
	COGS           decimal.Decimal `json:"cogs"`
	WasteCost      decimal.Decimal `json:"waste_cost"`
	Profit         decimal.Decimal `json:"profit"`
	GrossMarginPct decimal.Decimal `json:"gross_margin_pct"`
	ByPlatform     []PlatformSlice `json:"by_platform,omitempty"`
}

type CostReport struct {
	From        string         `json:"from"`
	To          string         `json:"to"`
	Granularity string         `json:"granularity"`
	Buckets     []ReportBucket `json:"buckets"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	GranularityDay   = "day"
	GranularityMonth = "month"
)

const (
	PlatformDineIn   = "dine-in"
	PlatformGoFood   = "gofood"
	PlatformGrabFood = "grabfood"
)
