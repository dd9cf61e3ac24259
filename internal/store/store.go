package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"dapurstok/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrZeroYield          = errors.New("zero yield")
)

// Repository is the persistence boundary for the costing engine. Mutations
// against a single ingredient's lots and stock level are serialized by the
// implementation: the in-memory store holds a store-wide write lock, the
// postgres store locks the ingredient's lot rows inside a transaction. FIFO
// consumption reads and updates several lot rows as one unit and would
// double-spend without that serialization.
type Repository interface {
	CreateIngredient(ctx context.Context, ing domain.Ingredient) (*domain.Ingredient, error)
	GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, ing domain.Ingredient) (*domain.Ingredient, error)
	ListIngredients(ctx context.Context) ([]domain.Ingredient, error)

	// CreateLot appends a lot and increments the ingredient's stock level in
	// one transaction. The ingredient must exist (ErrIngredientNotFound).
	CreateLot(ctx context.Context, lot domain.Lot) (*domain.Lot, error)
	// ListActiveLots returns lots with remaining quantity > 0, ordered by
	// acquired_at then insertion order.
	ListActiveLots(ctx context.Context, ingredientID string) ([]domain.Lot, error)
	ListLots(ctx context.Context, ingredientID string, includeDepleted bool, limit int) ([]domain.Lot, error)
	// ConsumeFIFO debits active lots oldest-first and decrements the stock
	// level by the quantity actually consumed. Insufficient stock is reported
	// through the result's Shortfall, never as an error.
	ConsumeFIFO(ctx context.Context, ingredientID string, qty decimal.Decimal) (domain.ConsumptionResult, error)

	GetStockLevel(ctx context.Context, ingredientID string) (domain.StockLevel, error)
	GetStockMap(ctx context.Context, ingredientIDs []string) (map[string]decimal.Decimal, error)
	ListStockLevels(ctx context.Context) ([]domain.StockLevel, error)
	// RecomputeStockLevel overwrites the cached stock level with the sum of
	// remaining lot quantities and returns (before, after).
	RecomputeStockLevel(ctx context.Context, ingredientID string) (decimal.Decimal, decimal.Decimal, error)

	UpsertRecipe(ctx context.Context, itemID string, lines []domain.RecipeLine) error
	GetRecipeLines(ctx context.Context, itemID string) ([]domain.RecipeLine, error)
	ListRecipeItemIDs(ctx context.Context) ([]string, error)

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error)
	CreateWaste(ctx context.Context, entry domain.WasteEntry) (*domain.WasteEntry, error)
	ListWaste(ctx context.Context, from time.Time, to time.Time) ([]domain.WasteEntry, error)
	CreateBatch(ctx context.Context, batch domain.ProductionBatch) (*domain.ProductionBatch, error)
	ListBatches(ctx context.Context, from time.Time, to time.Time) ([]domain.ProductionBatch, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
