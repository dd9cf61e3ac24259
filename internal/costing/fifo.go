package costing

import (
	"slices"

	"github.com/shopspring/decimal"

	"dapurstok/backend/internal/domain"
)

// SortLotsFIFO orders lots oldest acquired first, breaking acquired-at ties
// by insertion sequence so repeated runs over the same ledger are
// deterministic.
func SortLotsFIFO(lots []domain.Lot) {
	slices.SortStableFunc(lots, func(a, b domain.Lot) int {
		if a.AcquiredAt.Before(b.AcquiredAt) {
			return -1
		}
		if a.AcquiredAt.After(b.AcquiredAt) {
			return 1
		}
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		default:
			return 0
		}
	})
}

// PlanConsumption walks the given lots in FIFO order and computes the debits
// needed to cover qty. It does not mutate the lots; the store applies the
// returned debits under its own serialization. When the lots cannot cover
// the request, the remainder is reported as Shortfall — the plan never debits
// a lot below zero and never fabricates negative stock.
func PlanConsumption(ingredientID string, lots []domain.Lot, qty decimal.Decimal) domain.ConsumptionResult {
	result := domain.ConsumptionResult{
		IngredientID: ingredientID,
		QtyRequested: qty,
		QtyConsumed:  decimal.Zero,
		Shortfall:    decimal.Zero,
		TotalCost:    decimal.Zero,
	}
	if qty.Sign() <= 0 {
		return result
	}

	ordered := make([]domain.Lot, len(lots))
	copy(ordered, lots)
	SortLotsFIFO(ordered)

	remaining := qty
	for _, lot := range ordered {
		if remaining.IsZero() {
			break
		}
		if lot.RemainingQty.Sign() <= 0 {
			continue
		}
		use := decimal.Min(lot.RemainingQty, remaining)
		cost := use.Mul(lot.UnitCost)
		result.Debits = append(result.Debits, domain.LotDebit{
			LotID:    lot.ID,
			Qty:      use,
			UnitCost: lot.UnitCost,
			Cost:     cost,
		})
		result.TotalCost = result.TotalCost.Add(cost)
		remaining = remaining.Sub(use)
	}

	result.QtyConsumed = qty.Sub(remaining)
	result.Shortfall = remaining
	return result
}

// UnitCostFromPurchase derives the stock-unit cost of a lot:
// totalPrice / stockQty. stockQty must be positive.
func UnitCostFromPurchase(totalPrice, stockQty decimal.Decimal) decimal.Decimal {
	return totalPrice.Div(stockQty)
}

// StockQtyFromPurchase converts a purchase quantity to stock units. When an
// observed yield is supplied it wins over the nominal ratio, because real
// deliveries vary (a kilogram of shrimp does not always count out the same).
func StockQtyFromPurchase(purchaseQty, ratio decimal.Decimal, actualYield *decimal.Decimal) decimal.Decimal {
	if actualYield != nil {
		return *actualYield
	}
	return purchaseQty.Mul(ratio)
}

// SumRemaining is the ledger-side truth a stock level must agree with.
func SumRemaining(lots []domain.Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		if lot.RemainingQty.Sign() > 0 {
			total = total.Add(lot.RemainingQty)
		}
	}
	return total
}
