package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dapurstok/backend/internal/cache"
	"dapurstok/backend/internal/domain"
	"dapurstok/backend/internal/store"
	"dapurstok/backend/internal/store/memory"
)

func newTestService() *Service {
	return New(memory.NewSeeded(), cache.NoopStockCache{})
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func mustPurchase(t *testing.T, svc *Service, req domain.PurchaseRequest) domain.PurchaseResponse {
	t.Helper()
	resp, err := svc.RecordPurchase(adminCtx(), req)
	if err != nil {
		t.Fatalf("purchase %s failed: %v", req.IngredientID, err)
	}
	return resp
}

func TestPurchaseConvertsToStockUnits(t *testing.T) {
	svc := newTestService()

	acquired := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	resp := mustPurchase(t, svc, domain.PurchaseRequest{
		IngredientID: "ING-UDANG",
		PurchaseQty:  dec("2"),
		TotalPrice:   dec("600000"),
		AcquiredAt:   &acquired,
		PurchaseRef:  "INV-001",
	})

	if !resp.Lot.InitialQty.Equal(dec("120")) {
		t.Fatalf("expected 2 kg * 60 = 120 pieces, got %s", resp.Lot.InitialQty)
	}
	if !resp.Lot.UnitCost.Equal(dec("5000")) {
		t.Fatalf("expected unit cost 5000/piece, got %s", resp.Lot.UnitCost)
	}
	if !resp.StockAfter.Equal(dec("120")) {
		t.Fatalf("expected stock 120 after purchase, got %s", resp.StockAfter)
	}
}

func TestPurchaseActualYieldOverridesRatio(t *testing.T) {
	svc := newTestService()

	yield := dec("62")
	resp := mustPurchase(t, svc, domain.PurchaseRequest{
		IngredientID: "ING-UDANG",
		PurchaseQty:  dec("1"),
		TotalPrice:   dec("310000"),
		ActualYield:  &yield,
	})

	if !resp.Lot.InitialQty.Equal(dec("62")) {
		t.Fatalf("expected counted yield 62, got %s", resp.Lot.InitialQty)
	}
	if !resp.Lot.UnitCost.Equal(dec("5000")) {
		t.Fatalf("expected unit cost 310000/62 = 5000, got %s", resp.Lot.UnitCost)
	}
}

func TestPurchaseZeroYieldRejected(t *testing.T) {
	svc := newTestService()

	yield := dec("0")
	_, err := svc.RecordPurchase(adminCtx(), domain.PurchaseRequest{
		IngredientID: "ING-UDANG",
		PurchaseQty:  dec("1"),
		TotalPrice:   dec("50000"),
		ActualYield:  &yield,
	})
	if !errors.Is(err, store.ErrZeroYield) {
		t.Fatalf("expected ErrZeroYield, got %v", err)
	}
}

func TestPurchaseUnknownIngredientRejected(t *testing.T) {
	svc := newTestService()

	_, err := svc.RecordPurchase(adminCtx(), domain.PurchaseRequest{
		IngredientID: "ING-MISTERI",
		PurchaseQty:  dec("1"),
		TotalPrice:   dec("10000"),
	})
	if !errors.Is(err, store.ErrIngredientNotFound) {
		t.Fatalf("expected ErrIngredientNotFound, got %v", err)
	}
}

// seedTestIngredient creates a ratio-1 ingredient with two lots: 100 units at
// cost 5 each, then 50 units at cost 6 each.
func seedTestIngredient(t *testing.T, svc *Service) {
	t.Helper()
	_, err := svc.CreateIngredient(adminCtx(), domain.IngredientCreateRequest{
		ID:                   "ING-TEST",
		Name:                 "Bahan Uji",
		StockUnit:            "g",
		PurchaseToStockRatio: dec("1"),
	})
	if err != nil {
		t.Fatalf("create ingredient failed: %v", err)
	}

	first := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-TEST", PurchaseQty: dec("100"), TotalPrice: dec("500"), AcquiredAt: &first})
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-TEST", PurchaseQty: dec("50"), TotalPrice: dec("300"), AcquiredAt: &second})
}

func TestConsumeDebitsOldestLotsFirst(t *testing.T) {
	svc := newTestService()
	seedTestIngredient(t, svc)

	result, err := svc.Consume(context.Background(), "ING-TEST", dec("120"))
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if !result.QtyConsumed.Equal(dec("120")) || !result.Shortfall.IsZero() {
		t.Fatalf("expected full consumption, got consumed=%s shortfall=%s", result.QtyConsumed, result.Shortfall)
	}
	if !result.TotalCost.Equal(dec("620")) {
		t.Fatalf("expected cost 100*5 + 20*6 = 620, got %s", result.TotalCost)
	}

	level, err := svc.GetStockLevel(context.Background(), "ING-TEST")
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if !level.CurrentStock.Equal(dec("30")) {
		t.Fatalf("expected 30 left, got %s", level.CurrentStock)
	}

	lots, err := svc.ListLots(context.Background(), "ING-TEST", true, 0)
	if err != nil {
		t.Fatalf("list lots failed: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("expected depleted lot kept in ledger, got %d lots", len(lots))
	}
	if !lots[0].RemainingQty.IsZero() || !lots[1].RemainingQty.Equal(dec("30")) {
		t.Fatalf("unexpected remaining: %s / %s", lots[0].RemainingQty, lots[1].RemainingQty)
	}
}

func TestConsumeShortfallIsResultNotError(t *testing.T) {
	svc := newTestService()
	seedTestIngredient(t, svc)

	result, err := svc.Consume(context.Background(), "ING-TEST", dec("200"))
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if !result.QtyConsumed.Equal(dec("150")) {
		t.Fatalf("expected 150 consumed, got %s", result.QtyConsumed)
	}
	if !result.Shortfall.Equal(dec("50")) {
		t.Fatalf("expected shortfall 50, got %s", result.Shortfall)
	}
	if !result.TotalCost.Equal(dec("800")) {
		t.Fatalf("expected cost 800, got %s", result.TotalCost)
	}

	level, _ := svc.GetStockLevel(context.Background(), "ING-TEST")
	if !level.CurrentStock.IsZero() {
		t.Fatalf("expected stock drained to zero, never negative, got %s", level.CurrentStock)
	}
}

func TestConsumeZeroQtyIsNoOp(t *testing.T) {
	svc := newTestService()
	seedTestIngredient(t, svc)

	result, err := svc.Consume(context.Background(), "ING-TEST", decimal.Zero)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if !result.QtyConsumed.IsZero() || len(result.Debits) != 0 {
		t.Fatalf("expected no-op, got %+v", result)
	}

	level, _ := svc.GetStockLevel(context.Background(), "ING-TEST")
	if !level.CurrentStock.Equal(dec("150")) {
		t.Fatalf("expected stock untouched at 150, got %s", level.CurrentStock)
	}
}

func TestConsumeUnknownIngredientRejected(t *testing.T) {
	svc := newTestService()

	_, err := svc.Consume(context.Background(), "ING-MISTERI", dec("5"))
	if !errors.Is(err, store.ErrIngredientNotFound) {
		t.Fatalf("expected ErrIngredientNotFound, got %v", err)
	}
}

func TestStockConservationAndIdempotentRecompute(t *testing.T) {
	svc := newTestService()
	seedTestIngredient(t, svc)

	if _, err := svc.Consume(context.Background(), "ING-TEST", dec("73.5")); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	lots, err := svc.ListLots(context.Background(), "ING-TEST", true, 0)
	if err != nil {
		t.Fatalf("list lots failed: %v", err)
	}
	sum := decimal.Zero
	for _, lot := range lots {
		sum = sum.Add(lot.RemainingQty)
	}
	level, _ := svc.GetStockLevel(context.Background(), "ING-TEST")
	if !level.CurrentStock.Equal(sum) {
		t.Fatalf("stock level %s disagrees with ledger sum %s", level.CurrentStock, sum)
	}

	first, err := svc.RecomputeStock(context.Background(), "ING-TEST")
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if !first.Drift.IsZero() {
		t.Fatalf("expected no drift on consistent aggregate, got %s", first.Drift)
	}

	second, err := svc.RecomputeStock(context.Background(), "ING-TEST")
	if err != nil {
		t.Fatalf("second recompute failed: %v", err)
	}
	if !second.StockAfter.Equal(first.StockAfter) {
		t.Fatalf("recompute not idempotent: %s then %s", first.StockAfter, second.StockAfter)
	}
}

func seedRestaurantStock(t *testing.T, svc *Service) {
	t.Helper()
	acquired := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-UDANG", PurchaseQty: dec("2"), TotalPrice: dec("600000"), AcquiredAt: &acquired})
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-BERAS", PurchaseQty: dec("10"), TotalPrice: dec("120000"), AcquiredAt: &acquired})
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-SAUS", PurchaseQty: dec("2"), TotalPrice: dec("100000"), AcquiredAt: &acquired})
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-CABAI", PurchaseQty: dec("1"), TotalPrice: dec("40000"), AcquiredAt: &acquired})
}

func TestRecordSaleComputesCOGSFromRecipe(t *testing.T) {
	svc := newTestService()
	seedRestaurantStock(t, svc)

	resp, err := svc.RecordSale(context.Background(), domain.SaleRequest{
		ItemID:       "ITEM-NASI-UDANG",
		Qty:          2,
		Platform:     domain.PlatformGoFood,
		UnitPrice:    dec("45000"),
		NetUnitPrice: dec("36000"),
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	sale := resp.Sale
	if !sale.GrossRevenue.Equal(dec("90000")) || !sale.NetRevenue.Equal(dec("72000")) {
		t.Fatalf("unexpected revenue: gross=%s net=%s", sale.GrossRevenue, sale.NetRevenue)
	}
	// 12 udang * 5000 + 300 g beras * 12 + 80 ml saus * 50 + 10 g cabai * 40
	if !sale.COGS.Equal(dec("68000")) {
		t.Fatalf("expected COGS 68000, got %s", sale.COGS)
	}
	if !sale.CostKnown {
		t.Fatalf("expected cost known for recipe-backed item")
	}
	if len(sale.Consumptions) != 4 {
		t.Fatalf("expected 4 consumption lines, got %d", len(sale.Consumptions))
	}
	if len(resp.Shortfalls) != 0 {
		t.Fatalf("expected no shortfalls, got %d", len(resp.Shortfalls))
	}

	level, _ := svc.GetStockLevel(context.Background(), "ING-UDANG")
	if !level.CurrentStock.Equal(dec("108")) {
		t.Fatalf("expected 120 - 12 = 108 udang left, got %s", level.CurrentStock)
	}
}

func TestRecordSaleWithoutRecipeHasUnknownCost(t *testing.T) {
	svc := newTestService()

	resp, err := svc.RecordSale(context.Background(), domain.SaleRequest{
		ItemID:    "ITEM-ES-TEH",
		Qty:       1,
		UnitPrice: dec("5000"),
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if resp.Sale.CostKnown {
		t.Fatalf("expected cost unknown for item without recipe")
	}
	if !resp.Sale.COGS.IsZero() {
		t.Fatalf("expected zero COGS placeholder, got %s", resp.Sale.COGS)
	}
	if resp.Sale.Platform != domain.PlatformDineIn {
		t.Fatalf("expected default platform dine-in, got %s", resp.Sale.Platform)
	}
	if !resp.Sale.NetRevenue.Equal(dec("5000")) {
		t.Fatalf("expected net defaulted to gross, got %s", resp.Sale.NetRevenue)
	}
}

func TestRecordSaleSurfacesShortfallsWithoutRollback(t *testing.T) {
	svc := newTestService()
	acquired := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	// Only shrimp on hand, nowhere near enough for 20 portions.
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-UDANG", PurchaseQty: dec("1"), TotalPrice: dec("300000"), AcquiredAt: &acquired})

	resp, err := svc.RecordSale(context.Background(), domain.SaleRequest{
		ItemID:    "ITEM-NASI-UDANG",
		Qty:       20,
		UnitPrice: dec("45000"),
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if len(resp.Shortfalls) == 0 {
		t.Fatalf("expected shortfalls to be surfaced")
	}

	// Partial consumption stands: all 60 shrimp were used for the 120 needed.
	level, _ := svc.GetStockLevel(context.Background(), "ING-UDANG")
	if !level.CurrentStock.IsZero() {
		t.Fatalf("expected shrimp drained, got %s", level.CurrentStock)
	}
	for _, short := range resp.Shortfalls {
		if short.IngredientID == "ING-UDANG" && !short.Shortfall.Equal(dec("60")) {
			t.Fatalf("expected shrimp shortfall 60, got %s", short.Shortfall)
		}
	}
}

func TestRecordWasteChargesFIFOCost(t *testing.T) {
	svc := newTestService()
	seedTestIngredient(t, svc)

	entry, err := svc.RecordWaste(adminCtx(), domain.WasteRequest{
		IngredientID: "ING-TEST",
		Qty:          dec("10"),
		Reason:       "jatuh ke lantai",
	})
	if err != nil {
		t.Fatalf("record waste failed: %v", err)
	}
	if !entry.Cost.Equal(dec("50")) {
		t.Fatalf("expected waste cost 10*5 = 50, got %s", entry.Cost)
	}
	if !entry.Shortfall.IsZero() {
		t.Fatalf("expected no shortfall, got %s", entry.Shortfall)
	}

	level, _ := svc.GetStockLevel(context.Background(), "ING-TEST")
	if !level.CurrentStock.Equal(dec("140")) {
		t.Fatalf("expected 140 left, got %s", level.CurrentStock)
	}
}

func TestRecordBatchConsumesRecipeIngredients(t *testing.T) {
	svc := newTestService()
	acquired := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-CABAI", PurchaseQty: dec("1"), TotalPrice: dec("40000"), AcquiredAt: &acquired})
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-MINYAK", PurchaseQty: dec("1"), TotalPrice: dec("20000"), AcquiredAt: &acquired})

	resp, err := svc.RecordBatch(adminCtx(), domain.BatchRequest{
		RecipeID:      "RECIPE-SAUS-PADANG",
		ProducedUnits: 10,
	})
	if err != nil {
		t.Fatalf("record batch failed: %v", err)
	}
	// 800 g cabai * 40 + 300 ml minyak * 20
	if !resp.Batch.TotalCost.Equal(dec("38000")) {
		t.Fatalf("expected batch cost 38000, got %s", resp.Batch.TotalCost)
	}
	if len(resp.Shortfalls) != 0 {
		t.Fatalf("expected no shortfalls, got %d", len(resp.Shortfalls))
	}

	cabai, _ := svc.GetStockLevel(context.Background(), "ING-CABAI")
	if !cabai.CurrentStock.Equal(dec("200")) {
		t.Fatalf("expected 1000 - 800 = 200 g cabai, got %s", cabai.CurrentStock)
	}
}

func TestComputeAvailableUnitsTakesFloorOfScarcestLine(t *testing.T) {
	svc := newTestService()
	acquired := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	udang := dec("20")
	saus := dec("100")
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-UDANG", PurchaseQty: dec("1"), TotalPrice: dec("100000"), ActualYield: &udang, AcquiredAt: &acquired})
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-BERAS", PurchaseQty: dec("1"), TotalPrice: dec("12000"), AcquiredAt: &acquired})
	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-SAUS", PurchaseQty: dec("1"), TotalPrice: dec("50000"), ActualYield: &saus, AcquiredAt: &acquired})

	resp, err := svc.ComputeAvailableUnits(context.Background(), "ITEM-NASI-UDANG")
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if resp.Units == nil {
		t.Fatalf("expected defined availability")
	}
	// udang 20/6 = 3, beras 1000/150 = 6, saus 100/40 = 2; optional cabai at
	// zero stock does not constrain.
	if *resp.Units != 2 {
		t.Fatalf("expected 2 units available, got %d", *resp.Units)
	}
}

func TestComputeAvailableUnitsUndefinedWithoutRecipe(t *testing.T) {
	svc := newTestService()

	resp, err := svc.ComputeAvailableUnits(context.Background(), "ITEM-ES-TEH")
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if resp.Units != nil {
		t.Fatalf("expected nil units for item without recipe, got %d", *resp.Units)
	}
}

func TestLowStockAlerts(t *testing.T) {
	svc := newTestService()

	alerts, err := svc.LowStockAlerts(context.Background())
	if err != nil {
		t.Fatalf("alerts failed: %v", err)
	}
	if len(alerts) != 5 {
		t.Fatalf("expected all 5 seeded ingredients below minimum at zero stock, got %d", len(alerts))
	}

	mustPurchase(t, svc, domain.PurchaseRequest{IngredientID: "ING-UDANG", PurchaseQty: dec("2"), TotalPrice: dec("600000")})

	alerts, err = svc.LowStockAlerts(context.Background())
	if err != nil {
		t.Fatalf("alerts failed: %v", err)
	}
	for _, alert := range alerts {
		if alert.IngredientID == "ING-UDANG" {
			t.Fatalf("expected shrimp above minimum after restock")
		}
	}
}

func TestCostReportAggregatesSalesAndWaste(t *testing.T) {
	svc := newTestService()
	seedRestaurantStock(t, svc)

	soldAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if _, err := svc.RecordSale(context.Background(), domain.SaleRequest{
		ItemID:       "ITEM-NASI-UDANG",
		Qty:          1,
		Platform:     domain.PlatformDineIn,
		UnitPrice:    dec("45000"),
		SoldAt:       &soldAt,
	}); err != nil {
		t.Fatalf("dine-in sale failed: %v", err)
	}
	laterSale := soldAt.Add(3 * time.Hour)
	if _, err := svc.RecordSale(context.Background(), domain.SaleRequest{
		ItemID:       "ITEM-NASI-UDANG",
		Qty:          1,
		Platform:     domain.PlatformGoFood,
		UnitPrice:    dec("45000"),
		NetUnitPrice: dec("36000"),
		SoldAt:       &laterSale,
	}); err != nil {
		t.Fatalf("gofood sale failed: %v", err)
	}
	wastedAt := soldAt.Add(6 * time.Hour)
	if _, err := svc.RecordWaste(adminCtx(), domain.WasteRequest{
		IngredientID: "ING-UDANG",
		Qty:          dec("4"),
		Reason:       "busuk",
		WastedAt:     &wastedAt,
	}); err != nil {
		t.Fatalf("waste failed: %v", err)
	}

	report, err := svc.CostReport(context.Background(),
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		domain.GranularityDay)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if len(report.Buckets) != 1 {
		t.Fatalf("expected 1 day bucket, got %d", len(report.Buckets))
	}

	b := report.Buckets[0]
	if b.Period != "2026-03-10" {
		t.Fatalf("unexpected period %s", b.Period)
	}
	if !b.GrossRevenue.Equal(dec("90000")) {
		t.Fatalf("expected gross 90000, got %s", b.GrossRevenue)
	}
	if !b.NetRevenue.Equal(dec("81000")) {
		t.Fatalf("expected net 45000 + 36000 = 81000, got %s", b.NetRevenue)
	}
	// Each portion costs 34000; 4 wasted shrimp cost 20000.
	if !b.COGS.Equal(dec("68000")) {
		t.Fatalf("expected COGS 68000, got %s", b.COGS)
	}
	if !b.WasteCost.Equal(dec("20000")) {
		t.Fatalf("expected waste 20000, got %s", b.WasteCost)
	}
	if !b.Profit.Equal(dec("-7000")) {
		t.Fatalf("expected profit 81000 - 68000 - 20000 = -7000, got %s", b.Profit)
	}
	if len(b.ByPlatform) != 2 {
		t.Fatalf("expected 2 platform slices, got %d", len(b.ByPlatform))
	}
}

func TestCostReportRejectsInvalidRange(t *testing.T) {
	svc := newTestService()

	at := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if _, err := svc.CostReport(context.Background(), at, at, domain.GranularityDay); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty range, got %v", err)
	}
	if _, err := svc.CostReport(context.Background(), at, at.Add(24*time.Hour), "week"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unsupported granularity, got %v", err)
	}
}

func TestCreateIngredientRequiresAdmin(t *testing.T) {
	svc := newTestService()
	staff := WithActor(context.Background(), domain.Actor{Username: "staff", Role: "staff"})

	_, err := svc.CreateIngredient(staff, domain.IngredientCreateRequest{
		ID:                   "ING-BARU",
		Name:                 "Bahan Baru",
		StockUnit:            "g",
		PurchaseToStockRatio: dec("1"),
	})
	if err == nil {
		t.Fatalf("expected non-admin create to fail")
	}
}

func TestUpsertRecipeValidatesLines(t *testing.T) {
	svc := newTestService()

	err := svc.UpsertRecipe(adminCtx(), domain.RecipeUpsertRequest{
		ItemID: "ITEM-BARU",
		Lines: []domain.RecipeLine{
			{IngredientID: "ING-UDANG", QtyPerUnit: dec("4")},
			{IngredientID: "ING-UDANG", QtyPerUnit: dec("2")},
		},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected duplicate ingredient line to be rejected, got %v", err)
	}

	err = svc.UpsertRecipe(adminCtx(), domain.RecipeUpsertRequest{
		ItemID: "ITEM-BARU",
		Lines: []domain.RecipeLine{
			{IngredientID: "ING-UDANG", QtyPerUnit: dec("4")},
			{IngredientID: "ING-BERAS", QtyPerUnit: dec("100")},
		},
	})
	if err != nil {
		t.Fatalf("valid upsert failed: %v", err)
	}

	lines, err := svc.GetRecipe(context.Background(), "ITEM-BARU")
	if err != nil {
		t.Fatalf("get recipe failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 recipe lines, got %d", len(lines))
	}
}

func TestAuditLogWrittenForMutations(t *testing.T) {
	svc := newTestService()
	seedRestaurantStock(t, svc)

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)
	logs, err := svc.ListAuditLogs(context.Background(), from, to, 50)
	if err != nil {
		t.Fatalf("list audit logs failed: %v", err)
	}
	if len(logs) != 4 {
		t.Fatalf("expected 4 purchase audit entries, got %d", len(logs))
	}
	if logs[0].Action != "purchase" || logs[0].ActorUsername != "admin" {
		t.Fatalf("unexpected audit entry: %+v", logs[0])
	}
}
