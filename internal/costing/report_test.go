package costing

import (
	"testing"
	"time"

	"dapurstok/backend/internal/domain"
)

func TestBucketKey(t *testing.T) {
	ts := time.Date(2026, 3, 10, 19, 30, 0, 0, time.UTC)
	if got := BucketKey(ts, domain.GranularityDay); got != "2026-03-10" {
		t.Fatalf("unexpected day key: %s", got)
	}
	if got := BucketKey(ts, domain.GranularityMonth); got != "2026-03" {
		t.Fatalf("unexpected month key: %s", got)
	}
}

func TestAggregateDailyTotalsAndPlatformAllocation(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		{
			ID: "sale-1", ItemID: "ITEM-NASI-UDANG", Qty: 1, Platform: domain.PlatformDineIn,
			GrossRevenue: dec("60000"), NetRevenue: dec("60000"), COGS: dec("20000"), CostKnown: true,
			SoldAt: day,
		},
		{
			ID: "sale-2", ItemID: "ITEM-NASI-UDANG", Qty: 1, Platform: domain.PlatformGoFood,
			GrossRevenue: dec("25000"), NetRevenue: dec("20000"), COGS: dec("20000"), CostKnown: true,
			SoldAt: day.Add(2 * time.Hour),
		},
	}
	waste := []domain.WasteEntry{
		{ID: "waste-1", IngredientID: "ING-UDANG", Cost: dec("5000"), WastedAt: day.Add(6 * time.Hour)},
	}

	buckets := Aggregate(sales, waste, domain.GranularityDay)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}

	b := buckets[0]
	if b.Period != "2026-03-10" {
		t.Fatalf("unexpected period: %s", b.Period)
	}
	if !b.GrossRevenue.Equal(dec("85000")) {
		t.Fatalf("expected gross 85000, got %s", b.GrossRevenue)
	}
	if !b.NetRevenue.Equal(dec("80000")) {
		t.Fatalf("expected net 80000, got %s", b.NetRevenue)
	}
	if !b.COGS.Equal(dec("40000")) {
		t.Fatalf("expected cogs 40000, got %s", b.COGS)
	}
	if !b.WasteCost.Equal(dec("5000")) {
		t.Fatalf("expected waste 5000, got %s", b.WasteCost)
	}
	if !b.Profit.Equal(dec("35000")) {
		t.Fatalf("expected profit 35000, got %s", b.Profit)
	}
	if !b.GrossMarginPct.Equal(dec("50")) {
		t.Fatalf("expected 50%% margin, got %s", b.GrossMarginPct)
	}

	// COGS follows net revenue share: dine-in carried 60000/80000 of the
	// item's revenue, so it carries 60000/80000 of its 40000 cost.
	if len(b.ByPlatform) != 2 {
		t.Fatalf("expected 2 platform slices, got %d", len(b.ByPlatform))
	}
	dineIn := b.ByPlatform[0]
	goFood := b.ByPlatform[1]
	if dineIn.Platform != domain.PlatformDineIn || goFood.Platform != domain.PlatformGoFood {
		t.Fatalf("unexpected platform order: %s, %s", dineIn.Platform, goFood.Platform)
	}
	if !dineIn.COGS.Equal(dec("30000")) {
		t.Fatalf("expected dine-in cogs 30000, got %s", dineIn.COGS)
	}
	if !goFood.COGS.Equal(dec("10000")) {
		t.Fatalf("expected gofood cogs 10000, got %s", goFood.COGS)
	}
	if !dineIn.Profit.Equal(dec("30000")) || !goFood.Profit.Equal(dec("10000")) {
		t.Fatalf("unexpected platform profits: %s, %s", dineIn.Profit, goFood.Profit)
	}
}

func TestAggregateMonthGranularityMergesDays(t *testing.T) {
	sales := []domain.Sale{
		{ID: "sale-1", ItemID: "ITEM-A", Platform: domain.PlatformDineIn, GrossRevenue: dec("10000"), NetRevenue: dec("10000"), COGS: dec("4000"), SoldAt: time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)},
		{ID: "sale-2", ItemID: "ITEM-A", Platform: domain.PlatformDineIn, GrossRevenue: dec("10000"), NetRevenue: dec("10000"), COGS: dec("4000"), SoldAt: time.Date(2026, 3, 28, 12, 0, 0, 0, time.UTC)},
		{ID: "sale-3", ItemID: "ITEM-A", Platform: domain.PlatformDineIn, GrossRevenue: dec("10000"), NetRevenue: dec("10000"), COGS: dec("4000"), SoldAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)},
	}

	buckets := Aggregate(sales, nil, domain.GranularityMonth)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 month buckets, got %d", len(buckets))
	}
	if buckets[0].Period != "2026-03" || buckets[1].Period != "2026-04" {
		t.Fatalf("unexpected bucket order: %s, %s", buckets[0].Period, buckets[1].Period)
	}
	if !buckets[0].NetRevenue.Equal(dec("20000")) || !buckets[0].COGS.Equal(dec("8000")) {
		t.Fatalf("unexpected march totals: net=%s cogs=%s", buckets[0].NetRevenue, buckets[0].COGS)
	}
}

func TestAggregateZeroRevenueItemSplitsCostEvenly(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		{ID: "sale-1", ItemID: "ITEM-COMP", Platform: domain.PlatformDineIn, GrossRevenue: dec("0"), NetRevenue: dec("0"), COGS: dec("6000"), SoldAt: day},
	}

	buckets := Aggregate(sales, nil, domain.GranularityDay)
	if len(buckets) != 1 || len(buckets[0].ByPlatform) != 1 {
		t.Fatalf("expected single bucket with one platform slice")
	}
	slice := buckets[0].ByPlatform[0]
	if !slice.COGS.Equal(dec("6000")) {
		t.Fatalf("expected full cost on the only platform, got %s", slice.COGS)
	}
	if !slice.Profit.Equal(dec("-6000")) {
		t.Fatalf("expected negative profit for comped item, got %s", slice.Profit)
	}
}

func TestAggregateWasteOnlyBucket(t *testing.T) {
	waste := []domain.WasteEntry{
		{ID: "waste-1", IngredientID: "ING-CABAI", Cost: dec("2500"), WastedAt: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)},
	}

	buckets := Aggregate(nil, waste, domain.GranularityDay)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	b := buckets[0]
	if !b.WasteCost.Equal(dec("2500")) || !b.Profit.Equal(dec("-2500")) {
		t.Fatalf("expected pure-loss bucket, got waste=%s profit=%s", b.WasteCost, b.Profit)
	}
	if !b.GrossMarginPct.IsZero() {
		t.Fatalf("expected zero margin with no revenue, got %s", b.GrossMarginPct)
	}
}
