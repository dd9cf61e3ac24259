package costing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"dapurstok/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// BucketKey formats a timestamp into its report bucket: 2006-01-02 for day
// granularity, 2006-01 for month.
func BucketKey(ts time.Time, granularity string) string {
	if granularity == domain.GranularityMonth {
		return ts.UTC().Format("2006-01")
	}
	return ts.UTC().Format("2006-01-02")
}

// Aggregate folds recorded sales and waste into per-bucket revenue, COGS and
// profit figures. It is a pure read-side summation: the cost of each sale was
// fixed at consumption time and is never recomputed here.
//
// Per-platform allocation apportions each item's COGS in a bucket across
// platforms in proportion to the platform's share of that item's net revenue,
// so a platform that produced 60% of an item's revenue carries 60% of its
// cost.
func Aggregate(sales []domain.Sale, waste []domain.WasteEntry, granularity string) []domain.ReportBucket {
	type itemKey struct {
		bucket string
		itemID string
	}
	type itemTotals struct {
		cogs       decimal.Decimal
		netRevenue decimal.Decimal
		byPlatform map[string]decimal.Decimal
	}

	buckets := make(map[string]*domain.ReportBucket)
	items := make(map[itemKey]*itemTotals)

	ensure := func(key string) *domain.ReportBucket {
		b, ok := buckets[key]
		if !ok {
			b = &domain.ReportBucket{
				Period:       key,
				GrossRevenue: decimal.Zero,
				NetRevenue:   decimal.Zero,
				COGS:         decimal.Zero,
				WasteCost:    decimal.Zero,
			}
			buckets[key] = b
		}
		return b
	}

	for _, sale := range sales {
		key := BucketKey(sale.SoldAt, granularity)
		b := ensure(key)
		b.GrossRevenue = b.GrossRevenue.Add(sale.GrossRevenue)
		b.NetRevenue = b.NetRevenue.Add(sale.NetRevenue)
		b.COGS = b.COGS.Add(sale.COGS)

		ik := itemKey{bucket: key, itemID: sale.ItemID}
		totals, ok := items[ik]
		if !ok {
			totals = &itemTotals{
				cogs:       decimal.Zero,
				netRevenue: decimal.Zero,
				byPlatform: make(map[string]decimal.Decimal),
			}
			items[ik] = totals
		}
		totals.cogs = totals.cogs.Add(sale.COGS)
		totals.netRevenue = totals.netRevenue.Add(sale.NetRevenue)
		platform := sale.Platform
		if platform == "" {
			platform = domain.PlatformDineIn
		}
		totals.byPlatform[platform] = totals.byPlatform[platform].Add(sale.NetRevenue)
	}

	for _, entry := range waste {
		b := ensure(BucketKey(entry.WastedAt, granularity))
		b.WasteCost = b.WasteCost.Add(entry.Cost)
	}

	// Weighted COGS allocation per platform.
	allocations := make(map[string]map[string]*domain.PlatformSlice)
	for ik, totals := range items {
		perBucket, ok := allocations[ik.bucket]
		if !ok {
			perBucket = make(map[string]*domain.PlatformSlice)
			allocations[ik.bucket] = perBucket
		}
		for platform, revenue := range totals.byPlatform {
			slice, ok := perBucket[platform]
			if !ok {
				slice = &domain.PlatformSlice{
					Platform:   platform,
					NetRevenue: decimal.Zero,
					COGS:       decimal.Zero,
				}
				perBucket[platform] = slice
			}
			slice.NetRevenue = slice.NetRevenue.Add(revenue)
			if totals.netRevenue.Sign() > 0 {
				slice.COGS = slice.COGS.Add(totals.cogs.Mul(revenue).Div(totals.netRevenue))
			} else if len(totals.byPlatform) > 0 {
				// Zero-revenue item (e.g. fully comped): split cost evenly.
				slice.COGS = slice.COGS.Add(totals.cogs.Div(decimal.NewFromInt(int64(len(totals.byPlatform)))))
			}
		}
	}

	result := make([]domain.ReportBucket, 0, len(buckets))
	for key, b := range buckets {
		b.Profit = b.NetRevenue.Sub(b.COGS).Sub(b.WasteCost)
		if b.NetRevenue.Sign() > 0 {
			b.GrossMarginPct = b.NetRevenue.Sub(b.COGS).Div(b.NetRevenue).Mul(hundred)
		} else {
			b.GrossMarginPct = decimal.Zero
		}
		for _, slice := range allocations[key] {
			slice.Profit = slice.NetRevenue.Sub(slice.COGS)
			b.ByPlatform = append(b.ByPlatform, *slice)
		}
		sort.Slice(b.ByPlatform, func(i, j int) bool {
			return b.ByPlatform[i].Platform < b.ByPlatform[j].Platform
		})
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Period < result[j].Period
	})
	return result
}
