package compare

import (
	"sort"
	"strings"
)

// #region weights

// Fixed scoring policy. Changing these is a deployment decision, not a
// runtime parameter.
const (
	priceWeight    = 0.5
	deliveryWeight = 0.3
	qualityWeight  = 0.2
)

// #endregion weights

// #region compare

// Compare normalizes price, delivery, and quality across the quote set and
// ranks by weighted composite score, best first. Ties break by lower unit
// price, then supplier name. Input order does not affect the result.
func Compare(quotes []Quote) (Result, error) {
	if len(quotes) == 0 {
		return Result{}, &EmptyQuoteSetError{}
	}

	minPrice, maxPrice := quotes[0].UnitPrice, quotes[0].UnitPrice
	minDays, maxDays := quotes[0].DeliveryDays, quotes[0].DeliveryDays
	minQual, maxQual := quotes[0].QualityScore, quotes[0].QualityScore
	for _, q := range quotes[1:] {
		minPrice = min(minPrice, q.UnitPrice)
		maxPrice = max(maxPrice, q.UnitPrice)
		minDays = min(minDays, q.DeliveryDays)
		maxDays = max(maxDays, q.DeliveryDays)
		minQual = min(minQual, q.QualityScore)
		maxQual = max(maxQual, q.QualityScore)
	}

	ranked := make([]Ranked, len(quotes))
	for i, q := range quotes {
		priceNorm := normalize(q.UnitPrice, minPrice, maxPrice, true)
		deliveryNorm := normalize(float64(q.DeliveryDays), float64(minDays), float64(maxDays), true)
		qualityNorm := normalize(q.QualityScore, minQual, maxQual, false)

		ranked[i] = Ranked{
			Quote: q,
			Score: priceWeight*priceNorm + deliveryWeight*deliveryNorm + qualityWeight*qualityNorm,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Quote.UnitPrice != b.Quote.UnitPrice {
			return a.Quote.UnitPrice < b.Quote.UnitPrice
		}
		return a.Quote.SupplierName < b.Quote.SupplierName
	})

	return Result{Ranked: ranked}, nil
}

// #endregion compare

// #region normalize

// normalize maps value into [0,1] so the most favorable raw value scores 1.0.
// A degenerate factor (max == min) scores 0.5 for every quote: no
// discriminating information, so nothing is rewarded or punished.
func normalize(value, minVal, maxVal float64, lowerIsBetter bool) float64 {
	if maxVal == minVal {
		return 0.5
	}
	if lowerIsBetter {
		return (maxVal - value) / (maxVal - minVal)
	}
	return (value - minVal) / (maxVal - minVal)
}

// #endregion normalize

// #region dedupe

// Dedupe collapses quotes sharing the same identity key (supplier name,
// unit price, delivery days). Two quotes with an identical key are the same
// observation; the first is retained.
func Dedupe(quotes []Quote) []Quote {
	seen := make(map[quoteKey]bool, len(quotes))
	out := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		k := quoteKey{
			supplier: strings.ToLower(strings.TrimSpace(q.SupplierName)),
			price:    q.UnitPrice,
			days:     q.DeliveryDays,
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, q)
	}
	return out
}

type quoteKey struct {
	supplier string
	price    float64
	days     int
}

// #endregion dedupe
