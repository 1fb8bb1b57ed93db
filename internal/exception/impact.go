package exception

import "math"

// Financial impact helpers for the three mismatch types of a three-way match.
// The verification step sums these and converts to a percentage of the PO
// total; the decision engine consumes only the aggregate.

// #region impact

// QuantityImpact is |ordered − received| × unit price.
func QuantityImpact(ordered, received float64, unitPrice float64) float64 {
	return math.Abs(ordered-received) * unitPrice
}

// PriceImpact is |invoiced price − PO price| × quantity.
func PriceImpact(poPrice, invoicedPrice float64, quantity float64) float64 {
	return math.Abs(invoicedPrice-poPrice) * quantity
}

// TotalImpact is |invoiced total − PO total|.
func TotalImpact(poTotal, invoicedTotal float64) float64 {
	return math.Abs(invoicedTotal - poTotal)
}

// DiscrepancyPercent converts a summed impact to a percentage of the PO
// total. Zero when the PO total is zero.
func DiscrepancyPercent(impact, poTotal float64) float64 {
	if poTotal == 0 {
		return 0
	}
	return impact / poTotal * 100
}

// #endregion impact
