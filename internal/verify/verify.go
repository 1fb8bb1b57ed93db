package verify

import (
	"fmt"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/collab"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/exception"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/workflow"
)

// #region types

// FieldMismatch is one disagreement between the PO, the delivery receipt and
// the invoice.
type FieldMismatch struct {
	Field    string  `json:"field"` // quantity | unit_price | total
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
	Impact   float64 `json:"financial_impact"`
}

// Report is the outcome of a three-way match.
type Report struct {
	PONumber           string          `json:"po_number"`
	SupplierName       string          `json:"supplier_name"`
	Matched            bool            `json:"matched"`
	Mismatches         []FieldMismatch `json:"mismatches,omitempty"`
	TotalImpact        float64         `json:"total_financial_impact"`
	DiscrepancyPercent float64         `json:"discrepancy_percent"`
	POTotal            float64         `json:"po_total"`
}

// Mismatch converts a failed match into the decision engine's input.
func (r Report) Mismatch(supplierID string) exception.Mismatch {
	return exception.Mismatch{
		PONumber:           r.PONumber,
		SupplierID:         supplierID,
		DiscrepancyPercent: r.DiscrepancyPercent,
		FinancialImpact:    r.TotalImpact,
		POTotal:            r.POTotal,
	}
}

// #endregion types

// #region match

// Match compares a purchase order against the delivery receipt and invoice
// extractions. Quantity is checked against the delivery, price and total
// against the invoice. A clean match returns Matched true with no mismatches.
func Match(po workflow.PurchaseOrder, delivery, invoice collab.DocumentExtraction) (Report, error) {
	if delivery.PONumber != "" && delivery.PONumber != po.PONumber {
		return Report{}, fmt.Errorf("verify: delivery receipt references %s, not %s", delivery.PONumber, po.PONumber)
	}
	if invoice.PONumber != "" && invoice.PONumber != po.PONumber {
		return Report{}, fmt.Errorf("verify: invoice references %s, not %s", invoice.PONumber, po.PONumber)
	}

	rep := Report{
		PONumber:     po.PONumber,
		SupplierName: po.SupplierName,
		POTotal:      po.TotalCost,
	}

	ordered := float64(po.Quantity)
	if delivery.Quantity != ordered {
		rep.Mismatches = append(rep.Mismatches, FieldMismatch{
			Field:    "quantity",
			Expected: ordered,
			Actual:   delivery.Quantity,
			Impact:   exception.QuantityImpact(ordered, delivery.Quantity, po.UnitPrice),
		})
	}
	if invoice.UnitPrice != po.UnitPrice {
		rep.Mismatches = append(rep.Mismatches, FieldMismatch{
			Field:    "unit_price",
			Expected: po.UnitPrice,
			Actual:   invoice.UnitPrice,
			Impact:   exception.PriceImpact(po.UnitPrice, invoice.UnitPrice, ordered),
		})
	}
	if invoice.Total != po.TotalCost {
		rep.Mismatches = append(rep.Mismatches, FieldMismatch{
			Field:    "total",
			Expected: po.TotalCost,
			Actual:   invoice.Total,
			Impact:   exception.TotalImpact(po.TotalCost, invoice.Total),
		})
	}

	for _, m := range rep.Mismatches {
		rep.TotalImpact += m.Impact
	}
	rep.DiscrepancyPercent = exception.DiscrepancyPercent(rep.TotalImpact, po.TotalCost)
	rep.Matched = len(rep.Mismatches) == 0
	return rep, nil
}

// #endregion match
