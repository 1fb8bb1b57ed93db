package reputation

import "time"

// #region mismatch-record

// MismatchRecord is one immutable incident appended to a supplier's ledger.
type MismatchRecord struct {
	PONumber           string    `json:"po_number"`
	DiscrepancyPercent float64   `json:"discrepancy_percent"`
	FinancialImpact    float64   `json:"financial_impact"`
	Decision           string    `json:"decision"` // accept_with_deduction | reject_shipment | escalate_to_manager
	CreatedAt          time.Time `json:"created_at"`
}

// #endregion mismatch-record

// #region supplier-reputation

// retainedIncidents caps the incident history kept for display. The full
// incident counter is never truncated.
const retainedIncidents = 10

// repeatOffenderThreshold is the retained-incident count at which a supplier
// is treated as a repeat offender.
const repeatOffenderThreshold = 3

// SupplierReputation is the read-side view of one supplier's ledger.
// Incidents holds at most the 10 newest records, newest first.
type SupplierReputation struct {
	SupplierID     string
	TotalOrders    int
	TotalIncidents int
	Incidents      []MismatchRecord
}

// MismatchRate is the full incident counter over completed orders,
// recomputed on every read. Zero when no orders have completed.
func (r SupplierReputation) MismatchRate() float64 {
	if r.TotalOrders == 0 {
		return 0
	}
	return float64(r.TotalIncidents) / float64(r.TotalOrders)
}

// RepeatOffender reports whether the retained history holds 3 or more
// incidents. Derived, never stored.
func (r SupplierReputation) RepeatOffender() bool {
	return len(r.Incidents) >= repeatOffenderThreshold
}

// #endregion supplier-reputation
