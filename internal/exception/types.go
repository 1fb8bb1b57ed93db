package exception

// #region decision

// Decision is the automated resolution for a three-way-match discrepancy.
type Decision string

const (
	AcceptWithDeduction Decision = "accept_with_deduction"
	RejectShipment      Decision = "reject_shipment"
	EscalateToManager   Decision = "escalate_to_manager"
)

// AutoResolved reports whether the system may act on the decision without a
// human in the loop. Escalations are terminal until a manager answers.
func (d Decision) AutoResolved() bool {
	return d == AcceptWithDeduction || d == RejectShipment
}

// #endregion decision

// #region mismatch

// Mismatch is the aggregated discrepancy for one delivery, as computed by the
// verification step. FinancialImpact is consumed here, never recomputed.
type Mismatch struct {
	PONumber           string
	SupplierID         string
	DiscrepancyPercent float64
	FinancialImpact    float64
	POTotal            float64
}

// #endregion mismatch

// #region outcome

// Outcome bundles the decision with its derived payment adjustment.
type Outcome struct {
	Decision        Decision `json:"decision"`
	Reason          string   `json:"reason"`
	AdjustedPayment float64  `json:"adjusted_payment"` // PO total minus impact when accepting; otherwise PO total
	NotifySupplier  bool     `json:"notify_supplier"`  // mandatory for auto-resolved decisions
}

// #endregion outcome
