package exception

import (
	"fmt"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/reputation"
)

// #region thresholds

// Decision thresholds on the discrepancy percentage. Fixed policy.
const (
	acceptThreshold = 2.0  // below: minor, auto-accept with deduction
	rejectThreshold = 10.0 // above: reject outright
)

// #endregion thresholds

// #region decide

// Decide converts a discrepancy plus supplier history into an action.
// Rules evaluate in precedence order, first match wins:
//
//  1. discrepancy > 10% or repeat offender → reject shipment
//  2. discrepancy < 2% and clean history   → accept with deduction
//  3. otherwise                            → escalate to manager
func Decide(m Mismatch, rep reputation.SupplierReputation) Outcome {
	switch {
	case m.DiscrepancyPercent > rejectThreshold:
		return Outcome{
			Decision:        RejectShipment,
			Reason:          fmt.Sprintf("discrepancy %.2f%% exceeds %.0f%% rejection threshold", m.DiscrepancyPercent, rejectThreshold),
			AdjustedPayment: m.POTotal,
			NotifySupplier:  true,
		}
	case rep.RepeatOffender():
		return Outcome{
			Decision:        RejectShipment,
			Reason:          fmt.Sprintf("supplier has %d retained mismatch incidents", len(rep.Incidents)),
			AdjustedPayment: m.POTotal,
			NotifySupplier:  true,
		}
	case m.DiscrepancyPercent < acceptThreshold:
		return Outcome{
			Decision:        AcceptWithDeduction,
			Reason:          fmt.Sprintf("minor discrepancy %.2f%%, clean supplier history", m.DiscrepancyPercent),
			AdjustedPayment: m.POTotal - m.FinancialImpact,
			NotifySupplier:  true,
		}
	default:
		return Outcome{
			Decision:        EscalateToManager,
			Reason:          fmt.Sprintf("discrepancy %.2f%% within review band, manager decision required", m.DiscrepancyPercent),
			AdjustedPayment: m.POTotal,
			NotifySupplier:  false,
		}
	}
}

// #endregion decide
