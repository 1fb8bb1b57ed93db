package orchestrator

import (
	"context"
	"fmt"
	"log"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/exception"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/notify"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/reputation"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/verify"
)

// #region verification

// ProcessVerification runs a delivery verification cycle: extract the
// delivery receipt and invoice, three-way match against the stored PO, and
// on mismatch decide and record the outcome. Every verified delivery counts
// as a completed order for the supplier, mismatched or not.
func (e *Engine) ProcessVerification(ctx context.Context, poNumber, deliveryText, invoiceText string) (VerificationResult, error) {
	po, _, err := e.d.Sessions.GetPO(poNumber)
	if err != nil {
		return VerificationResult{}, err
	}
	if po == nil {
		return VerificationResult{}, fmt.Errorf("orchestrator: purchase order %s not found", poNumber)
	}

	delivery, err := e.d.Extractor.ExtractDocument(ctx, "delivery", deliveryText)
	if err != nil {
		return VerificationResult{}, err
	}
	invoice, err := e.d.Extractor.ExtractDocument(ctx, "invoice", invoiceText)
	if err != nil {
		return VerificationResult{}, err
	}

	report, err := verify.Match(*po, delivery, invoice)
	if err != nil {
		return VerificationResult{}, err
	}

	supplierID := po.SupplierName
	if err := e.d.Reputation.CompleteOrder(supplierID); err != nil {
		return VerificationResult{}, err
	}

	if report.Matched {
		log.Printf("[VERIFY] %s: clean three-way match", poNumber)
		e.notifyVerification(ctx, po.ContactEmail, "delivery_verified",
			fmt.Sprintf("Delivery for %s verified clean. Payment of %.2f released.", poNumber, po.TotalCost))
		return VerificationResult{Report: report}, nil
	}

	rep, err := e.d.Reputation.Lookup(supplierID)
	if err != nil {
		return VerificationResult{}, err
	}

	outcome := exception.Decide(report.Mismatch(supplierID), rep)
	log.Printf("[VERIFY] %s: discrepancy %.2f%% impact %.2f → %s",
		poNumber, report.DiscrepancyPercent, report.TotalImpact, outcome.Decision)

	if err := e.d.Reputation.Record(supplierID, reputationRecord(report, outcome)); err != nil {
		return VerificationResult{}, err
	}

	switch outcome.Decision {
	case exception.AcceptWithDeduction:
		e.notifyVerification(ctx, po.ContactEmail, "payment_adjusted",
			fmt.Sprintf("Delivery for %s accepted with a %.2f deduction. Adjusted payment: %.2f.",
				poNumber, report.TotalImpact, outcome.AdjustedPayment))
	case exception.RejectShipment:
		e.notifyVerification(ctx, po.ContactEmail, "shipment_rejected",
			fmt.Sprintf("Shipment for %s rejected: %s.", poNumber, outcome.Reason))
	case exception.EscalateToManager:
		e.notifyVerification(ctx, "", "escalated",
			fmt.Sprintf("Delivery mismatch on %s needs review: %s (impact %.2f).",
				poNumber, outcome.Reason, report.TotalImpact))
	}

	return VerificationResult{Report: report, Outcome: &outcome}, nil
}

func reputationRecord(report verify.Report, outcome exception.Outcome) reputation.MismatchRecord {
	return reputation.MismatchRecord{
		PONumber:           report.PONumber,
		DiscrepancyPercent: report.DiscrepancyPercent,
		FinancialImpact:    report.TotalImpact,
		Decision:           string(outcome.Decision),
	}
}

func (e *Engine) notifyVerification(ctx context.Context, recipient, event, message string) {
	note := notify.Notification{EventType: event, Message: message}
	if recipient != "" {
		note.Recipient = recipient
		note.Subject = "Delivery verification update"
	}
	if err := e.d.Notifier.Notify(ctx, note); err != nil {
		log.Printf("[VERIFY] notify %s: %v", event, err)
	}
}

// #endregion verification
