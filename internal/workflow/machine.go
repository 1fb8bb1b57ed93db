package workflow

import (
	"fmt"
	"time"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/compare"
)

// #region policy

// Policy holds the fixed business thresholds the machine applies when
// building purchase order drafts.
type Policy struct {
	BudgetLimit         float64
	DefaultDeliveryDays int
}

// DefaultPolicy returns the standard procurement policy.
func DefaultPolicy() Policy {
	return Policy{
		BudgetLimit:         50000,
		DefaultDeliveryDays: 14,
	}
}

// #endregion policy

// #region machine

// Machine evaluates workflow transitions. Apply is pure: it performs no I/O
// and either returns a complete new state plus context, or an error with the
// conversation untouched.
type Machine struct {
	policy Policy
}

// NewMachine creates a machine with the given policy.
func NewMachine(policy Policy) *Machine {
	return &Machine{policy: policy}
}

// #endregion machine

// #region apply

// Apply computes the transition for one classified event. The caller persists
// Result.State and Result.Context together before executing Result.Actions;
// on error nothing is committed and the conversation stays where it was.
func (m *Machine) Apply(cur State, ctx Context, ev Event) (Result, error) {
	switch ev.Kind {

	case EventNewDemandCheck:
		// Pure query; resets any half-finished cycle and stays idle.
		next := Context{ItemCode: ev.ItemCode, ItemName: ev.ItemName}
		return Result{
			State:   StateIdle,
			Context: next,
			Actions: []Action{{Kind: ActionFetchDemand, ItemCode: ev.ItemCode, ItemName: ev.ItemName}},
		}, nil

	case EventFindSuppliers:
		if cur != StateIdle {
			return Result{}, &InvalidTransitionError{State: cur, Event: ev.Kind}
		}
		next := ctx
		if ev.ItemCode != "" {
			next.ItemCode = ev.ItemCode
			next.ItemName = ev.ItemName
		}
		if next.ItemCode == "" {
			return Result{}, &MissingContextError{Field: "item_code"}
		}
		if ev.Quantity > 0 {
			next.Quantity = ev.Quantity
		}
		if len(ev.Suppliers) == 0 {
			return Result{
				State:   cur,
				Context: ctx,
				Actions: []Action{{Kind: ActionPrompt, Message: "No suppliers found for this item."}},
			}, nil
		}
		next.SupplierOptions = ev.Suppliers
		return Result{State: StateAwaitingSupplierApproval, Context: next}, nil

	case EventSupplierApproval:
		if cur != StateAwaitingSupplierApproval {
			return Result{}, &InvalidTransitionError{State: cur, Event: ev.Kind}
		}
		if !ev.Approved {
			return Result{
				State:   StateIdle,
				Context: Context{},
				Actions: []Action{{Kind: ActionPrompt, Message: "Alright, supplier search dropped. Let me know when you need something."}},
			}, nil
		}
		next := ctx
		if len(ev.Suppliers) > 0 {
			// User narrowed the list to a selection.
			next.SupplierOptions = ev.Suppliers
		}
		if len(next.SupplierOptions) == 0 {
			return Result{}, &MissingContextError{Field: "supplier_options"}
		}
		return Result{State: StateAwaitingRfqApproval, Context: next}, nil

	case EventRfqIntent:
		if cur != StateAwaitingRfqApproval {
			return Result{}, &InvalidTransitionError{State: cur, Event: ev.Kind}
		}
		if ev.Rfq == nil {
			return Result{}, &MissingContextError{Field: "rfq_instruction"}
		}
		if len(ctx.SupplierOptions) == 0 {
			return Result{}, &MissingContextError{Field: "supplier_options"}
		}
		return m.applyRfqIntent(cur, ctx, *ev.Rfq)

	case EventQuoteSubmission:
		if cur != StateAwaitingQuotes && cur != StateQuotesCollected {
			return Result{}, &InvalidTransitionError{State: cur, Event: ev.Kind}
		}
		if ev.Quote == nil {
			return Result{}, &MissingContextError{Field: "quote"}
		}
		if ev.Quote.UnitPrice <= 0 {
			return Result{}, &InvalidQuoteError{Supplier: ev.Quote.SupplierName, Field: "unit_price"}
		}
		if ev.Quote.DeliveryDays <= 0 {
			return Result{}, &InvalidQuoteError{Supplier: ev.Quote.SupplierName, Field: "delivery_days"}
		}
		next := ctx
		next.CollectedQuotes = compare.Dedupe(append(next.CollectedQuotes, *ev.Quote))
		return Result{
			State:   StateQuotesCollected,
			Context: next,
			Actions: []Action{{
				Kind:    ActionNotify,
				Event:   "quote_received",
				Message: fmt.Sprintf("Quote received from %s", ev.Quote.SupplierName),
			}},
		}, nil

	case EventAnalyzeQuotes:
		if cur != StateAwaitingQuotes && cur != StateQuotesCollected {
			return Result{}, &InvalidTransitionError{State: cur, Event: ev.Kind}
		}
		if ctx.ItemCode == "" {
			return Result{}, &MissingContextError{Field: "item_code"}
		}
		if len(ctx.CollectedQuotes) == 0 {
			return Result{}, &MissingContextError{Field: "collected_quotes"}
		}
		if ctx.Quantity <= 0 {
			return Result{}, &MissingContextError{Field: "requested_quantity"}
		}
		ranking, err := compare.Compare(ctx.CollectedQuotes)
		if err != nil {
			return Result{}, err
		}
		next := ctx
		po := m.buildPO(next, ranking.Best())
		next.PendingPO = &po
		return Result{State: StateAwaitingPoApproval, Context: next}, nil

	case EventPoApproval:
		if cur != StateAwaitingPoApproval {
			return Result{}, &InvalidTransitionError{State: cur, Event: ev.Kind}
		}
		if ctx.PendingPO == nil {
			return Result{}, &MissingContextError{Field: "pending_po"}
		}
		actions := []Action{{Kind: ActionRecordPO, PO: ctx.PendingPO, POApproved: ev.Approved}}
		if ev.Approved {
			actions = append(actions, Action{
				Kind:    ActionNotify,
				Event:   "po_approved",
				Message: fmt.Sprintf("Purchase order %s approved", ctx.PendingPO.PONumber),
			})
		}
		return Result{State: StateIdle, Context: Context{}, Actions: actions}, nil

	case EventResumeRfq:
		if ev.Draft == nil {
			return Result{
				State:   cur,
				Context: ctx,
				Actions: []Action{{Kind: ActionPrompt, Message: "Which pending RFQ would you like to continue? Mention the item name or code."}},
			}, nil
		}
		d := ev.Draft
		return Result{
			State: StateAwaitingRfqApproval,
			Context: Context{
				ItemCode:        d.ItemCode,
				ItemName:        d.ItemName,
				Quantity:        d.Quantity,
				SupplierOptions: d.Suppliers,
			},
		}, nil

	case EventShowPendingRfqs:
		return Result{State: cur, Context: ctx, Actions: []Action{{Kind: ActionListDrafts}}}, nil

	case EventInboxCheck:
		return Result{State: cur, Context: ctx, Actions: []Action{{Kind: ActionCheckInbox, ItemCode: ctx.ItemCode}}}, nil

	case EventNotificationQuery:
		return Result{State: cur, Context: ctx, Actions: []Action{{Kind: ActionNotificationHistory}}}, nil

	case EventAcknowledgment:
		return Result{State: cur, Context: ctx, Actions: []Action{{Kind: ActionPrompt, Message: "Got it. Let me know if you need anything."}}}, nil

	case EventHelp:
		return Result{State: cur, Context: ctx, Actions: []Action{{Kind: ActionPrompt, Message: helpText}}}, nil

	case EventUnclear:
		return Result{State: cur, Context: ctx, Actions: []Action{{
			Kind:    ActionPrompt,
			Message: "I didn't quite catch that. You can check an item's status, find suppliers, check the inbox for quotes, or show pending orders.",
		}}}, nil

	default:
		return Result{}, &InvalidTransitionError{State: cur, Event: ev.Kind}
	}
}

// #endregion apply

// #region rfq-intent

func (m *Machine) applyRfqIntent(cur State, ctx Context, rfq RfqInstruction) (Result, error) {
	switch rfq.Action {
	case RfqSend:
		selected := FilterSuppliers(ctx.SupplierOptions, rfq.Filter)
		if len(selected) == 0 {
			return Result{
				State:   cur,
				Context: ctx,
				Actions: []Action{{Kind: ActionPrompt, Message: "No suppliers match those criteria. Try different filters."}},
			}, nil
		}
		next := ctx
		if rfq.Quantity > 0 {
			next.Quantity = rfq.Quantity
		}
		days := rfq.DeliveryDays
		if days <= 0 {
			days = m.policy.DefaultDeliveryDays
		}
		return Result{
			State:   StateAwaitingQuotes,
			Context: next,
			Actions: []Action{
				{
					Kind:         ActionDispatchRfq,
					ItemCode:     next.ItemCode,
					ItemName:     next.ItemName,
					Quantity:     next.Quantity,
					DeliveryDays: days,
					Suppliers:    selected,
				},
				{
					Kind:    ActionNotify,
					Event:   "rfq_sent",
					Message: fmt.Sprintf("RFQs dispatched to %d suppliers for %s", len(selected), next.ItemName),
				},
			},
		}, nil

	case RfqWait:
		days := rfq.DeliveryDays
		if days <= 0 {
			days = m.policy.DefaultDeliveryDays
		}
		qty := rfq.Quantity
		if qty <= 0 {
			qty = ctx.Quantity
		}
		now := time.Now().UTC()
		draft := Draft{
			DraftID:      fmt.Sprintf("%s_%s", ctx.ItemCode, now.Format("20060102_150405")),
			ItemCode:     ctx.ItemCode,
			ItemName:     ctx.ItemName,
			Quantity:     qty,
			DeliveryDays: days,
			Suppliers:    ctx.SupplierOptions,
			CreatedAt:    now,
		}
		return Result{
			State:   StateIdle,
			Context: Context{},
			Actions: []Action{{Kind: ActionSaveDraft, Draft: &draft}},
		}, nil

	case RfqCancel:
		return Result{
			State:   StateIdle,
			Context: Context{},
			Actions: []Action{{Kind: ActionPrompt, Message: "No worries. Let me know when you're ready to proceed."}},
		}, nil

	default:
		return Result{}, &InvalidTransitionError{State: cur, Event: EventRfqIntent}
	}
}

// #endregion rfq-intent

// #region build-po

func (m *Machine) buildPO(ctx Context, best compare.Ranked) PurchaseOrder {
	now := time.Now().UTC()
	total := best.Quote.UnitPrice * float64(ctx.Quantity)

	budgetStatus := "within_budget"
	if total > m.policy.BudgetLimit {
		budgetStatus = "exceeds_budget"
	}

	return PurchaseOrder{
		PONumber:         fmt.Sprintf("PO-%s-%s", ctx.ItemCode, now.Format("20060102_150405")),
		SupplierName:     best.Quote.SupplierName,
		ContactEmail:     best.Quote.ContactEmail,
		ItemCode:         ctx.ItemCode,
		ItemName:         ctx.ItemName,
		Quantity:         ctx.Quantity,
		UnitPrice:        best.Quote.UnitPrice,
		TotalCost:        total,
		DeliveryDays:     best.Quote.DeliveryDays,
		ExpectedDelivery: now.AddDate(0, 0, best.Quote.DeliveryDays).Format("2006-01-02"),
		PaymentTerms:     best.Quote.PaymentTerms,
		Score:            best.Score,
		BudgetStatus:     budgetStatus,
		CreatedAt:        now,
	}
}

// #endregion build-po

// #region supplier-filter

// FilterSuppliers narrows a supplier list per the classified RFQ filter.
// An unrecognized filter kind selects everyone.
func FilterSuppliers(all []Supplier, f SupplierFilter) []Supplier {
	switch f.Kind {
	case "quality":
		var out []Supplier
		for _, s := range all {
			for _, lvl := range f.Levels {
				if s.QualityLevel == lvl {
					out = append(out, s)
					break
				}
			}
		}
		return out
	case "count":
		// A non-positive count means the caller gave no usable number;
		// sending to nobody is never what was asked for.
		if f.Count > 0 && f.Count < len(all) {
			return all[:f.Count]
		}
		return all
	case "name":
		var out []Supplier
		for _, s := range all {
			for _, n := range f.Names {
				if s.Name == n {
					out = append(out, s)
					break
				}
			}
		}
		return out
	case "location":
		var out []Supplier
		for _, s := range all {
			for _, p := range f.Places {
				if s.Location == p {
					out = append(out, s)
					break
				}
			}
		}
		return out
	default:
		return all
	}
}

// #endregion supplier-filter

// #region help

const helpText = `I'm your procurement assistant. I can:
- Check inventory and order status for an item
- Find suppliers and send RFQs based on your preferences
- Save pending RFQs and resume them later
- Collect and compare supplier quotes, then draft a purchase order
- Monitor the inbox for quote emails
- Show the notifications I've sent`

// #endregion help
