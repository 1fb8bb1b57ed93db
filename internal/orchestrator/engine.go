package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/collab"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/notify"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/reputation"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/session"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/workflow"
)

// #region deps

// Deps are the engine's wired collaborators and stores.
type Deps struct {
	Machine    *workflow.Machine
	Sessions   *session.Store
	Reputation *reputation.Store
	Notifier   *notify.Notifier
	Classifier *collab.Classifier
	Discovery  *collab.Discovery
	Extractor  *collab.Extractor
	Mailer     *collab.Mailer
	Renderer   *collab.Renderer
}

// #endregion deps

// #region engine

// Engine is the top-level coordinator. It classifies inbound messages,
// applies the state machine, commits the outcome and executes the emitted
// actions. Collaborator calls happen outside the conversation lock; only the
// load-apply-commit section is serialized per conversation.
type Engine struct {
	d Deps

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a fully wired engine.
func NewEngine(d Deps) *Engine {
	return &Engine{d: d, locks: make(map[string]*sync.Mutex)}
}

func (e *Engine) lockFor(conversationID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[conversationID] = l
	}
	return l
}

// #endregion engine

// #region handle-message

// HandleMessage processes one user turn for a conversation. Decision errors
// (missing context, invalid transitions) become guidance replies; the
// conversation record is only touched by a successful transition.
func (e *Engine) HandleMessage(ctx context.Context, conversationID, message string) (Reply, error) {
	state, _, err := e.loadConversation(conversationID)
	if err != nil {
		return Reply{}, err
	}

	cl, usedFallback := collab.WithFallback(ctx,
		func(c context.Context) (collab.Classification, error) {
			return e.d.Classifier.Classify(c, state, message)
		},
		func() collab.Classification {
			return collab.Classification{Intent: string(workflow.EventUnclear)}
		},
	)
	if usedFallback {
		log.Printf("[ENGINE] classifier unavailable, treating turn as unclear")
	}

	ev, err := e.buildEvent(ctx, cl)
	if err != nil {
		return Reply{}, err
	}

	res, newState, derr, err := e.applyAndCommit(conversationID, ev)
	if err != nil {
		return Reply{}, err
	}
	if derr != nil {
		return Reply{Text: guidance(derr), State: newState}, nil
	}

	if ev.Kind == workflow.EventResumeRfq && ev.Draft != nil {
		if err := e.d.Sessions.DeleteDraft(ev.Draft.DraftID); err != nil {
			log.Printf("[ENGINE] delete resumed draft %s: %v", ev.Draft.DraftID, err)
		}
	}

	lines, err := e.execute(ctx, conversationID, res)
	if err != nil {
		return Reply{}, err
	}
	lines = append(lines, summarize(res)...)

	return Reply{Text: e.render(ctx, res, lines), State: res.State}, nil
}

// applyAndCommit runs the serialized load-apply-commit section. The third
// return carries decision errors the caller turns into guidance; the last
// carries storage failures.
func (e *Engine) applyAndCommit(conversationID string, ev workflow.Event) (workflow.Result, workflow.State, error, error) {
	l := e.lockFor(conversationID)
	l.Lock()
	defer l.Unlock()

	state, wctx, err := e.loadConversation(conversationID)
	if err != nil {
		return workflow.Result{}, "", nil, err
	}

	res, derr := e.d.Machine.Apply(state, wctx, ev)
	if derr != nil {
		log.Printf("[ENGINE] %s: event %s refused: %v", conversationID, ev.Kind, derr)
		return workflow.Result{}, state, derr, nil
	}

	if err := e.d.Sessions.Commit(conversationID, res.State, res.Context); err != nil {
		return workflow.Result{}, "", nil, err
	}
	log.Printf("[ENGINE] %s: %s → %s (event=%s)", conversationID, state, res.State, ev.Kind)
	return res, res.State, nil, nil
}

// loadConversation reads a conversation, degrading a corrupt stored record
// to a fresh idle one. The corrupt row stays in place for inspection; the
// next commit overwrites it.
func (e *Engine) loadConversation(conversationID string) (workflow.State, workflow.Context, error) {
	state, wctx, err := e.d.Sessions.Load(conversationID)
	var rce *session.RepositoryCorruptionError
	if errors.As(err, &rce) {
		log.Printf("[ENGINE] %v; restarting conversation from idle", rce)
		return workflow.StateIdle, workflow.Context{}, nil
	}
	if err != nil {
		return "", workflow.Context{}, err
	}
	return state, wctx, nil
}

// #endregion handle-message

// #region build-event

// buildEvent enriches a classification with collaborator data the machine
// needs: discovery results for supplier searches, stored drafts for resumes.
func (e *Engine) buildEvent(ctx context.Context, cl collab.Classification) (workflow.Event, error) {
	ev := workflow.Event{
		Kind:     workflow.EventKind(cl.Intent),
		ItemCode: cl.ItemCode,
		ItemName: cl.ItemName,
		Quantity: cl.Quantity,
		Approved: cl.Approved,
		Rfq:      cl.Rfq,
	}

	switch ev.Kind {
	case workflow.EventFindSuppliers:
		if cl.ItemCode != "" {
			suppliers, err := e.d.Discovery.Search(ctx, cl.ItemCode, cl.ItemName)
			if err != nil {
				log.Printf("[ENGINE] supplier search failed: %v", err)
			}
			ev.Suppliers = suppliers
		}
	case workflow.EventResumeRfq:
		query := cl.ResumeQuery
		if query == "" {
			query = cl.ItemCode
		}
		if query == "" {
			query = cl.ItemName
		}
		draft, err := e.d.Sessions.FindDraft(query)
		if err != nil {
			return workflow.Event{}, err
		}
		ev.Draft = draft
	}
	return ev, nil
}

// #endregion build-event

// #region execute

// execute performs a committed transition's side effects and returns the
// reply lines they produce.
func (e *Engine) execute(ctx context.Context, conversationID string, res workflow.Result) ([]string, error) {
	var lines []string
	for _, a := range res.Actions {
		switch a.Kind {

		case workflow.ActionFetchDemand:
			demand, err := e.d.Discovery.Demand(ctx, a.ItemCode)
			if err != nil {
				log.Printf("[ENGINE] demand fetch failed: %v", err)
				lines = append(lines, "I couldn't reach the inventory service just now.")
				continue
			}
			if demand.NeedsReorder() {
				lines = append(lines, fmt.Sprintf(
					"%s (%s): stock %d is below the reorder level %d. Suggested reorder: %d units. Want me to find suppliers?",
					demand.ItemName, demand.ItemCode, demand.CurrentStock, demand.ReorderLevel, demand.DemandQty))
			} else {
				lines = append(lines, fmt.Sprintf(
					"%s (%s): stock %d, reorder level %d. No action needed.",
					demand.ItemName, demand.ItemCode, demand.CurrentStock, demand.ReorderLevel))
			}

		case workflow.ActionDispatchRfq:
			sent := 0
			for _, s := range a.Suppliers {
				body := rfqEmailBody(a, s)
				subject := fmt.Sprintf("Request for Quotation: %s (%s)", a.ItemName, a.ItemCode)
				if err := e.d.Mailer.Send(ctx, s.ContactEmail, subject, body); err != nil {
					log.Printf("[ENGINE] rfq to %s failed: %v", s.Name, err)
					continue
				}
				sent++
			}
			lines = append(lines, fmt.Sprintf("Sent RFQs to %d of %d suppliers for %d x %s.",
				sent, len(a.Suppliers), a.Quantity, a.ItemName))

		case workflow.ActionRecordPO:
			if err := e.d.Sessions.RecordPO(*a.PO, a.POApproved); err != nil {
				return nil, err
			}
			if a.POApproved {
				lines = append(lines, fmt.Sprintf("Purchase order %s placed with %s for %.2f (%s).",
					a.PO.PONumber, a.PO.SupplierName, a.PO.TotalCost, a.PO.BudgetStatus))
			} else {
				lines = append(lines, fmt.Sprintf("Purchase order %s was not approved. I've kept it on record.", a.PO.PONumber))
			}

		case workflow.ActionNotify:
			note := notify.Notification{EventType: a.Event, Message: a.Message}
			if err := e.d.Notifier.Notify(ctx, note); err != nil {
				log.Printf("[ENGINE] notify %s: %v", a.Event, err)
			}

		case workflow.ActionSaveDraft:
			if err := e.d.Sessions.SaveDraft(*a.Draft); err != nil {
				return nil, err
			}
			lines = append(lines, fmt.Sprintf("Saved the RFQ for %s as a pending draft. Say \"resume %s\" to pick it up again.",
				a.Draft.ItemName, a.Draft.ItemCode))

		case workflow.ActionListDrafts:
			drafts, err := e.d.Sessions.ListDrafts()
			if err != nil {
				return nil, err
			}
			if len(drafts) == 0 {
				lines = append(lines, "No pending RFQs.")
				break
			}
			lines = append(lines, fmt.Sprintf("%d pending RFQ(s):", len(drafts)))
			for _, d := range drafts {
				lines = append(lines, fmt.Sprintf("- %s: %d x %s, %d suppliers (saved %s)",
					d.DraftID, d.Quantity, d.ItemName, len(d.Suppliers), d.CreatedAt.Format("2006-01-02")))
			}

		case workflow.ActionCheckInbox:
			got, err := e.ingestInbox(ctx, conversationID)
			if err != nil {
				return nil, err
			}
			if got == 0 {
				lines = append(lines, "No new quotes in the inbox.")
			} else {
				lines = append(lines, fmt.Sprintf("Found %d new quote(s) in the inbox.", got))
			}

		case workflow.ActionNotificationHistory:
			hist, err := e.d.Notifier.History(10)
			if err != nil {
				return nil, err
			}
			if len(hist) == 0 {
				lines = append(lines, "No notifications sent yet.")
				break
			}
			for _, n := range hist {
				lines = append(lines, fmt.Sprintf("- [%s] %s", n.EventType, n.Message))
			}

		case workflow.ActionPrompt:
			lines = append(lines, a.Message)
		}
	}
	return lines, nil
}

// ingestInbox pulls unread mail, extracts quotes and feeds them through the
// machine as quote submissions. A message is acknowledged only once it is
// fully handled: ingested, identified as not-a-quote, or rejected as
// malformed. Extraction failures and quotes the conversation cannot take yet
// stay unread so the next inbox check retries them.
func (e *Engine) ingestInbox(ctx context.Context, conversationID string) (int, error) {
	msgs, err := e.d.Mailer.FetchUnread(ctx)
	if err != nil {
		log.Printf("[ENGINE] inbox fetch failed: %v", err)
		return 0, nil
	}

	ingested := 0
	for _, m := range msgs {
		quote, err := e.d.Extractor.ExtractQuote(ctx, m.From, m.Subject, m.Body)
		if err != nil {
			log.Printf("[ENGINE] quote extraction failed for %s, leaving unread: %v", m.MessageID, err)
			continue
		}
		if quote == nil {
			e.markRead(ctx, m.MessageID)
			continue
		}
		_, _, derr, err := e.applyAndCommit(conversationID, workflow.Event{
			Kind:  workflow.EventQuoteSubmission,
			Quote: quote,
		})
		if err != nil {
			return ingested, err
		}
		if derr != nil {
			var iqe *workflow.InvalidQuoteError
			if errors.As(derr, &iqe) {
				// Malformed for good; retrying would refuse it again.
				log.Printf("[ENGINE] discarding quote from %s: %v", quote.SupplierName, derr)
				e.markRead(ctx, m.MessageID)
				continue
			}
			log.Printf("[ENGINE] quote from %s refused, leaving unread: %v", quote.SupplierName, derr)
			continue
		}
		e.markRead(ctx, m.MessageID)
		ingested++
	}
	return ingested, nil
}

func (e *Engine) markRead(ctx context.Context, messageID string) {
	if err := e.d.Mailer.MarkRead(ctx, messageID); err != nil {
		log.Printf("[ENGINE] mark read %s: %v", messageID, err)
	}
}

// #endregion execute

// #region reply-text

// summarize adds reply lines derived from the committed context rather than
// from actions, like a freshly drafted PO awaiting approval.
func summarize(res workflow.Result) []string {
	var lines []string
	if res.State == workflow.StateAwaitingPoApproval && res.Context.PendingPO != nil {
		po := res.Context.PendingPO
		lines = append(lines, fmt.Sprintf(
			"Best quote: %s at %.2f/unit, %d day delivery (score %.2f). Draft %s totals %.2f (%s). Approve?",
			po.SupplierName, po.UnitPrice, po.DeliveryDays, po.Score, po.PONumber, po.TotalCost, po.BudgetStatus))
	}
	if res.State == workflow.StateAwaitingSupplierApproval {
		lines = append(lines, fmt.Sprintf("Found %d supplier(s):", len(res.Context.SupplierOptions)))
		for _, s := range res.Context.SupplierOptions {
			lines = append(lines, fmt.Sprintf("- %s (%s, quality %.0f)", s.Name, s.Location, s.QualityScore))
		}
		lines = append(lines, "Shall I prepare RFQs for these suppliers?")
	}
	if res.State == workflow.StateAwaitingRfqApproval && len(res.Context.SupplierOptions) > 0 {
		lines = append(lines, fmt.Sprintf(
			"Ready to send RFQs for %d x %s to %d suppliers. Send now, save for later, or cancel?",
			res.Context.Quantity, res.Context.ItemName, len(res.Context.SupplierOptions)))
	}
	return lines
}

// render phrases the reply through the renderer, falling back to the plain
// composed text when the collaborator is unavailable.
func (e *Engine) render(ctx context.Context, res workflow.Result, lines []string) string {
	plain := strings.Join(lines, "\n")
	if plain == "" {
		plain = "Done."
	}
	if e.d.Renderer == nil {
		return plain
	}
	text, _ := collab.WithFallback(ctx,
		func(c context.Context) (string, error) {
			return e.d.Renderer.Render(c, string(res.State), map[string]any{"summary": plain})
		},
		func() string { return plain },
	)
	return text
}

func guidance(err error) string {
	switch e := err.(type) {
	case *workflow.MissingContextError:
		switch e.Field {
		case "collected_quotes":
			return "I don't have any quotes yet. Check the inbox first or wait for suppliers to reply."
		case "item_code":
			return "Which item is this for? Give me an item code or name."
		case "supplier_options":
			return "There's no supplier list on this conversation yet. Ask me to find suppliers first."
		default:
			return fmt.Sprintf("I'm missing some information (%s) to do that.", e.Field)
		}
	case *workflow.InvalidTransitionError:
		return fmt.Sprintf("I can't do that right now; this conversation is %s.", e.State)
	case *workflow.InvalidQuoteError:
		return fmt.Sprintf("That quote from %s has an unusable %s, so I didn't record it.", e.Supplier, e.Field)
	default:
		return "Something went wrong processing that."
	}
}

func rfqEmailBody(a workflow.Action, s workflow.Supplier) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", s.Name)
	fmt.Fprintf(&b, "Please quote for the following requirement:\n")
	fmt.Fprintf(&b, "Item: %s (%s)\n", a.ItemName, a.ItemCode)
	fmt.Fprintf(&b, "Quantity: %d units\n", a.Quantity)
	fmt.Fprintf(&b, "Required delivery: within %d days\n\n", a.DeliveryDays)
	b.WriteString("Kindly include unit price, delivery time, payment terms and certifications.\n")
	return b.String()
}

// #endregion reply-text
