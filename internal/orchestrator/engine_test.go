package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/collab"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/compare"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/exception"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/notify"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/reputation"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/session"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/workflow"
)

// fakeServices stands in for all five collaborators behind one test server.
type fakeServices struct {
	classify func(state, message string) collab.Classification
	supplier []workflow.Supplier
	demand   collab.DemandReport
	unread   []collab.EmailMessage
	quotes   map[string]*compare.Quote              // keyed by email subject
	docs     map[string]collab.DocumentExtraction   // keyed by kind
	sentMail []string
}

func (f *fakeServices) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/classify", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			State   string `json:"state"`
			Message string `json:"message"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(f.classify(req.State, req.Message))
	})
	mux.HandleFunc("/suppliers/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"suppliers": f.supplier})
	})
	mux.HandleFunc("/demand/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.demand)
	})
	mux.HandleFunc("/send", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			To string `json:"to"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.sentMail = append(f.sentMail, req.To)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/unread", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"messages": f.unread})
	})
	mux.HandleFunc("/read", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MessageID string `json:"message_id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		kept := f.unread[:0]
		for _, m := range f.unread {
			if m.MessageID != req.MessageID {
				kept = append(kept, m)
			}
		}
		f.unread = kept
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/extract/quote", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Subject string `json:"subject"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]any{"quote": f.quotes[req.Subject]})
	})
	mux.HandleFunc("/extract/document", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Kind string `json:"kind"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(f.docs[req.Kind])
	})
	return mux
}

func newTestEngine(t *testing.T, f *fakeServices) (*Engine, *reputation.Store, *notify.Ledger) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	sessions, err := session.NewStore(":memory:")
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	t.Cleanup(func() { sessions.Close() })

	rep, err := reputation.NewStore(sessions.DB())
	if err != nil {
		t.Fatalf("reputation store: %v", err)
	}
	ledger, err := notify.NewLedger(sessions.DB())
	if err != nil {
		t.Fatalf("notify ledger: %v", err)
	}

	budget := time.Second
	eng := NewEngine(Deps{
		Machine:    workflow.NewMachine(workflow.DefaultPolicy()),
		Sessions:   sessions,
		Reputation: rep,
		Notifier:   notify.NewNotifier(ledger, collab.NewMailer(srv.URL, budget)),
		Classifier: collab.NewClassifier(srv.URL, budget),
		Discovery:  collab.NewDiscovery(srv.URL, budget),
		Extractor:  collab.NewExtractor(srv.URL, budget),
		Mailer:     collab.NewMailer(srv.URL, budget),
	})
	return eng, rep, ledger
}

func scriptedClassifier(script map[string]collab.Classification) func(string, string) collab.Classification {
	return func(state, message string) collab.Classification {
		if cl, ok := script[message]; ok {
			return cl
		}
		return collab.Classification{Intent: string(workflow.EventUnclear)}
	}
}

func TestFullProcurementCycle(t *testing.T) {
	f := &fakeServices{
		supplier: []workflow.Supplier{
			{Name: "Acme Supplies", ContactEmail: "sales@acme.test", QualityScore: 30, QualityLevel: "high", Location: "Chennai"},
			{Name: "Borealis Parts", ContactEmail: "rfq@borealis.test", QualityScore: 22, QualityLevel: "medium", Location: "Pune"},
		},
		quotes: map[string]*compare.Quote{
			"Quote A": {SupplierName: "Acme Supplies", ContactEmail: "sales@acme.test", UnitPrice: 7.80, DeliveryDays: 10, QualityScore: 30},
			"Quote B": {SupplierName: "Borealis Parts", ContactEmail: "rfq@borealis.test", UnitPrice: 8.40, DeliveryDays: 7, QualityScore: 22},
		},
	}
	f.classify = scriptedClassifier(map[string]collab.Classification{
		"find suppliers for hex bolts": {Intent: "find_suppliers_for_item", ItemCode: "ITM-0042", ItemName: "hex bolts", Quantity: 500},
		"yes":                          {Intent: "supplier_approval", Approved: true},
		"send to all":                  {Intent: "rfq_intent", Rfq: &workflow.RfqInstruction{Action: workflow.RfqSend, Filter: workflow.SupplierFilter{Kind: "all"}}},
		"check inbox":                  {Intent: "inbox_check"},
		"analyze the quotes":           {Intent: "analyze_quotes"},
		"approve the po":               {Intent: "po_approval", Approved: true},
	})

	eng, _, _ := newTestEngine(t, f)
	ctx := context.Background()
	conv := "conv-1"

	step := func(msg string, wantState workflow.State) Reply {
		t.Helper()
		reply, err := eng.HandleMessage(ctx, conv, msg)
		if err != nil {
			t.Fatalf("%q: %v", msg, err)
		}
		if reply.State != wantState {
			t.Fatalf("%q: expected state %s, got %s (%s)", msg, wantState, reply.State, reply.Text)
		}
		return reply
	}

	step("find suppliers for hex bolts", workflow.StateAwaitingSupplierApproval)
	step("yes", workflow.StateAwaitingRfqApproval)
	step("send to all", workflow.StateAwaitingQuotes)
	if len(f.sentMail) != 2 {
		t.Fatalf("expected 2 RFQ emails, got %d", len(f.sentMail))
	}

	f.unread = []collab.EmailMessage{
		{MessageID: "m1", From: "sales@acme.test", Subject: "Quote A", Body: "..."},
		{MessageID: "m2", From: "rfq@borealis.test", Subject: "Quote B", Body: "..."},
	}
	reply := step("check inbox", workflow.StateQuotesCollected)
	if !strings.Contains(reply.Text, "2 new quote") {
		t.Errorf("expected 2 ingested quotes, got %q", reply.Text)
	}
	if len(f.unread) != 0 {
		t.Errorf("ingested quotes must be acknowledged, %d still unread", len(f.unread))
	}

	reply = step("analyze the quotes", workflow.StateAwaitingPoApproval)
	if !strings.Contains(reply.Text, "Acme Supplies") {
		t.Errorf("price-dominant quote must win, got %q", reply.Text)
	}

	step("approve the po", workflow.StateIdle)

	pos, err := eng.d.Sessions.ListPOs(10)
	if err != nil {
		t.Fatalf("list pos: %v", err)
	}
	if len(pos) != 1 || pos[0].SupplierName != "Acme Supplies" || pos[0].TotalCost != 7.80*500 {
		t.Errorf("expected a recorded Acme PO for 3900, got %+v", pos)
	}
}

func TestInboxKeepsUndeliverableQuotesUnread(t *testing.T) {
	f := &fakeServices{
		unread: []collab.EmailMessage{
			{MessageID: "m1", From: "sales@acme.test", Subject: "Quote A", Body: "..."},
			{MessageID: "m2", From: "news@vendor.test", Subject: "Newsletter", Body: "..."},
			{MessageID: "m3", From: "rfq@borealis.test", Subject: "Quote Z", Body: "..."},
		},
		quotes: map[string]*compare.Quote{
			"Quote A": {SupplierName: "Acme Supplies", UnitPrice: 7.80, DeliveryDays: 10, QualityScore: 30},
			// Unusable price: discarded once the conversation can take quotes.
			"Quote Z": {SupplierName: "Borealis Parts", UnitPrice: 0, DeliveryDays: 7, QualityScore: 22},
		},
	}
	f.classify = scriptedClassifier(map[string]collab.Classification{
		"check inbox": {Intent: "inbox_check"},
	})

	eng, _, _ := newTestEngine(t, f)
	ctx := context.Background()
	conv := "conv-1"

	// The conversation is idle, so no quote can be taken yet. The newsletter
	// is acknowledged; both quote emails must survive for a later check.
	reply, err := eng.HandleMessage(ctx, conv, "check inbox")
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if !strings.Contains(reply.Text, "No new quotes") {
		t.Errorf("idle conversation must ingest nothing, got %q", reply.Text)
	}
	if len(f.unread) != 2 {
		t.Fatalf("expected 2 retained messages, got %d", len(f.unread))
	}
	for _, m := range f.unread {
		if m.MessageID == "m2" {
			t.Error("non-quote mail must be acknowledged, not retained")
		}
	}

	if err := eng.d.Sessions.Commit(conv, workflow.StateAwaitingQuotes, workflow.Context{ItemCode: "ITM-0042", Quantity: 500}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Now the valid quote ingests and the zero-price one is discarded.
	reply, err = eng.HandleMessage(ctx, conv, "check inbox")
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !strings.Contains(reply.Text, "1 new quote") {
		t.Errorf("expected 1 ingested quote, got %q", reply.Text)
	}
	if len(f.unread) != 0 {
		t.Errorf("all mail must be acknowledged after ingestion, %d left", len(f.unread))
	}

	_, wctx, err := eng.d.Sessions.Load(conv)
	if err != nil {
		t.Fatal(err)
	}
	if len(wctx.CollectedQuotes) != 1 || wctx.CollectedQuotes[0].SupplierName != "Acme Supplies" {
		t.Errorf("expected only the usable quote collected, got %+v", wctx.CollectedQuotes)
	}
}

func TestClassifierOutageTreatsTurnAsUnclear(t *testing.T) {
	f := &fakeServices{}
	f.classify = scriptedClassifier(nil)

	eng, _, _ := newTestEngine(t, f)
	// Point the classifier at a dead endpoint; the engine must fall back.
	eng.d.Classifier = collab.NewClassifier("http://127.0.0.1:1", 50*time.Millisecond)

	reply, err := eng.HandleMessage(context.Background(), "conv-1", "garbled")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply.State != workflow.StateIdle {
		t.Errorf("fallback turn must not advance state, got %s", reply.State)
	}
	if !strings.Contains(reply.Text, "didn't quite catch") {
		t.Errorf("expected an unclear prompt, got %q", reply.Text)
	}
}

func TestDecisionErrorsBecomeGuidance(t *testing.T) {
	f := &fakeServices{}
	f.classify = scriptedClassifier(map[string]collab.Classification{
		"analyze": {Intent: "analyze_quotes"},
	})

	eng, _, _ := newTestEngine(t, f)
	conv := "conv-1"
	// Seed a conversation that is collecting quotes but has none yet.
	if err := eng.d.Sessions.Commit(conv, workflow.StateQuotesCollected, workflow.Context{ItemCode: "ITM-0042", Quantity: 500}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reply, err := eng.HandleMessage(context.Background(), conv, "analyze")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(reply.Text, "don't have any quotes") {
		t.Errorf("expected quote guidance, got %q", reply.Text)
	}

	state, _, _ := eng.d.Sessions.Load(conv)
	if state != workflow.StateQuotesCollected {
		t.Errorf("refused event must leave state unchanged, got %s", state)
	}
}

func TestCorruptConversationRestartsIdle(t *testing.T) {
	f := &fakeServices{}
	f.classify = scriptedClassifier(nil)

	eng, _, _ := newTestEngine(t, f)
	_, err := eng.d.Sessions.DB().Exec(
		`INSERT INTO conversations (conversation_id, state, context_json, updated_at)
		 VALUES ('conv-bad', 'quotes_collected', 'not json at all', '2026-08-01T00:00:00Z')`,
	)
	if err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	reply, err := eng.HandleMessage(context.Background(), "conv-bad", "hello")
	if err != nil {
		t.Fatalf("corrupt record must degrade, not fail: %v", err)
	}
	if reply.State != workflow.StateIdle {
		t.Errorf("expected a restart from idle, got %s", reply.State)
	}
}

func seedPO(t *testing.T, eng *Engine) workflow.PurchaseOrder {
	t.Helper()
	po := workflow.PurchaseOrder{
		PONumber:     "PO-ITM-0042-20260815_101500",
		SupplierName: "Acme Supplies",
		ContactEmail: "sales@acme.test",
		ItemCode:     "ITM-0042",
		ItemName:     "hex bolts",
		Quantity:     2300,
		UnitPrice:    7.80,
		TotalCost:    17940,
		CreatedAt:    time.Now().UTC(),
	}
	if err := eng.d.Sessions.RecordPO(po, true); err != nil {
		t.Fatalf("seed po: %v", err)
	}
	return po
}

func TestVerificationCleanMatchCompletesOrder(t *testing.T) {
	f := &fakeServices{docs: map[string]collab.DocumentExtraction{
		"delivery": {Quantity: 2300},
		"invoice":  {UnitPrice: 7.80, Total: 17940},
	}}
	f.classify = scriptedClassifier(nil)

	eng, rep, _ := newTestEngine(t, f)
	po := seedPO(t, eng)

	result, err := eng.ProcessVerification(context.Background(), po.PONumber, "receipt text", "invoice text")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Report.Matched || result.Outcome != nil {
		t.Errorf("expected a clean match, got %+v", result)
	}

	r, err := rep.Lookup("Acme Supplies")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if r.TotalOrders != 1 || r.TotalIncidents != 0 {
		t.Errorf("clean delivery must complete the order only: %+v", r)
	}
}

func TestVerificationMinorMismatchAcceptsWithDeduction(t *testing.T) {
	f := &fakeServices{docs: map[string]collab.DocumentExtraction{
		// 2280 delivered of 2300: impact 156, about 0.87% of 17940.
		"delivery": {Quantity: 2280},
		"invoice":  {UnitPrice: 7.80, Total: 17940},
	}}
	f.classify = scriptedClassifier(nil)

	eng, rep, ledger := newTestEngine(t, f)
	po := seedPO(t, eng)

	result, err := eng.ProcessVerification(context.Background(), po.PONumber, "receipt", "invoice")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Outcome == nil || result.Outcome.Decision != exception.AcceptWithDeduction {
		t.Fatalf("expected accept_with_deduction, got %+v", result.Outcome)
	}
	if result.Outcome.AdjustedPayment != 17940-156 {
		t.Errorf("expected adjusted payment %.2f, got %.2f", 17940-156.0, result.Outcome.AdjustedPayment)
	}

	r, _ := rep.Lookup("Acme Supplies")
	if r.TotalOrders != 1 || r.TotalIncidents != 1 || len(r.Incidents) != 1 {
		t.Errorf("mismatch must record both the order and the incident: %+v", r)
	}
	if r.Incidents[0].Decision != string(exception.AcceptWithDeduction) {
		t.Errorf("incident must carry the decision, got %s", r.Incidents[0].Decision)
	}

	hist, _ := ledger.History(5)
	if len(hist) == 0 || hist[0].EventType != "payment_adjusted" {
		t.Errorf("expected a payment_adjusted notification, got %+v", hist)
	}
}

func TestVerificationRepeatOffenderRejected(t *testing.T) {
	f := &fakeServices{docs: map[string]collab.DocumentExtraction{
		"delivery": {Quantity: 2280},
		"invoice":  {UnitPrice: 7.80, Total: 17940},
	}}
	f.classify = scriptedClassifier(nil)

	eng, rep, _ := newTestEngine(t, f)
	po := seedPO(t, eng)

	for i := 0; i < 3; i++ {
		rep.Record("Acme Supplies", reputation.MismatchRecord{PONumber: "PO-OLD", Decision: "escalate_to_manager"})
	}

	result, err := eng.ProcessVerification(context.Background(), po.PONumber, "receipt", "invoice")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Outcome == nil || result.Outcome.Decision != exception.RejectShipment {
		t.Errorf("repeat offender must be rejected even at 0.87%%, got %+v", result.Outcome)
	}
}

func TestVerificationUnknownPO(t *testing.T) {
	f := &fakeServices{}
	f.classify = scriptedClassifier(nil)
	eng, _, _ := newTestEngine(t, f)

	if _, err := eng.ProcessVerification(context.Background(), "PO-NOPE", "a", "b"); err == nil {
		t.Fatal("expected an error for an unknown PO")
	}
}
