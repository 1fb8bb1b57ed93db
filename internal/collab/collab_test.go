package collab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/workflow"
)

func TestClassifierRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			State   string `json:"state"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.State != "awaiting_supplier_approval" {
			t.Errorf("state not forwarded: %s", req.State)
		}
		json.NewEncoder(w).Encode(Classification{Intent: "supplier_approval", Approved: true})
	}))
	defer srv.Close()

	cl := NewClassifier(srv.URL, time.Second)
	got, err := cl.Classify(context.Background(), workflow.StateAwaitingSupplierApproval, "yes, go ahead")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got.Intent != "supplier_approval" || !got.Approved {
		t.Errorf("unexpected classification: %+v", got)
	}
}

func TestClassifierTimeoutIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cl := NewClassifier(srv.URL, 20*time.Millisecond)
	_, err := cl.Classify(context.Background(), workflow.StateIdle, "hello")
	var cte *CollaboratorTimeoutError
	if !errors.As(err, &cte) {
		t.Fatalf("expected CollaboratorTimeoutError, got %v", err)
	}
	if cte.Service != "classifier" {
		t.Errorf("wrong service: %s", cte.Service)
	}
}

func TestDiscoverySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/suppliers/search":
			json.NewEncoder(w).Encode(map[string]any{
				"suppliers": []workflow.Supplier{
					{Name: "Acme Supplies", ContactEmail: "sales@acme.test", QualityScore: 30, QualityLevel: "high"},
					{Name: "Borealis Parts", ContactEmail: "rfq@borealis.test", QualityScore: 22, QualityLevel: "medium"},
				},
			})
		case "/demand/ITM-0042":
			json.NewEncoder(w).Encode(DemandReport{
				ItemCode: "ITM-0042", ItemName: "hex bolts",
				CurrentStock: 120, ReorderLevel: 400, DemandQty: 500,
				Status: "below_reorder_level",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := NewDiscovery(srv.URL, time.Second)

	suppliers, err := d.Search(context.Background(), "ITM-0042", "hex bolts")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(suppliers) != 2 || suppliers[0].Name != "Acme Supplies" {
		t.Errorf("unexpected suppliers: %+v", suppliers)
	}

	demand, err := d.Demand(context.Background(), "ITM-0042")
	if err != nil {
		t.Fatalf("demand: %v", err)
	}
	if !demand.NeedsReorder() {
		t.Errorf("stock 120 below reorder 400 must need reorder: %+v", demand)
	}
}

func TestStatusErrorSurfacesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewMailer(srv.URL, time.Second)
	err := m.Send(context.Background(), "sales@acme.test", "RFQ", "body")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusBadGateway {
		t.Errorf("wrong code: %d", se.Code)
	}
}

func TestMailerFetchUnread(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/unread" || r.Method != http.MethodGet {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"messages": []EmailMessage{{MessageID: "m1", From: "sales@acme.test", Subject: "Quote for hex bolts", Body: "7.80 per unit"}},
		})
	}))
	defer srv.Close()

	m := NewMailer(srv.URL, time.Second)
	msgs, err := m.FetchUnread(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(msgs) != 1 || msgs[0].From != "sales@acme.test" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestMailerMarkRead(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/read" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			MessageID string `json:"message_id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		got = req.MessageID
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMailer(srv.URL, time.Second)
	if err := m.MarkRead(context.Background(), "m1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if got != "m1" {
		t.Errorf("expected m1 acknowledged, got %q", got)
	}
}

func TestWithFallback(t *testing.T) {
	good := func(context.Context) (string, error) { return "rendered", nil }
	bad := func(context.Context) (string, error) { return "", errors.New("down") }
	fb := func() string { return "templated" }

	if got, usedFallback := WithFallback(context.Background(), good, fb); got != "rendered" || usedFallback {
		t.Errorf("expected primary result, got %q fallback=%v", got, usedFallback)
	}
	if got, usedFallback := WithFallback(context.Background(), bad, fb); got != "templated" || !usedFallback {
		t.Errorf("expected fallback result, got %q fallback=%v", got, usedFallback)
	}
}
