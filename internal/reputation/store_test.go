package reputation

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// Every pooled connection gets its own :memory: database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	store, err := NewStore(db)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestLookup_UnknownSupplierIsZeroValued(t *testing.T) {
	store := newTestStore(t)

	rep, err := store.Lookup("SUP-UNKNOWN")
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalOrders != 0 || rep.TotalIncidents != 0 || len(rep.Incidents) != 0 {
		t.Errorf("expected zero-valued reputation, got %+v", rep)
	}
	if rep.RepeatOffender() {
		t.Error("unknown supplier must not be a repeat offender")
	}
	if rep.MismatchRate() != 0 {
		t.Errorf("expected rate 0, got %f", rep.MismatchRate())
	}
}

func TestRecord_RateAndRepeatOffender(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 10; i++ {
		if err := store.CompleteOrder("SUP-001"); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		err := store.Record("SUP-001", MismatchRecord{
			PONumber:           fmt.Sprintf("PO-%d", i),
			DiscrepancyPercent: 5,
			FinancialImpact:    100,
			Decision:           "escalate_to_manager",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	rep, err := store.Lookup("SUP-001")
	if err != nil {
		t.Fatal(err)
	}
	if got := rep.MismatchRate(); got != 0.3 {
		t.Errorf("expected rate 0.3, got %f", got)
	}
	if !rep.RepeatOffender() {
		t.Error("expected repeat offender after 3 incidents")
	}

	// A 4th incident keeps the true counter even though display is capped.
	err = store.Record("SUP-001", MismatchRecord{PONumber: "PO-3", Decision: "reject_shipment"})
	if err != nil {
		t.Fatal(err)
	}
	rep, err = store.Lookup("SUP-001")
	if err != nil {
		t.Fatal(err)
	}
	if got := rep.MismatchRate(); got != 0.4 {
		t.Errorf("expected rate 0.4, got %f", got)
	}
	if rep.TotalIncidents != 4 {
		t.Errorf("expected full counter 4, got %d", rep.TotalIncidents)
	}
}

func TestRecord_RetainsTenNewestIncidents(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 13; i++ {
		err := store.Record("SUP-002", MismatchRecord{
			PONumber:  fmt.Sprintf("PO-%02d", i),
			Decision:  "accept_with_deduction",
			CreatedAt: time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	rep, err := store.Lookup("SUP-002")
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Incidents) != 10 {
		t.Fatalf("expected 10 retained incidents, got %d", len(rep.Incidents))
	}
	// Newest first; oldest three evicted.
	if rep.Incidents[0].PONumber != "PO-12" {
		t.Errorf("expected newest PO-12 first, got %s", rep.Incidents[0].PONumber)
	}
	if rep.Incidents[9].PONumber != "PO-03" {
		t.Errorf("expected PO-03 as oldest retained, got %s", rep.Incidents[9].PONumber)
	}
	if rep.TotalIncidents != 13 {
		t.Errorf("expected full counter 13, got %d", rep.TotalIncidents)
	}
}

func TestRecord_ConcurrentWritesAllRetained(t *testing.T) {
	// File-backed through the shared handle every store runs on in
	// production, so write transactions genuinely contend.
	sessions, err := session.NewStore(filepath.Join(t.TempDir(), "race.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sessions.Close() })
	store, err := NewStore(sessions.DB())
	if err != nil {
		t.Fatal(err)
	}

	const writers = 10
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- store.Record("SUP-RACE", MismatchRecord{
				PONumber: fmt.Sprintf("PO-%02d", n),
				Decision: "escalate_to_manager",
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent record failed: %v", err)
		}
	}

	rep, err := store.Lookup("SUP-RACE")
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalIncidents != writers {
		t.Errorf("expected all %d incidents retained, got %d", writers, rep.TotalIncidents)
	}
	if len(rep.Incidents) != writers {
		t.Errorf("expected %d retained rows, got %d", writers, len(rep.Incidents))
	}
}

func TestRecord_DoesNotTouchTotalOrders(t *testing.T) {
	store := newTestStore(t)

	if err := store.Record("SUP-003", MismatchRecord{PONumber: "PO-1", Decision: "reject_shipment"}); err != nil {
		t.Fatal(err)
	}
	rep, err := store.Lookup("SUP-003")
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalOrders != 0 {
		t.Errorf("recording a mismatch must not increment total_orders, got %d", rep.TotalOrders)
	}
	if rep.TotalIncidents != 1 {
		t.Errorf("expected 1 incident, got %d", rep.TotalIncidents)
	}
}
