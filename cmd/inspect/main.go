package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/notify"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/reputation"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/session"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to procurement.db")
	pos := flag.Int("pos", 0, "show N most recent purchase orders")
	supplier := flag.String("supplier", "", "show one supplier's reputation")
	notifications := flag.Int("notifications", 0, "show N most recent notifications")
	drafts := flag.Bool("drafts", false, "show pending RFQ drafts")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/procurement.db [--pos N] [--supplier name] [--notifications N] [--drafts] [--json]")
		os.Exit(2)
	}

	store, err := session.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *supplier != "":
		err = runSupplierMode(store, *supplier, *jsonOut)
	case *notifications > 0:
		err = runNotificationMode(store, *notifications, *jsonOut)
	case *drafts:
		err = runDraftMode(store, *jsonOut)
	default:
		n := *pos
		if n <= 0 {
			n = 20
		}
		err = runPOMode(store, n, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region po-mode

func runPOMode(store *session.Store, limit int, jsonOut bool) error {
	list, err := store.ListPOs(limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stderr, "no purchase orders found")
		return nil
	}
	if jsonOut {
		return printJSON(list)
	}

	fmt.Printf("%-32s  %-20s  %8s  %10s  %-14s  %s\n",
		"PO Number", "Supplier", "Qty", "Total", "Budget", "Created")
	for _, po := range list {
		fmt.Printf("%-32s  %-20s  %8d  %10.2f  %-14s  %s\n",
			po.PONumber, po.SupplierName, po.Quantity, po.TotalCost,
			po.BudgetStatus, po.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// #endregion po-mode

// #region supplier-mode

func runSupplierMode(store *session.Store, supplier string, jsonOut bool) error {
	repStore, err := reputation.NewStore(store.DB())
	if err != nil {
		return err
	}
	rep, err := repStore.Lookup(supplier)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{
			"supplier_id":     rep.SupplierID,
			"total_orders":    rep.TotalOrders,
			"total_incidents": rep.TotalIncidents,
			"mismatch_rate":   rep.MismatchRate(),
			"repeat_offender": rep.RepeatOffender(),
			"incidents":       rep.Incidents,
		})
	}

	fmt.Printf("Supplier:        %s\n", rep.SupplierID)
	fmt.Printf("Total orders:    %d\n", rep.TotalOrders)
	fmt.Printf("Total incidents: %d\n", rep.TotalIncidents)
	fmt.Printf("Mismatch rate:   %.3f\n", rep.MismatchRate())
	fmt.Printf("Repeat offender: %v\n", rep.RepeatOffender())
	if len(rep.Incidents) > 0 {
		fmt.Printf("\nRetained incidents (newest first):\n")
		for _, inc := range rep.Incidents {
			fmt.Printf("  %-32s  %6.2f%%  %10.2f  %s\n",
				inc.PONumber, inc.DiscrepancyPercent, inc.FinancialImpact, inc.Decision)
		}
	}
	return nil
}

// #endregion supplier-mode

// #region notification-mode

func runNotificationMode(store *session.Store, limit int, jsonOut bool) error {
	ledger, err := notify.NewLedger(store.DB())
	if err != nil {
		return err
	}
	hist, err := ledger.History(limit)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(hist)
	}
	for _, n := range hist {
		fmt.Printf("[%s] %-18s %s\n", n.CreatedAt.Format("2006-01-02 15:04"), n.EventType, n.Message)
	}
	return nil
}

// #endregion notification-mode

// #region draft-mode

func runDraftMode(store *session.Store, jsonOut bool) error {
	drafts, err := store.ListDrafts()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(drafts)
	}
	if len(drafts) == 0 {
		fmt.Fprintln(os.Stderr, "no pending drafts")
		return nil
	}
	for _, d := range drafts {
		fmt.Printf("%-28s  %6d x %-20s  %d suppliers  saved %s\n",
			d.DraftID, d.Quantity, d.ItemName, len(d.Suppliers), d.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

// #endregion draft-mode

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
