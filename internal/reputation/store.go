package reputation

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS suppliers (
	supplier_id     TEXT PRIMARY KEY,
	total_orders    INTEGER NOT NULL DEFAULT 0,
	total_incidents INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS mismatch_incidents (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	supplier_id         TEXT NOT NULL,
	po_number           TEXT NOT NULL,
	discrepancy_percent REAL NOT NULL,
	financial_impact    REAL NOT NULL,
	decision            TEXT NOT NULL,
	created_at          TEXT NOT NULL,
	FOREIGN KEY (supplier_id) REFERENCES suppliers(supplier_id)
);

CREATE INDEX IF NOT EXISTS idx_incidents_supplier
ON mismatch_incidents(supplier_id);
`

// #endregion schema

// #region store

// Store is the append-only per-supplier incident ledger.
type Store struct {
	db *sql.DB
}

// NewStore initializes the ledger tables and returns a Store.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("reputation: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion store

// #region record

// Record appends one incident to the supplier's ledger. The full incident
// counter always increments; retained incident rows beyond the newest 10 are
// evicted oldest-first. total_orders is untouched — delivery cycles complete
// via CompleteOrder. The whole read-modify-write runs in one transaction so
// concurrent records for the same supplier are both retained.
func (s *Store) Record(supplierID string, rec MismatchRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("reputation: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO suppliers (supplier_id, total_orders, total_incidents) VALUES (?, 0, 1)
		 ON CONFLICT(supplier_id) DO UPDATE SET total_incidents = total_incidents + 1`,
		supplierID,
	)
	if err != nil {
		return fmt.Errorf("reputation: bump incident counter: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO mismatch_incidents
		 (supplier_id, po_number, discrepancy_percent, financial_impact, decision, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		supplierID, rec.PONumber, rec.DiscrepancyPercent, rec.FinancialImpact,
		rec.Decision, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("reputation: insert incident: %w", err)
	}

	_, err = tx.Exec(
		`DELETE FROM mismatch_incidents
		 WHERE supplier_id = ? AND id NOT IN (
			SELECT id FROM mismatch_incidents
			WHERE supplier_id = ? ORDER BY id DESC LIMIT ?
		 )`,
		supplierID, supplierID, retainedIncidents,
	)
	if err != nil {
		return fmt.Errorf("reputation: evict old incidents: %w", err)
	}

	return tx.Commit()
}

// #endregion record

// #region complete-order

// CompleteOrder increments the supplier's completed delivery cycle count.
func (s *Store) CompleteOrder(supplierID string) error {
	_, err := s.db.Exec(
		`INSERT INTO suppliers (supplier_id, total_orders, total_incidents) VALUES (?, 1, 0)
		 ON CONFLICT(supplier_id) DO UPDATE SET total_orders = total_orders + 1`,
		supplierID,
	)
	if err != nil {
		return fmt.Errorf("reputation: complete order: %w", err)
	}
	return nil
}

// #endregion complete-order

// #region lookup

// Lookup returns the supplier's reputation. An unknown supplier yields a
// zero-valued reputation: absence of history is a valid state, not a fault.
func (s *Store) Lookup(supplierID string) (SupplierReputation, error) {
	rep := SupplierReputation{SupplierID: supplierID}

	err := s.db.QueryRow(
		`SELECT total_orders, total_incidents FROM suppliers WHERE supplier_id = ?`,
		supplierID,
	).Scan(&rep.TotalOrders, &rep.TotalIncidents)
	if err == sql.ErrNoRows {
		return rep, nil
	}
	if err != nil {
		return SupplierReputation{}, fmt.Errorf("reputation: lookup %s: %w", supplierID, err)
	}

	rows, err := s.db.Query(
		`SELECT po_number, discrepancy_percent, financial_impact, decision, created_at
		 FROM mismatch_incidents WHERE supplier_id = ? ORDER BY id DESC`,
		supplierID,
	)
	if err != nil {
		return SupplierReputation{}, fmt.Errorf("reputation: incidents %s: %w", supplierID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec MismatchRecord
		var createdStr string
		if err := rows.Scan(&rec.PONumber, &rec.DiscrepancyPercent, &rec.FinancialImpact,
			&rec.Decision, &createdStr); err != nil {
			return SupplierReputation{}, fmt.Errorf("reputation: scan incident: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		rep.Incidents = append(rep.Incidents, rec)
	}
	return rep, rows.Err()
}

// #endregion lookup
