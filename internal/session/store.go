package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/workflow"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	conversation_id  TEXT PRIMARY KEY,
	state            TEXT NOT NULL,
	context_json     TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rfq_drafts (
	draft_id       TEXT PRIMARY KEY,
	item_code      TEXT NOT NULL,
	item_name      TEXT NOT NULL,
	quantity       INTEGER NOT NULL,
	delivery_days  INTEGER NOT NULL,
	suppliers_json TEXT NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS purchase_orders (
	po_number          TEXT PRIMARY KEY,
	supplier_name      TEXT NOT NULL,
	contact_email      TEXT,
	item_code          TEXT NOT NULL,
	item_name          TEXT NOT NULL,
	quantity           INTEGER NOT NULL,
	unit_price         REAL NOT NULL,
	total_cost         REAL NOT NULL,
	delivery_days      INTEGER NOT NULL,
	expected_delivery  TEXT NOT NULL,
	payment_terms      TEXT,
	score              REAL NOT NULL,
	budget_status      TEXT NOT NULL,
	approved           INTEGER NOT NULL,
	created_at         TEXT NOT NULL
);
`
// #endregion schema

// #region store

// Store persists conversation state, saved RFQ drafts and the purchase order
// ledger in SQLite. A conversation's state and context always commit in one
// transaction.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations. Writes from all
// stores sharing this handle are serialized through a single connection;
// busy_timeout covers locks held by other processes.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("pragma busy: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// NewConversationID mints an identifier for a fresh conversation.
func NewConversationID() string {
	return uuid.New().String()
}

// #endregion store

// #region conversation

// Load reads a conversation's state and context. An unknown conversation
// starts idle with an empty context; that is not an error.
func (s *Store) Load(conversationID string) (workflow.State, workflow.Context, error) {
	var stateStr, ctxJSON string
	err := s.db.QueryRow(
		`SELECT state, context_json FROM conversations WHERE conversation_id = ?`,
		conversationID,
	).Scan(&stateStr, &ctxJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.StateIdle, workflow.Context{}, nil
	}
	if err != nil {
		return "", workflow.Context{}, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}

	var ctx workflow.Context
	if err := json.Unmarshal([]byte(ctxJSON), &ctx); err != nil {
		return "", workflow.Context{}, &RepositoryCorruptionError{ConversationID: conversationID, Err: err}
	}
	return workflow.State(stateStr), ctx, nil
}

// Commit writes a conversation's new state and context atomically. A failed
// commit leaves the previous turn's record untouched.
func (s *Store) Commit(conversationID string, state workflow.State, ctx workflow.Context) error {
	ctxJSON, err := json.Marshal(ctx)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO conversations (conversation_id, state, context_json, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(conversation_id) DO UPDATE SET
		   state = excluded.state,
		   context_json = excluded.context_json,
		   updated_at = excluded.updated_at`,
		conversationID, string(state), string(ctxJSON), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("commit conversation %s: %w", conversationID, err)
	}

	return tx.Commit()
}

// #endregion conversation

// #region drafts

// SaveDraft stores an RFQ snapshot for a later conversation to resume.
func (s *Store) SaveDraft(d workflow.Draft) error {
	suppliersJSON, err := json.Marshal(d.Suppliers)
	if err != nil {
		return fmt.Errorf("marshal suppliers: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO rfq_drafts (draft_id, item_code, item_name, quantity, delivery_days, suppliers_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(draft_id) DO UPDATE SET
		   quantity = excluded.quantity,
		   delivery_days = excluded.delivery_days,
		   suppliers_json = excluded.suppliers_json`,
		d.DraftID, d.ItemCode, d.ItemName, d.Quantity, d.DeliveryDays,
		string(suppliersJSON), d.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", d.DraftID, err)
	}
	return nil
}

// ListDrafts returns all pending RFQ drafts, newest first.
func (s *Store) ListDrafts() ([]workflow.Draft, error) {
	rows, err := s.db.Query(
		`SELECT draft_id, item_code, item_name, quantity, delivery_days, suppliers_json, created_at
		 FROM rfq_drafts ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []workflow.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// FindDraft resolves a user reference to a saved draft. Exact draft id wins,
// then exact item code, then a case-insensitive item name substring. Returns
// nil when nothing matches.
func (s *Store) FindDraft(query string) (*workflow.Draft, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	drafts, err := s.ListDrafts()
	if err != nil {
		return nil, err
	}

	for i := range drafts {
		if drafts[i].DraftID == query {
			return &drafts[i], nil
		}
	}
	for i := range drafts {
		if strings.EqualFold(drafts[i].ItemCode, query) {
			return &drafts[i], nil
		}
	}
	lowered := strings.ToLower(query)
	for i := range drafts {
		if strings.Contains(strings.ToLower(drafts[i].ItemName), lowered) {
			return &drafts[i], nil
		}
	}
	return nil, nil
}

// DeleteDraft removes a resumed or abandoned draft.
func (s *Store) DeleteDraft(draftID string) error {
	_, err := s.db.Exec(`DELETE FROM rfq_drafts WHERE draft_id = ?`, draftID)
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", draftID, err)
	}
	return nil
}

func scanDraft(rows *sql.Rows) (workflow.Draft, error) {
	var d workflow.Draft
	var suppliersJSON, createdStr string
	if err := rows.Scan(&d.DraftID, &d.ItemCode, &d.ItemName, &d.Quantity, &d.DeliveryDays, &suppliersJSON, &createdStr); err != nil {
		return workflow.Draft{}, fmt.Errorf("scan draft: %w", err)
	}
	if err := json.Unmarshal([]byte(suppliersJSON), &d.Suppliers); err != nil {
		return workflow.Draft{}, fmt.Errorf("unmarshal draft suppliers: %w", err)
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return d, nil
}

// #endregion drafts

// #region purchase-orders

// RecordPO appends a purchase order to the ledger. Rejected orders are kept
// too, flagged by approved.
func (s *Store) RecordPO(po workflow.PurchaseOrder, approved bool) error {
	approvedInt := 0
	if approved {
		approvedInt = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO purchase_orders
		   (po_number, supplier_name, contact_email, item_code, item_name, quantity,
		    unit_price, total_cost, delivery_days, expected_delivery, payment_terms,
		    score, budget_status, approved, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		po.PONumber, po.SupplierName, po.ContactEmail, po.ItemCode, po.ItemName, po.Quantity,
		po.UnitPrice, po.TotalCost, po.DeliveryDays, po.ExpectedDelivery, po.PaymentTerms,
		po.Score, po.BudgetStatus, approvedInt, po.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record po %s: %w", po.PONumber, err)
	}
	return nil
}

// GetPO fetches one purchase order. Returns nil when unknown.
func (s *Store) GetPO(poNumber string) (*workflow.PurchaseOrder, bool, error) {
	row := s.db.QueryRow(
		`SELECT po_number, supplier_name, contact_email, item_code, item_name, quantity,
		        unit_price, total_cost, delivery_days, expected_delivery, payment_terms,
		        score, budget_status, approved, created_at
		 FROM purchase_orders WHERE po_number = ?`, poNumber,
	)
	po, approved, err := scanPO(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &po, approved, nil
}

// ListPOs returns the most recent purchase orders.
func (s *Store) ListPOs(limit int) ([]workflow.PurchaseOrder, error) {
	rows, err := s.db.Query(
		`SELECT po_number, supplier_name, contact_email, item_code, item_name, quantity,
		        unit_price, total_cost, delivery_days, expected_delivery, payment_terms,
		        score, budget_status, approved, created_at
		 FROM purchase_orders ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pos: %w", err)
	}
	defer rows.Close()

	var pos []workflow.PurchaseOrder
	for rows.Next() {
		po, _, err := scanPO(rows)
		if err != nil {
			return nil, err
		}
		pos = append(pos, po)
	}
	return pos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPO(row rowScanner) (workflow.PurchaseOrder, bool, error) {
	var po workflow.PurchaseOrder
	var contactEmail, paymentTerms sql.NullString
	var approvedInt int
	var createdStr string
	err := row.Scan(&po.PONumber, &po.SupplierName, &contactEmail, &po.ItemCode, &po.ItemName,
		&po.Quantity, &po.UnitPrice, &po.TotalCost, &po.DeliveryDays, &po.ExpectedDelivery,
		&paymentTerms, &po.Score, &po.BudgetStatus, &approvedInt, &createdStr)
	if err != nil {
		return workflow.PurchaseOrder{}, false, err
	}
	po.ContactEmail = contactEmail.String
	po.PaymentTerms = paymentTerms.String
	po.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return po, approvedInt == 1, nil
}

// #endregion purchase-orders
