package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/collab"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type  TEXT NOT NULL,
	recipient   TEXT,
	subject     TEXT,
	message     TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
`
// #endregion schema

// #region types

// Notification is one recorded outbound notification.
type Notification struct {
	ID        int64     `json:"id"`
	EventType string    `json:"event_type"`
	Recipient string    `json:"recipient,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion types

// #region ledger

// Ledger is the insert-only record of every notification sent. Rows are
// never updated or deleted.
type Ledger struct {
	db *sql.DB
}

// NewLedger runs migrations on the shared database and returns the ledger.
func NewLedger(db *sql.DB) (*Ledger, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate notifications: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Record appends one notification.
func (l *Ledger) Record(n Notification) error {
	_, err := l.db.Exec(
		`INSERT INTO notifications (event_type, recipient, subject, message, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		n.EventType, n.Recipient, n.Subject, n.Message, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

// History returns the most recent notifications, newest first.
func (l *Ledger) History(limit int) ([]Notification, error) {
	rows, err := l.db.Query(
		`SELECT id, event_type, recipient, subject, message, created_at
		 FROM notifications ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("notification history: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var recipient, subject sql.NullString
		var createdStr string
		if err := rows.Scan(&n.ID, &n.EventType, &recipient, &subject, &n.Message, &createdStr); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Recipient = recipient.String
		n.Subject = subject.String
		n.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, n)
	}
	return out, rows.Err()
}

// #endregion ledger

// #region notifier

// Notifier records notifications and, when a recipient is set, dispatches
// them by email. The ledger entry is written even when delivery fails; a
// failed send is logged, not fatal.
type Notifier struct {
	ledger *Ledger
	mailer *collab.Mailer
}

// NewNotifier wires the ledger to the mail collaborator. mailer may be nil
// for record-only use.
func NewNotifier(ledger *Ledger, mailer *collab.Mailer) *Notifier {
	return &Notifier{ledger: ledger, mailer: mailer}
}

// Notify records and dispatches one notification.
func (n *Notifier) Notify(ctx context.Context, note Notification) error {
	if err := n.ledger.Record(note); err != nil {
		return err
	}
	if n.mailer != nil && note.Recipient != "" {
		if err := n.mailer.Send(ctx, note.Recipient, note.Subject, note.Message); err != nil {
			log.Printf("[NOTIFY] delivery to %s failed: %v", note.Recipient, err)
		}
	}
	return nil
}

// History exposes the ledger history.
func (n *Notifier) History(limit int) ([]Notification, error) {
	return n.ledger.History(limit)
}

// #endregion notifier
