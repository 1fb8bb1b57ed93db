package collab

import (
	"context"
	"time"
)

// #region types

// EmailMessage is one message pulled from the procurement inbox.
type EmailMessage struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// #endregion types

// #region mailer

// Mailer wraps the outbound mail and inbox monitoring service. RFQs go out
// through it and quote replies come back through it.
type Mailer struct {
	c client
}

// NewMailer creates a mailer client with the given call budget.
func NewMailer(baseURL string, budget time.Duration) *Mailer {
	return &Mailer{c: newClient("mailer", baseURL, budget)}
}

// Send dispatches one email.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	req := struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}{To: to, Subject: subject, Body: body}
	return m.c.postJSON(ctx, "/send", req, nil)
}

// FetchUnread returns unread inbox messages. Messages stay unread until the
// caller acknowledges them with MarkRead, so a failed ingestion is retried on
// the next fetch.
func (m *Mailer) FetchUnread(ctx context.Context) ([]EmailMessage, error) {
	var out struct {
		Messages []EmailMessage `json:"messages"`
	}
	if err := m.c.getJSON(ctx, "/unread", &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// MarkRead acknowledges one message so it is not returned again.
func (m *Mailer) MarkRead(ctx context.Context, messageID string) error {
	req := struct {
		MessageID string `json:"message_id"`
	}{MessageID: messageID}
	return m.c.postJSON(ctx, "/read", req, nil)
}

// #endregion mailer
