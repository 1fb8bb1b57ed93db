package collab

import (
	"context"
	"time"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/workflow"
)

// #region types

// Classification is the classifier service's verdict on one inbound message.
// The intent is one of the machine's event kinds; payload fields are present
// only when the intent carries them.
type Classification struct {
	Intent       string                   `json:"intent"`
	ItemCode     string                   `json:"item_code,omitempty"`
	ItemName     string                   `json:"item_name,omitempty"`
	Quantity     int                      `json:"quantity,omitempty"`
	Approved     bool                     `json:"approved,omitempty"`
	Rfq          *workflow.RfqInstruction `json:"rfq,omitempty"`
	ResumeQuery  string                   `json:"resume_query,omitempty"`
	SupplierRefs []string                 `json:"supplier_refs,omitempty"`
}

// #endregion types

// #region classifier

// Classifier turns free-form user messages into classified events. The
// current conversation state is sent along so the service can resolve
// yes/no answers against what is pending.
type Classifier struct {
	c client
}

// NewClassifier creates a classifier client with the given call budget.
func NewClassifier(baseURL string, budget time.Duration) *Classifier {
	return &Classifier{c: newClient("classifier", baseURL, budget)}
}

// Classify classifies one message. On timeout the caller treats the turn as
// unclear rather than guessing an intent.
func (cl *Classifier) Classify(ctx context.Context, state workflow.State, message string) (Classification, error) {
	req := struct {
		State   string `json:"state"`
		Message string `json:"message"`
	}{State: string(state), Message: message}

	var out Classification
	if err := cl.c.postJSON(ctx, "/classify", req, &out); err != nil {
		return Classification{}, err
	}
	return out, nil
}

// #endregion classifier
