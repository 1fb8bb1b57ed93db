package orchestrator

import (
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/exception"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/verify"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/workflow"
)

// #region reply

// Reply is the engine's answer to one inbound message.
type Reply struct {
	Text  string         `json:"text"`
	State workflow.State `json:"state"`
}

// #endregion reply

// #region verification

// VerificationResult is the outcome of a delivery verification cycle.
// Outcome is nil when the three-way match was clean.
type VerificationResult struct {
	Report  verify.Report      `json:"report"`
	Outcome *exception.Outcome `json:"outcome,omitempty"`
}

// #endregion verification
