package workflow

import (
	"time"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/compare"
)

// #region state

// State is the conversation's position in the procurement cycle. Exactly one
// is active per conversation at any time.
type State string

const (
	StateIdle                      State = "idle"
	StateAwaitingSupplierApproval  State = "awaiting_supplier_approval"
	StateAwaitingRfqApproval       State = "awaiting_rfq_approval"
	StateAwaitingQuotes            State = "awaiting_quotes"
	StateQuotesCollected           State = "quotes_collected"
	StateAwaitingPoApproval        State = "awaiting_po_approval"
)

// #endregion state

// #region event-kind

// EventKind is the closed set of classified intents the machine consumes.
// Classification happens upstream; the machine never guesses.
type EventKind string

const (
	EventNewDemandCheck    EventKind = "new_demand_check"
	EventFindSuppliers     EventKind = "find_suppliers_for_item"
	EventSupplierApproval  EventKind = "supplier_approval"
	EventRfqIntent         EventKind = "rfq_intent"
	EventQuoteSubmission   EventKind = "quote_submission"
	EventAnalyzeQuotes     EventKind = "analyze_quotes"
	EventPoApproval        EventKind = "po_approval"
	EventInboxCheck        EventKind = "inbox_check"
	EventNotificationQuery EventKind = "notification_query"
	EventShowPendingRfqs   EventKind = "show_pending_rfqs"
	EventResumeRfq         EventKind = "resume_rfq"
	EventAcknowledgment    EventKind = "acknowledgment"
	EventHelp              EventKind = "help"
	EventUnclear           EventKind = "unclear"
)

// #endregion event-kind

// #region rfq-instruction

// RfqAction is the user's disposition for a prepared RFQ.
type RfqAction string

const (
	RfqSend   RfqAction = "send"
	RfqWait   RfqAction = "wait"
	RfqCancel RfqAction = "cancel"
)

// SupplierFilter narrows the supplier list an RFQ goes out to.
type SupplierFilter struct {
	Kind   string   `json:"kind"` // all | quality | count | name | location
	Names  []string `json:"names,omitempty"`
	Levels []string `json:"levels,omitempty"`
	Count  int      `json:"count,omitempty"`
	Places []string `json:"places,omitempty"`
}

// RfqInstruction carries the classified rfq_intent payload.
type RfqInstruction struct {
	Action       RfqAction      `json:"action"`
	Quantity     int            `json:"quantity"`
	DeliveryDays int            `json:"delivery_days"`
	Filter       SupplierFilter `json:"filter"`
}

// #endregion rfq-instruction

// #region event

// Event is one classified inbound turn with its extracted payload. Payload
// fields are populated by the orchestrator before Apply: suppliers from the
// discovery collaborator, quotes from extraction, drafts from storage.
type Event struct {
	Kind      EventKind
	ItemCode  string
	ItemName  string
	Quantity  int
	Approved  bool // supplier_approval / po_approval answer
	Suppliers []Supplier
	Quote     *compare.Quote
	Rfq       *RfqInstruction
	Draft     *Draft
}

// #endregion event

// #region supplier

// Supplier is one discovery result.
type Supplier struct {
	Name           string   `json:"name"`
	ContactEmail   string   `json:"contact_email"`
	Location       string   `json:"location,omitempty"`
	QualityScore   float64  `json:"quality_score"` // 0-35
	QualityLevel   string   `json:"quality_level,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
}

// #endregion supplier

// #region purchase-order

// PurchaseOrder is the draft built from the winning quote, awaiting approval.
type PurchaseOrder struct {
	PONumber         string    `json:"po_number"`
	SupplierName     string    `json:"supplier_name"`
	ContactEmail     string    `json:"contact_email,omitempty"`
	ItemCode         string    `json:"item_code"`
	ItemName         string    `json:"item_name"`
	Quantity         int       `json:"quantity"`
	UnitPrice        float64   `json:"unit_price"`
	TotalCost        float64   `json:"total_cost"`
	DeliveryDays     int       `json:"delivery_days"`
	ExpectedDelivery string    `json:"expected_delivery_date"`
	PaymentTerms     string    `json:"payment_terms,omitempty"`
	Score            float64   `json:"score"`
	BudgetStatus     string    `json:"budget_status"` // within_budget | exceeds_budget
	CreatedAt        time.Time `json:"created_at"`
}

// #endregion purchase-order

// #region draft

// Draft is a saved RFQ snapshot that a later conversation can resume.
type Draft struct {
	DraftID      string     `json:"draft_id"`
	ItemCode     string     `json:"item_code"`
	ItemName     string     `json:"item_name"`
	Quantity     int        `json:"quantity"`
	DeliveryDays int        `json:"delivery_days"`
	Suppliers    []Supplier `json:"suppliers"`
	CreatedAt    time.Time  `json:"created_at"`
}

// #endregion draft

// #region context

// Context is the mutable per-conversation record owned by the state machine.
// Fields relevant to a state must be populated before that state is entered.
type Context struct {
	ItemCode        string          `json:"item_code,omitempty"`
	ItemName        string          `json:"item_name,omitempty"`
	Quantity        int             `json:"requested_quantity,omitempty"`
	SupplierOptions []Supplier      `json:"supplier_options,omitempty"`
	CollectedQuotes []compare.Quote `json:"collected_quotes,omitempty"`
	PendingPO       *PurchaseOrder  `json:"pending_po,omitempty"`
}

// #endregion context

// #region action

// ActionKind names a side effect the orchestrator performs after a committed
// transition.
type ActionKind string

const (
	ActionFetchDemand         ActionKind = "fetch_demand"
	ActionDispatchRfq         ActionKind = "dispatch_rfq"
	ActionRecordPO            ActionKind = "record_po"
	ActionNotify              ActionKind = "notify"
	ActionSaveDraft           ActionKind = "save_draft"
	ActionListDrafts          ActionKind = "list_drafts"
	ActionCheckInbox          ActionKind = "check_inbox"
	ActionNotificationHistory ActionKind = "notification_history"
	ActionPrompt              ActionKind = "prompt"
)

// Action is one side effect emitted by Apply. The machine itself performs no
// I/O.
type Action struct {
	Kind         ActionKind
	Message      string // for prompts and notifications
	Event        string // notification event type
	ItemCode     string
	ItemName     string
	Quantity     int
	DeliveryDays int
	Suppliers    []Supplier
	PO           *PurchaseOrder
	POApproved   bool
	Draft        *Draft
}

// #endregion action

// #region result

// Result is the committed outcome of one Apply call.
type Result struct {
	State   State
	Context Context
	Actions []Action
}

// #endregion result
