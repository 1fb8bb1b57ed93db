package compare

// #region quote

// Quote is a single supplier quote as received from extraction or manual entry.
type Quote struct {
	SupplierName   string   `json:"supplier_name"`
	ContactEmail   string   `json:"contact_email,omitempty"`
	UnitPrice      float64  `json:"unit_price"`
	DeliveryDays   int      `json:"delivery_days"`
	QualityScore   float64  `json:"quality_score"` // 0-35, from supplier discovery
	PaymentTerms   string   `json:"payment_terms,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
}

// #endregion quote

// #region ranked

// Ranked pairs a quote with its composite score.
type Ranked struct {
	Quote Quote
	Score float64
}

// Result is the ranked comparison output, best first.
type Result struct {
	Ranked []Ranked
}

// Best returns the top-ranked quote.
func (r Result) Best() Ranked {
	return r.Ranked[0]
}

// #endregion ranked

// #region errors

// EmptyQuoteSetError reports a comparison invoked with no quotes.
type EmptyQuoteSetError struct{}

func (e *EmptyQuoteSetError) Error() string {
	return "compare: no quotes to compare"
}

// #endregion errors
