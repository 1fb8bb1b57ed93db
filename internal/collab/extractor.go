package collab

import (
	"context"
	"time"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/compare"
)

// #region types

// DocumentExtraction is the structured read of a delivery receipt or
// supplier invoice used by the three-way match.
type DocumentExtraction struct {
	PONumber     string  `json:"po_number"`
	SupplierName string  `json:"supplier_name"`
	ItemCode     string  `json:"item_code"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Total        float64 `json:"total"`
}

// #endregion types

// #region extractor

// Extractor wraps the document understanding service. It parses quote emails
// and verification documents into structured records.
type Extractor struct {
	c client
}

// NewExtractor creates an extractor client with the given call budget.
func NewExtractor(baseURL string, budget time.Duration) *Extractor {
	return &Extractor{c: newClient("extractor", baseURL, budget)}
}

// ExtractQuote parses a quote email body. A nil quote means the message was
// not a usable quote; that is not an error.
func (e *Extractor) ExtractQuote(ctx context.Context, from, subject, body string) (*compare.Quote, error) {
	req := struct {
		From    string `json:"from"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}{From: from, Subject: subject, Body: body}

	var out struct {
		Quote *compare.Quote `json:"quote"`
	}
	if err := e.c.postJSON(ctx, "/extract/quote", req, &out); err != nil {
		return nil, err
	}
	return out.Quote, nil
}

// ExtractDocument parses a delivery receipt or invoice. kind is one of
// "delivery" or "invoice".
func (e *Extractor) ExtractDocument(ctx context.Context, kind, text string) (DocumentExtraction, error) {
	req := struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}{Kind: kind, Text: text}

	var out DocumentExtraction
	if err := e.c.postJSON(ctx, "/extract/document", req, &out); err != nil {
		return DocumentExtraction{}, err
	}
	return out, nil
}

// #endregion extractor
