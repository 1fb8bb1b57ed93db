package compare

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCompare_EmptySet(t *testing.T) {
	_, err := Compare(nil)
	if err == nil {
		t.Fatal("expected error for empty quote set")
	}
	var empty *EmptyQuoteSetError
	if !errors.As(err, &empty) {
		t.Errorf("expected EmptyQuoteSetError, got %T", err)
	}
}

func TestCompare_RanksByCompositeScore(t *testing.T) {
	quotes := []Quote{
		{SupplierName: "NextGen Components", UnitPrice: 12.50, DeliveryDays: 10, QualityScore: 30},
		{SupplierName: "Pioneer Machineparts", UnitPrice: 11.80, DeliveryDays: 14, QualityScore: 22},
		{SupplierName: "Apex Industrial", UnitPrice: 13.10, DeliveryDays: 7, QualityScore: 18},
	}

	result, err := Compare(quotes)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Ranked) != len(quotes) {
		t.Fatalf("expected %d ranked entries, got %d", len(quotes), len(result.Ranked))
	}
	for i, r := range result.Ranked {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("score %d out of [0,1]: %f", i, r.Score)
		}
		if i > 0 && result.Ranked[i-1].Score < r.Score {
			t.Errorf("scores not non-increasing at %d: %f < %f", i, result.Ranked[i-1].Score, r.Score)
		}
	}
}

func TestCompare_IdenticalQuotesScoreHalf(t *testing.T) {
	quotes := []Quote{
		{SupplierName: "A", UnitPrice: 10, DeliveryDays: 7, QualityScore: 20},
		{SupplierName: "B", UnitPrice: 10, DeliveryDays: 7, QualityScore: 20},
		{SupplierName: "C", UnitPrice: 10, DeliveryDays: 7, QualityScore: 20},
	}

	result, err := Compare(quotes)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range result.Ranked {
		if !almostEqual(r.Score, 0.5) {
			t.Errorf("%s: expected neutral score 0.5, got %f", r.Quote.SupplierName, r.Score)
		}
	}
	// Ties with equal prices resolve by supplier name.
	if result.Ranked[0].Quote.SupplierName != "A" {
		t.Errorf("expected lexical tie-break, got %q first", result.Ranked[0].Quote.SupplierName)
	}
}

func TestCompare_OrderInvariant(t *testing.T) {
	quotes := []Quote{
		{SupplierName: "A", UnitPrice: 12.50, DeliveryDays: 10, QualityScore: 30},
		{SupplierName: "B", UnitPrice: 11.80, DeliveryDays: 14, QualityScore: 22},
		{SupplierName: "C", UnitPrice: 13.10, DeliveryDays: 7, QualityScore: 18},
	}
	permuted := []Quote{quotes[2], quotes[0], quotes[1]}

	r1, err := Compare(quotes)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Compare(permuted)
	if err != nil {
		t.Fatal(err)
	}

	for i := range r1.Ranked {
		if r1.Ranked[i].Quote.SupplierName != r2.Ranked[i].Quote.SupplierName {
			t.Errorf("rank %d differs across permutations: %q vs %q",
				i, r1.Ranked[i].Quote.SupplierName, r2.Ranked[i].Quote.SupplierName)
		}
		if !almostEqual(r1.Ranked[i].Score, r2.Ranked[i].Score) {
			t.Errorf("score %d differs across permutations", i)
		}
	}
}

func TestCompare_TieBreakByPrice(t *testing.T) {
	// Same composite score via symmetric normalization; cheaper quote wins.
	quotes := []Quote{
		{SupplierName: "Pricey", UnitPrice: 20, DeliveryDays: 7, QualityScore: 20},
		{SupplierName: "Cheap", UnitPrice: 10, DeliveryDays: 14, QualityScore: 20},
	}

	result, err := Compare(quotes)
	if err != nil {
		t.Fatal(err)
	}
	// price norm + delivery norm flip between the two: Cheap gets 0.5*1+0.3*0,
	// Pricey gets 0.5*0+0.3*1. Not a tie; Cheap wins outright.
	if result.Ranked[0].Quote.SupplierName != "Cheap" {
		t.Errorf("expected Cheap ranked first, got %q", result.Ranked[0].Quote.SupplierName)
	}
}

func TestDedupe(t *testing.T) {
	quotes := []Quote{
		{SupplierName: "NextGen Components", UnitPrice: 12.50, DeliveryDays: 10, PaymentTerms: "Net 30"},
		{SupplierName: "nextgen components", UnitPrice: 12.50, DeliveryDays: 10, PaymentTerms: "Net 45"},
		{SupplierName: "NextGen Components", UnitPrice: 12.50, DeliveryDays: 7},
		{SupplierName: "Pioneer Machineparts", UnitPrice: 11.80, DeliveryDays: 14},
	}

	out := Dedupe(quotes)
	if len(out) != 3 {
		t.Fatalf("expected 3 unique quotes, got %d", len(out))
	}
	// First observation wins regardless of other field differences.
	if out[0].PaymentTerms != "Net 30" {
		t.Errorf("expected first observation retained, got terms %q", out[0].PaymentTerms)
	}
}
