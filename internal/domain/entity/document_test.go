package entity_test

import (
	"errors"
	"math"
	"testing"

	"github.com/finman-io/finman-gateway/internal/domain/entity"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestItemizedDocument_Totals_VATScenario(t *testing.T) {
	doc := entity.ItemizedDocument{
		Items: []entity.LineItem{
			{Description: "Consulting", Quantity: 2, UnitPrice: 25000},
		},
		TaxRate: 0.16,
	}

	totals := doc.Totals()
	if !almostEqual(totals.Subtotal, 50000) {
		t.Errorf("subtotal = %v, want 50000", totals.Subtotal)
	}
	if !almostEqual(totals.TaxAmount, 8000) {
		t.Errorf("tax = %v, want 8000", totals.TaxAmount)
	}
	if !almostEqual(totals.Total, 58000) {
		t.Errorf("total = %v, want 58000", totals.Total)
	}
}

func TestItemizedDocument_Totals(t *testing.T) {
	tests := []struct {
		name         string
		items        []entity.LineItem
		taxRate      float64
		wantSubtotal float64
		wantTax      float64
		wantTotal    float64
	}{
		{
			name:    "empty document",
			items:   nil,
			taxRate: 0.16,
		},
		{
			name: "zero tax rate",
			items: []entity.LineItem{
				{Quantity: 3, UnitPrice: 10},
			},
			taxRate:      0,
			wantSubtotal: 30,
			wantTotal:    30,
		},
		{
			name: "multiple rows",
			items: []entity.LineItem{
				{Quantity: 1, UnitPrice: 100},
				{Quantity: 2.5, UnitPrice: 40},
				{Quantity: 4, UnitPrice: 0.25},
			},
			taxRate:      0.1,
			wantSubtotal: 201,
			wantTax:      20.1,
			wantTotal:    221.1,
		},
		{
			name: "NaN row counts as zero",
			items: []entity.LineItem{
				{Quantity: math.NaN(), UnitPrice: 500},
				{Quantity: 2, UnitPrice: 10},
			},
			taxRate:      0.5,
			wantSubtotal: 20,
			wantTax:      10,
			wantTotal:    30,
		},
		{
			name: "negative row counts as zero",
			items: []entity.LineItem{
				{Quantity: -3, UnitPrice: 100},
				{Quantity: 1, UnitPrice: 100},
			},
			taxRate:      0.16,
			wantSubtotal: 100,
			wantTax:      16,
			wantTotal:    116,
		},
		{
			name: "negative tax rate clamps to zero",
			items: []entity.LineItem{
				{Quantity: 1, UnitPrice: 100},
			},
			taxRate:      -0.5,
			wantSubtotal: 100,
			wantTotal:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := entity.ItemizedDocument{Items: tt.items, TaxRate: tt.taxRate}
			totals := doc.Totals()
			if !almostEqual(totals.Subtotal, tt.wantSubtotal) {
				t.Errorf("subtotal = %v, want %v", totals.Subtotal, tt.wantSubtotal)
			}
			if !almostEqual(totals.TaxAmount, tt.wantTax) {
				t.Errorf("tax = %v, want %v", totals.TaxAmount, tt.wantTax)
			}
			if !almostEqual(totals.Total, tt.wantTotal) {
				t.Errorf("total = %v, want %v", totals.Total, tt.wantTotal)
			}
		})
	}
}

func TestItemizedDocument_SubtotalMatchesLiveSum(t *testing.T) {
	// A mixed sequence of adds, edits and removals must keep the
	// subtotal equal to the sum over the currently present items.
	var doc entity.ItemizedDocument
	doc.SetTaxRate(0.16)

	doc.AddItem()
	doc.AddItem()
	doc.AddItem()
	if err := doc.UpdateItem(0, entity.LineItemFieldQuantity, "2"); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if err := doc.UpdateItem(0, entity.LineItemFieldUnitPrice, "150.50"); err != nil {
		t.Fatalf("update price: %v", err)
	}
	if err := doc.UpdateItem(1, entity.LineItemFieldUnitPrice, "99.99"); err != nil {
		t.Fatalf("update price: %v", err)
	}
	if err := doc.UpdateItem(2, entity.LineItemFieldUnitPrice, "10"); err != nil {
		t.Fatalf("update price: %v", err)
	}
	doc.RemoveItem(1)

	want := 0.0
	for _, item := range doc.Items {
		want += item.Amount()
	}
	totals := doc.Totals()
	if !almostEqual(totals.Subtotal, want) {
		t.Errorf("subtotal = %v, want live sum %v", totals.Subtotal, want)
	}
	if !almostEqual(totals.Subtotal, 311) {
		t.Errorf("subtotal = %v, want 311", totals.Subtotal)
	}
}

func TestItemizedDocument_AddItem(t *testing.T) {
	var doc entity.ItemizedDocument
	doc.AddItem()

	if len(doc.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(doc.Items))
	}
	item := doc.Items[0]
	if item.Quantity != 1 || item.UnitPrice != 0 || item.Description != "" {
		t.Errorf("fresh item = %+v, want quantity 1, price 0, empty description", item)
	}
}

func TestItemizedDocument_RemoveItem(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		wantLeft  []string
		wantCount int
	}{
		{name: "remove middle preserves order", index: 1, wantLeft: []string{"a", "c"}, wantCount: 2},
		{name: "remove first", index: 0, wantLeft: []string{"b", "c"}, wantCount: 2},
		{name: "remove last", index: 2, wantLeft: []string{"a", "b"}, wantCount: 2},
		{name: "negative index is a no-op", index: -1, wantLeft: []string{"a", "b", "c"}, wantCount: 3},
		{name: "out of range is a no-op", index: 3, wantLeft: []string{"a", "b", "c"}, wantCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := entity.ItemizedDocument{
				Items: []entity.LineItem{
					{Description: "a"}, {Description: "b"}, {Description: "c"},
				},
			}
			doc.RemoveItem(tt.index)
			if len(doc.Items) != tt.wantCount {
				t.Fatalf("items = %d, want %d", len(doc.Items), tt.wantCount)
			}
			for i, want := range tt.wantLeft {
				if doc.Items[i].Description != want {
					t.Errorf("item %d = %q, want %q", i, doc.Items[i].Description, want)
				}
			}
		})
	}
}

func TestItemizedDocument_RemoveLastItem(t *testing.T) {
	doc := entity.ItemizedDocument{Items: []entity.LineItem{{Description: "only"}}}
	doc.RemoveItem(0)
	if len(doc.Items) != 0 {
		t.Fatalf("items = %d, want empty", len(doc.Items))
	}
	totals := doc.Totals()
	if totals.Subtotal != 0 || totals.Total != 0 {
		t.Errorf("empty document totals = %+v, want zeros", totals)
	}
}

func TestItemizedDocument_UpdateItem(t *testing.T) {
	tests := []struct {
		name      string
		field     entity.LineItemField
		raw       string
		wantErr   bool
		check     func(t *testing.T, item entity.LineItem)
	}{
		{
			name:  "description stored verbatim",
			field: entity.LineItemFieldDescription,
			raw:   "  Televisor 43\" ",
			check: func(t *testing.T, item entity.LineItem) {
				if item.Description != "  Televisor 43\" " {
					t.Errorf("description = %q", item.Description)
				}
			},
		},
		{
			name:  "valid quantity",
			field: entity.LineItemFieldQuantity,
			raw:   "2.5",
			check: func(t *testing.T, item entity.LineItem) {
				if item.Quantity != 2.5 {
					t.Errorf("quantity = %v, want 2.5", item.Quantity)
				}
			},
		},
		{
			name:  "valid unit price",
			field: entity.LineItemFieldUnitPrice,
			raw:   "25000",
			check: func(t *testing.T, item entity.LineItem) {
				if item.UnitPrice != 25000 {
					t.Errorf("unit price = %v, want 25000", item.UnitPrice)
				}
			},
		},
		{
			name:    "non-numeric quantity clamps to zero",
			field:   entity.LineItemFieldQuantity,
			raw:     "abc",
			wantErr: true,
			check: func(t *testing.T, item entity.LineItem) {
				if item.Quantity != 0 {
					t.Errorf("quantity = %v, want 0", item.Quantity)
				}
			},
		},
		{
			name:    "negative price clamps to zero",
			field:   entity.LineItemFieldUnitPrice,
			raw:     "-10",
			wantErr: true,
			check: func(t *testing.T, item entity.LineItem) {
				if item.UnitPrice != 0 {
					t.Errorf("unit price = %v, want 0", item.UnitPrice)
				}
			},
		},
		{
			name:    "empty numeric input clamps to zero",
			field:   entity.LineItemFieldQuantity,
			raw:     "",
			wantErr: true,
			check: func(t *testing.T, item entity.LineItem) {
				if item.Quantity != 0 {
					t.Errorf("quantity = %v, want 0", item.Quantity)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := entity.ItemizedDocument{Items: []entity.LineItem{{Quantity: 1, UnitPrice: 5}}}
			err := doc.UpdateItem(0, tt.field, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			tt.check(t, doc.Items[0])

			// A bad edit must never corrupt the aggregate.
			totals := doc.Totals()
			if math.IsNaN(totals.Subtotal) || math.IsNaN(totals.Total) {
				t.Errorf("totals contain NaN after edit: %+v", totals)
			}
		})
	}
}

func TestItemizedDocument_UpdateItem_Errors(t *testing.T) {
	doc := entity.ItemizedDocument{Items: []entity.LineItem{{}}}

	if err := doc.UpdateItem(5, entity.LineItemFieldQuantity, "1"); !errors.Is(err, entity.ErrItemIndexOutOfRange) {
		t.Errorf("out-of-range err = %v, want ErrItemIndexOutOfRange", err)
	}
	if err := doc.UpdateItem(0, "color", "red"); !errors.Is(err, entity.ErrUnknownField) {
		t.Errorf("unknown field err = %v, want ErrUnknownField", err)
	}
}
