package entity

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// LineItemField identifies an editable field of a line item.
type LineItemField string

const (
	LineItemFieldDescription LineItemField = "description"
	LineItemFieldQuantity    LineItemField = "quantity"
	LineItemFieldUnitPrice   LineItemField = "unit_price"
)

var (
	// ErrUnknownField is returned when an edit names a field that does not exist
	ErrUnknownField = errors.New("unknown line item field")
	// ErrItemIndexOutOfRange is returned by UpdateItem for a position that does not exist
	ErrItemIndexOutOfRange = errors.New("line item index out of range")
)

// LineItem represents a single billable row on an itemized document.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Amount returns quantity × unit price rounded to 2 decimal places.
// NaN, infinite or negative inputs count as zero so a single bad row
// can never corrupt the aggregate.
func (li LineItem) Amount() float64 {
	q := sanitizeAmount(li.Quantity)
	p := sanitizeAmount(li.UnitPrice)
	amount, _ := decimal.NewFromFloat(q).Mul(decimal.NewFromFloat(p)).Round(2).Float64()
	return amount
}

// DocumentTotals holds the derived monetary aggregates of a document.
type DocumentTotals struct {
	Subtotal  float64 `json:"subtotal"`
	TaxAmount float64 `json:"tax_amount"`
	Total     float64 `json:"total"`
}

// ItemizedDocument is an ordered list of line items plus a fractional
// tax rate (0.16 for 16%). Order is insertion order and is meaningful
// for display. An empty document is legal while it is being edited;
// submission policy is the caller's concern.
type ItemizedDocument struct {
	Items   []LineItem `json:"items"`
	TaxRate float64    `json:"tax_rate"`
}

// AddItem appends a fresh row: quantity 1, unit price 0, empty description.
func (d *ItemizedDocument) AddItem() {
	d.Items = append(d.Items, LineItem{Quantity: 1})
}

// RemoveItem removes the item at the given position, preserving the
// relative order of the remaining items. An out-of-range index is a
// no-op. Removing the last item is allowed.
func (d *ItemizedDocument) RemoveItem(index int) {
	if index < 0 || index >= len(d.Items) {
		return
	}
	d.Items = append(d.Items[:index], d.Items[index+1:]...)
}

// UpdateItem applies a raw form edit to one field of the item at index.
// Description is stored verbatim. Quantity and unit price are parsed as
// floating-point; an unparsable or negative value is clamped to zero and
// the parse failure is reported to the caller so the UI can surface it.
// The stored document is always left in a consistent state.
func (d *ItemizedDocument) UpdateItem(index int, field LineItemField, rawValue string) error {
	if index < 0 || index >= len(d.Items) {
		return ErrItemIndexOutOfRange
	}

	switch field {
	case LineItemFieldDescription:
		d.Items[index].Description = rawValue
		return nil
	case LineItemFieldQuantity:
		value, err := parseAmount(rawValue)
		d.Items[index].Quantity = value
		return err
	case LineItemFieldUnitPrice:
		value, err := parseAmount(rawValue)
		d.Items[index].UnitPrice = value
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// SetTaxRate replaces the fractional tax rate. Negative rates clamp to zero.
func (d *ItemizedDocument) SetTaxRate(rate float64) {
	d.TaxRate = sanitizeAmount(rate)
}

// Totals recomputes subtotal, tax amount and grand total from the
// currently present items. The computation is synchronous and pure.
func (d *ItemizedDocument) Totals() DocumentTotals {
	subtotal := decimal.Zero
	for _, item := range d.Items {
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Amount()))
	}

	rate := decimal.NewFromFloat(sanitizeAmount(d.TaxRate))
	tax := subtotal.Mul(rate).Round(2)
	total := subtotal.Add(tax)

	sub, _ := subtotal.Float64()
	taxAmount, _ := tax.Float64()
	grand, _ := total.Float64()
	return DocumentTotals{
		Subtotal:  sub,
		TaxAmount: taxAmount,
		Total:     grand,
	}
}

// parseAmount converts raw form input into a non-negative amount.
// On failure it returns 0 together with the parse error; the zero value
// keeps totals well-defined regardless of what the caller does with
// the error.
func parseAmount(raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q", raw)
	}
	if sanitized := sanitizeAmount(value); sanitized != value {
		return sanitized, fmt.Errorf("negative or non-finite value %q", raw)
	}
	return value, nil
}

// sanitizeAmount maps NaN, infinities and negatives to zero.
func sanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
