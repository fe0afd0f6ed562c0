package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/domain/enum"
)

// ReceiptCustomer holds the customer block of a persisted receipt.
// Only the name is guaranteed to be present.
type ReceiptCustomer struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Receipt is the read model of a receipt persisted by the external
// receipt service. The service is the single source of truth: items are
// immutable once generated, the monetary totals are the backend's
// authoritative values and are never recomputed here, and the struct is
// held only for the lifetime of a request.
type Receipt struct {
	ID            uuid.UUID          `json:"id"`
	ReceiptNumber string             `json:"receipt_number"`
	Customer      ReceiptCustomer    `json:"customer"`
	Items         []LineItem         `json:"items"`
	Subtotal      float64            `json:"subtotal"`
	TaxTotal      float64            `json:"tax_total"`
	Total         float64            `json:"total"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	Status        enum.ReceiptStatus `json:"status"`
	GeneratedAt   time.Time          `json:"generated_at"`
	VoidReason    string             `json:"void_reason,omitempty"`
}

// PDFFilename returns the download filename for the rendered document.
func (r *Receipt) PDFFilename() string {
	return r.ReceiptNumber + ".pdf"
}
