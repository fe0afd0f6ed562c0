package receiptapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/domain/entity"
	"github.com/finman-io/finman-gateway/internal/domain/enum"
)

// receiptPayload mirrors the receipt service's wire format for a
// persisted receipt.
type receiptPayload struct {
	ID            uuid.UUID          `json:"id"`
	ReceiptNumber string             `json:"receipt_number"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	Address       string             `json:"customer_address,omitempty"`
	Items         []itemPayload      `json:"items"`
	Subtotal      float64            `json:"subtotal"`
	TaxTotal      float64            `json:"tax_total"`
	Total         float64            `json:"total"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	Status        enum.ReceiptStatus `json:"status"`
	GeneratedAt   time.Time          `json:"generated_at"`
	VoidReason    string             `json:"void_reason,omitempty"`
}

type itemPayload struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// toEntity converts the wire payload into the domain read model. The
// backend's totals are copied verbatim, never recomputed.
func (p *receiptPayload) toEntity() *entity.Receipt {
	items := make([]entity.LineItem, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, entity.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return &entity.Receipt{
		ID:            p.ID,
		ReceiptNumber: p.ReceiptNumber,
		Customer: entity.ReceiptCustomer{
			Name:    p.CustomerName,
			Email:   p.CustomerEmail,
			Phone:   p.CustomerPhone,
			Address: p.Address,
		},
		Items:         items,
		Subtotal:      p.Subtotal,
		TaxTotal:      p.TaxTotal,
		Total:         p.Total,
		PaymentMethod: p.PaymentMethod,
		Status:        p.Status,
		GeneratedAt:   p.GeneratedAt,
		VoidReason:    p.VoidReason,
	}
}

type emailConfigPayload struct {
	Configured bool   `json:"configured"`
	SetupURL   string `json:"setup_url,omitempty"`
	Message    string `json:"message,omitempty"`
}

type messagePayload struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
