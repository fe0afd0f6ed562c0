package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/domain/entity"
)

// EmailConfigStatus reports whether the receipt service has a working
// email delivery channel. When it does not, SetupURL points the user at
// the backend's configuration screen.
type EmailConfigStatus struct {
	Configured bool   `json:"configured"`
	SetupURL   string `json:"setup_url,omitempty"`
	Message    string `json:"message,omitempty"`
}

// GenerateReceiptInput is the payload posted to the receipt service when
// a payment draft is submitted. Totals are recomputed by the backend;
// the gateway's own computation is advisory display state only.
type GenerateReceiptInput struct {
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	TaxRate       float64           `json:"tax_rate"`
	Note          string            `json:"note,omitempty"`
	Items         []entity.LineItem `json:"items"`
}

// ReceiptGateway defines the operations the gateway needs from the
// external receipt/payment service. The service owns all receipt state;
// every mutation here is a request, never a local state change.
type ReceiptGateway interface {
	GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	GenerateReceipt(ctx context.Context, input *GenerateReceiptInput) (*entity.Receipt, error)
	DownloadPDF(ctx context.Context, id uuid.UUID) ([]byte, error)
	SendEmail(ctx context.Context, id uuid.UUID, toEmail string) error
	VoidReceipt(ctx context.Context, id uuid.UUID, reason string) error
	EmailConfigStatus(ctx context.Context) (*EmailConfigStatus, error)
}
