package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/domain/entity"
	"github.com/finman-io/finman-gateway/internal/domain/enum"
	"github.com/finman-io/finman-gateway/internal/domain/gateway"
	"github.com/finman-io/finman-gateway/pkg/apperror"
)

// ReceiptService mediates the receipt lifecycle (generated, sent,
// voided) against the external receipt service. All state transitions
// happen on the backend; this service validates preconditions locally,
// refuses actions the current status does not permit, and reconciles
// with the backend's authoritative state after every attempted
// mutation. A per-receipt in-flight guard suppresses duplicate
// concurrent mutations so a double-clicked void or send never reaches
// the backend twice.
type ReceiptService struct {
	gateway gateway.ReceiptGateway

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

// NewReceiptService creates a new receipt service
func NewReceiptService(gw gateway.ReceiptGateway) *ReceiptService {
	return &ReceiptService{
		gateway:  gw,
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// GetReceipt loads a receipt by id from the receipt service.
func (s *ReceiptService) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.gateway.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	// A payload for a different receipt than requested is discarded, so
	// a slow or misrouted upstream response can never be displayed
	// under the wrong identifier.
	if receipt.ID != id {
		return nil, apperror.NewUpstreamError(0, "Receipt service returned a different receipt than requested")
	}
	return receipt, nil
}

// PermittedActions returns the actions the receipt's current status allows.
func (s *ReceiptService) PermittedActions(ctx context.Context, id uuid.UUID) ([]enum.ReceiptAction, error) {
	receipt, err := s.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	return receipt.Status.PermittedActions(), nil
}

// DownloadReceipt fetches the rendered PDF. Download is a read-only
// side effect, not a state transition, and is available in every
// status, voided included.
func (s *ReceiptService) DownloadReceipt(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	receipt, err := s.GetReceipt(ctx, id)
	if err != nil {
		return "", nil, err
	}
	data, err := s.gateway.DownloadPDF(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return receipt.PDFFilename(), data, nil
}

// EmailConfig reports the backend's email delivery configuration status.
func (s *ReceiptService) EmailConfig(ctx context.Context) (*gateway.EmailConfigStatus, error) {
	return s.gateway.EmailConfigStatus(ctx)
}

// SendEmailInput carries a send-by-email request. Email may be empty,
// in which case the customer's stored address is used.
type SendEmailInput struct {
	ReceiptID uuid.UUID
	Email     string
}

// SendEmailResult is the outcome of a send attempt. When delivery is
// not configured on the backend, Sent is false and SetupPrompt carries
// the configuration pointer; no send was attempted.
type SendEmailResult struct {
	Sent        bool                       `json:"sent"`
	SetupPrompt *gateway.EmailConfigStatus `json:"setup_prompt,omitempty"`
	Receipt     *entity.Receipt            `json:"receipt,omitempty"`
}

// SendEmail delivers the receipt by email through the backend. The
// email-configuration check runs first: an unconfigured channel aborts
// before any send call. The destination defaults to the customer's
// stored email. On success the receipt is re-fetched so the returned
// status is the backend's, never an optimistic local guess.
func (s *ReceiptService) SendEmail(ctx context.Context, input *SendEmailInput) (*SendEmailResult, error) {
	if err := s.begin(input.ReceiptID); err != nil {
		return nil, err
	}
	defer s.end(input.ReceiptID)

	receipt, err := s.GetReceipt(ctx, input.ReceiptID)
	if err != nil {
		return nil, err
	}
	if !receipt.Status.Permits(enum.ReceiptActionSendEmail) {
		return nil, apperror.ErrReceiptVoided
	}

	cfg, err := s.gateway.EmailConfigStatus(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Configured {
		return &SendEmailResult{Sent: false, SetupPrompt: cfg, Receipt: receipt}, nil
	}

	destination := strings.TrimSpace(input.Email)
	if destination == "" {
		destination = strings.TrimSpace(receipt.Customer.Email)
	}
	if destination == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "email", Message: "A destination email address is required"},
		})
	}

	if err := s.gateway.SendEmail(ctx, input.ReceiptID, destination); err != nil {
		return nil, err
	}

	refreshed, err := s.GetReceipt(ctx, input.ReceiptID)
	if err != nil {
		// The send succeeded; surface the sent outcome even when the
		// reconciling fetch fails.
		return &SendEmailResult{Sent: true}, nil
	}
	return &SendEmailResult{Sent: true, Receipt: refreshed}, nil
}

// VoidReceipt voids the receipt with the given reason. An empty reason
// blocks the request before any backend call. Voided is terminal: a
// receipt already voided is refused locally. After any attempted void,
// success or failure, the authoritative state is re-fetched; the
// returned receipt reflects the backend's truth, never a local update.
func (s *ReceiptService) VoidReceipt(ctx context.Context, id uuid.UUID, reason string) (*entity.Receipt, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "reason", Message: "A void reason is required"},
		})
	}

	if err := s.begin(id); err != nil {
		return nil, err
	}
	defer s.end(id)

	receipt, err := s.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	if !receipt.Status.Permits(enum.ReceiptActionVoid) {
		return nil, apperror.ErrReceiptVoided
	}

	voidErr := s.gateway.VoidReceipt(ctx, id, strings.TrimSpace(reason))

	refreshed, refreshErr := s.GetReceipt(ctx, id)
	if voidErr != nil {
		// Reconciled state accompanies the error when obtainable so the
		// caller can keep displaying what the backend actually holds.
		return refreshed, voidErr
	}
	if refreshErr != nil {
		return nil, refreshErr
	}
	return refreshed, nil
}

// begin marks a receipt as having a mutation in flight. A second
// mutation for the same receipt is refused until the first completes.
func (s *ReceiptService) begin(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return apperror.ErrOperationInFlight
	}
	s.inflight[id] = struct{}{}
	return nil
}

func (s *ReceiptService) end(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}
