package service_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/application/service"
	"github.com/finman-io/finman-gateway/internal/domain/entity"
	"github.com/finman-io/finman-gateway/internal/domain/enum"
	"github.com/finman-io/finman-gateway/internal/domain/gateway"
	"github.com/finman-io/finman-gateway/pkg/apperror"
)

// fakeGateway is an in-memory stand-in for the external receipt service.
type fakeGateway struct {
	mu sync.Mutex

	receipt *entity.Receipt
	getErr  error

	config *gateway.EmailConfigStatus
	cfgErr error

	pdf    []byte
	pdfErr error

	sendErr error
	voidErr error

	getCalls  int
	sendCalls int
	voidCalls int
	pdfCalls  int
	cfgCalls  int
	genCalls  int

	lastGenerate *gateway.GenerateReceiptInput

	lastEmail  string
	lastReason string

	// When set, VoidReceipt blocks until released.
	voidEntered chan struct{}
	voidRelease chan struct{}
}

func (f *fakeGateway) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	copied := *f.receipt
	return &copied, nil
}

func (f *fakeGateway) GenerateReceipt(ctx context.Context, input *gateway.GenerateReceiptInput) (*entity.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	f.lastGenerate = input
	if f.receipt == nil {
		return nil, errors.New("no receipt configured")
	}
	copied := *f.receipt
	return &copied, nil
}

func (f *fakeGateway) DownloadPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pdfCalls++
	return f.pdf, f.pdfErr
}

func (f *fakeGateway) SendEmail(ctx context.Context, id uuid.UUID, toEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	f.lastEmail = toEmail
	return f.sendErr
}

func (f *fakeGateway) VoidReceipt(ctx context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	entered := f.voidEntered
	release := f.voidRelease
	f.voidCalls++
	f.lastReason = reason
	err := f.voidErr
	if err == nil && f.receipt != nil {
		f.receipt.Status = enum.ReceiptStatusVoided
		f.receipt.VoidReason = reason
	}
	f.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}
	return err
}

func (f *fakeGateway) EmailConfigStatus(ctx context.Context) (*gateway.EmailConfigStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfgCalls++
	if f.cfgErr != nil {
		return nil, f.cfgErr
	}
	if f.config == nil {
		return &gateway.EmailConfigStatus{Configured: true}, nil
	}
	return f.config, nil
}

func testReceipt(id uuid.UUID) *entity.Receipt {
	return &entity.Receipt{
		ID:            id,
		ReceiptNumber: "RCP-20240101-0001",
		Customer: entity.ReceiptCustomer{
			Name:  "Wanjiku Traders",
			Email: "billing@wanjiku.example",
		},
		Items: []entity.LineItem{
			{Description: "Service fee", Quantity: 2, UnitPrice: 25000},
		},
		Subtotal:    50000,
		TaxTotal:    8000,
		Total:       58000,
		Status:      enum.ReceiptStatusGenerated,
		GeneratedAt: time.Now(),
	}
}

func TestReceiptService_GetReceipt_LoadFailure(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{getErr: apperror.ErrUpstreamUnavailable}
	svc := service.NewReceiptService(fake)

	receipt, err := svc.GetReceipt(context.Background(), id)
	if err == nil {
		t.Fatal("expected error")
	}
	if receipt != nil {
		t.Errorf("receipt = %+v, want nil on load failure", receipt)
	}
}

func TestReceiptService_GetReceipt_IdentifierMismatch(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{receipt: testReceipt(uuid.New())}
	svc := service.NewReceiptService(fake)

	receipt, err := svc.GetReceipt(context.Background(), id)
	if err == nil {
		t.Fatal("expected error for mismatched receipt identifier")
	}
	if receipt != nil {
		t.Errorf("mismatched payload must be discarded, got %+v", receipt)
	}
}

func TestReceiptService_Download(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{receipt: testReceipt(id), pdf: []byte("%PDF-1.7")}
	svc := service.NewReceiptService(fake)

	filename, data, err := svc.DownloadReceipt(context.Background(), id)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filename != "RCP-20240101-0001.pdf" {
		t.Errorf("filename = %q, want RCP-20240101-0001.pdf", filename)
	}
	if string(data) != "%PDF-1.7" {
		t.Errorf("data = %q", data)
	}
}

func TestReceiptService_Download_AvailableWhenVoided(t *testing.T) {
	id := uuid.New()
	receipt := testReceipt(id)
	receipt.Status = enum.ReceiptStatusVoided
	fake := &fakeGateway{receipt: receipt, pdf: []byte("pdf")}
	svc := service.NewReceiptService(fake)

	if _, _, err := svc.DownloadReceipt(context.Background(), id); err != nil {
		t.Fatalf("download of voided receipt: %v", err)
	}
}

func TestReceiptService_SendEmail_NotConfigured(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{
		receipt: testReceipt(id),
		config: &gateway.EmailConfigStatus{
			Configured: false,
			SetupURL:   "https://backend.example/settings/email",
		},
	}
	svc := service.NewReceiptService(fake)

	result, err := svc.SendEmail(context.Background(), &service.SendEmailInput{ReceiptID: id})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if result.Sent {
		t.Error("Sent = true with unconfigured delivery")
	}
	if result.SetupPrompt == nil || result.SetupPrompt.SetupURL == "" {
		t.Error("expected a setup prompt")
	}
	if fake.sendCalls != 0 {
		t.Errorf("send endpoint called %d times through an unconfigured channel", fake.sendCalls)
	}
}

func TestReceiptService_SendEmail_DefaultsToCustomerEmail(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{receipt: testReceipt(id)}
	svc := service.NewReceiptService(fake)

	result, err := svc.SendEmail(context.Background(), &service.SendEmailInput{ReceiptID: id})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !result.Sent {
		t.Error("Sent = false, want true")
	}
	if fake.lastEmail != "billing@wanjiku.example" {
		t.Errorf("destination = %q, want the customer's stored email", fake.lastEmail)
	}
}

func TestReceiptService_SendEmail_ExplicitDestinationWins(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{receipt: testReceipt(id)}
	svc := service.NewReceiptService(fake)

	_, err := svc.SendEmail(context.Background(), &service.SendEmailInput{
		ReceiptID: id,
		Email:     "accounts@other.example",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if fake.lastEmail != "accounts@other.example" {
		t.Errorf("destination = %q, want the explicit address", fake.lastEmail)
	}
}

func TestReceiptService_SendEmail_NoDestination(t *testing.T) {
	id := uuid.New()
	receipt := testReceipt(id)
	receipt.Customer.Email = ""
	fake := &fakeGateway{receipt: receipt}
	svc := service.NewReceiptService(fake)

	_, err := svc.SendEmail(context.Background(), &service.SendEmailInput{ReceiptID: id})
	if err == nil {
		t.Fatal("expected validation error without a destination")
	}
	if apperror.GetAppError(err).Code != http.StatusUnprocessableEntity {
		t.Errorf("code = %d, want 422", apperror.GetAppError(err).Code)
	}
	if fake.sendCalls != 0 {
		t.Errorf("send endpoint called %d times without a destination", fake.sendCalls)
	}
}

func TestReceiptService_SendEmail_UpstreamFailure(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{receipt: testReceipt(id), sendErr: apperror.ErrUpstreamUnavailable}
	svc := service.NewReceiptService(fake)

	_, err := svc.SendEmail(context.Background(), &service.SendEmailInput{ReceiptID: id})
	if err == nil {
		t.Fatal("expected error when the send fails upstream")
	}
}

func TestReceiptService_SendEmail_RefusedWhenVoided(t *testing.T) {
	id := uuid.New()
	receipt := testReceipt(id)
	receipt.Status = enum.ReceiptStatusVoided
	fake := &fakeGateway{receipt: receipt}
	svc := service.NewReceiptService(fake)

	_, err := svc.SendEmail(context.Background(), &service.SendEmailInput{ReceiptID: id})
	if !errors.Is(err, apperror.ErrReceiptVoided) {
		t.Fatalf("err = %v, want ErrReceiptVoided", err)
	}
	if fake.sendCalls != 0 {
		t.Errorf("send endpoint called %d times for a voided receipt", fake.sendCalls)
	}
}

func TestReceiptService_Void_EmptyReason(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{receipt: testReceipt(id)}
	svc := service.NewReceiptService(fake)

	_, err := svc.VoidReceipt(context.Background(), id, "   ")
	if err == nil {
		t.Fatal("expected validation error for empty reason")
	}
	if apperror.GetAppError(err).Code != http.StatusUnprocessableEntity {
		t.Errorf("code = %d, want 422", apperror.GetAppError(err).Code)
	}
	if fake.voidCalls != 0 {
		t.Errorf("void endpoint called %d times with empty reason", fake.voidCalls)
	}
	if fake.getCalls != 0 {
		t.Errorf("expected no backend calls at all, got %d fetches", fake.getCalls)
	}
}

func TestReceiptService_Void_AlreadyVoided(t *testing.T) {
	id := uuid.New()
	receipt := testReceipt(id)
	receipt.Status = enum.ReceiptStatusVoided
	fake := &fakeGateway{receipt: receipt}
	svc := service.NewReceiptService(fake)

	_, err := svc.VoidReceipt(context.Background(), id, "duplicate entry")
	if !errors.Is(err, apperror.ErrReceiptVoided) {
		t.Fatalf("err = %v, want ErrReceiptVoided", err)
	}
	if fake.voidCalls != 0 {
		t.Errorf("void endpoint called %d times for an already voided receipt", fake.voidCalls)
	}
}

func TestReceiptService_Void_Success(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{receipt: testReceipt(id)}
	svc := service.NewReceiptService(fake)

	receipt, err := svc.VoidReceipt(context.Background(), id, "customer refund")
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if receipt.Status != enum.ReceiptStatusVoided {
		t.Errorf("status = %v, want voided (backend state)", receipt.Status)
	}
	if fake.lastReason != "customer refund" {
		t.Errorf("reason = %q", fake.lastReason)
	}
	// One fetch for the precondition check, one to reconcile after.
	if fake.getCalls != 2 {
		t.Errorf("fetches = %d, want 2", fake.getCalls)
	}
}

func TestReceiptService_Void_UpstreamFailureReconciles(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{receipt: testReceipt(id), voidErr: apperror.ErrUpstreamRejected}
	svc := service.NewReceiptService(fake)

	receipt, err := svc.VoidReceipt(context.Background(), id, "wrong amount")
	if err == nil {
		t.Fatal("expected error when the backend refuses the void")
	}
	// The reconciled state still reflects the backend's status.
	if receipt == nil {
		t.Fatal("expected reconciled receipt alongside the error")
	}
	if receipt.Status != enum.ReceiptStatusGenerated {
		t.Errorf("status = %v, want unchanged generated", receipt.Status)
	}
	if fake.getCalls != 2 {
		t.Errorf("fetches = %d, want reconcile fetch after the failed void", fake.getCalls)
	}
}

func TestReceiptService_Void_DuplicateInFlight(t *testing.T) {
	id := uuid.New()
	fake := &fakeGateway{
		receipt:     testReceipt(id),
		voidEntered: make(chan struct{}),
		voidRelease: make(chan struct{}),
	}
	svc := service.NewReceiptService(fake)

	done := make(chan error, 1)
	go func() {
		_, err := svc.VoidReceipt(context.Background(), id, "first attempt")
		done <- err
	}()

	// Wait until the first void is inside the backend call, then try a
	// second one for the same receipt.
	<-fake.voidEntered
	_, err := svc.VoidReceipt(context.Background(), id, "second attempt")
	if !errors.Is(err, apperror.ErrOperationInFlight) {
		t.Errorf("err = %v, want ErrOperationInFlight", err)
	}

	close(fake.voidRelease)
	if err := <-done; err != nil {
		t.Fatalf("first void: %v", err)
	}
	if fake.voidCalls != 1 {
		t.Errorf("void endpoint called %d times, want 1", fake.voidCalls)
	}
}
