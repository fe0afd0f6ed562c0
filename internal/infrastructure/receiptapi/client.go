package receiptapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/config"
	"github.com/finman-io/finman-gateway/internal/domain/entity"
	"github.com/finman-io/finman-gateway/internal/domain/gateway"
	"github.com/finman-io/finman-gateway/pkg/apperror"
)

// Client talks to the external receipt/payment service over HTTP. It
// implements gateway.ReceiptGateway. Transport failures are mapped to
// apperror.ErrUpstreamUnavailable; upstream business errors keep their
// message and, where meaningful, their status code.
type Client struct {
	http *resty.Client
}

// NewClient creates a receipt service client from configuration.
func NewClient(cfg *config.ReceiptAPIConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// Retry only transport failures, and only for reads. A
			// delivered response is the backend's answer even when it
			// is an error, and a send or void that timed out may have
			// been applied already; replaying it could send the same
			// email or void twice.
			if err == nil {
				return false
			}
			return resp != nil && resp.Request.Method == http.MethodGet
		})

	if cfg.Token != "" {
		httpClient.SetAuthScheme("Bearer")
		httpClient.SetAuthToken(cfg.Token)
	}

	return &Client{http: httpClient}
}

var _ gateway.ReceiptGateway = (*Client)(nil)

// GetReceipt fetches a receipt by id.
func (c *Client) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	var payload receiptPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&payload).
		Get(fmt.Sprintf("/receipts/%s", id))
	if err != nil {
		return nil, transportError(err)
	}
	if resp.IsError() {
		return nil, upstreamError(resp)
	}
	return payload.toEntity(), nil
}

// GenerateReceipt posts a submitted payment draft and returns the
// receipt the backend created for it.
func (c *Client) GenerateReceipt(ctx context.Context, input *gateway.GenerateReceiptInput) (*entity.Receipt, error) {
	var payload receiptPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(input).
		SetResult(&payload).
		Post("/receipts")
	if err != nil {
		return nil, transportError(err)
	}
	if resp.IsError() {
		return nil, upstreamError(resp)
	}
	return payload.toEntity(), nil
}

// DownloadPDF fetches the rendered receipt document as raw bytes.
func (c *Client) DownloadPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/pdf").
		Get(fmt.Sprintf("/receipts/%s/pdf", id))
	if err != nil {
		return nil, transportError(err)
	}
	if resp.IsError() {
		return nil, upstreamError(resp)
	}
	return resp.Body(), nil
}

// SendEmail asks the backend to deliver the receipt to the address.
func (c *Client) SendEmail(ctx context.Context, id uuid.UUID, toEmail string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"email": toEmail}).
		Post(fmt.Sprintf("/receipts/%s/email", id))
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return upstreamError(resp)
	}
	return nil
}

// VoidReceipt asks the backend to void the receipt with the given reason.
func (c *Client) VoidReceipt(ctx context.Context, id uuid.UUID, reason string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"reason": reason}).
		Post(fmt.Sprintf("/receipts/%s/void", id))
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return upstreamError(resp)
	}
	return nil
}

// EmailConfigStatus reports whether the backend can deliver email.
func (c *Client) EmailConfigStatus(ctx context.Context) (*gateway.EmailConfigStatus, error) {
	var payload emailConfigPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&payload).
		Get("/settings/email")
	if err != nil {
		return nil, transportError(err)
	}
	if resp.IsError() {
		return nil, upstreamError(resp)
	}
	return &gateway.EmailConfigStatus{
		Configured: payload.Configured,
		SetupURL:   payload.SetupURL,
		Message:    payload.Message,
	}, nil
}

func transportError(err error) error {
	return fmt.Errorf("%w: %v", apperror.ErrUpstreamUnavailable, err)
}

func upstreamError(resp *resty.Response) error {
	var payload messagePayload
	message := ""
	if jsonErr := json.Unmarshal(resp.Body(), &payload); jsonErr == nil {
		message = payload.Message
		if message == "" {
			message = payload.Error
		}
	}
	return apperror.NewUpstreamError(resp.StatusCode(), message)
}
