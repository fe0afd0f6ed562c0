package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/application/service"
	"github.com/finman-io/finman-gateway/internal/presentation/http/dto/response"
	"github.com/finman-io/finman-gateway/pkg/apperror"
)

// ReceiptHandler handles receipt-related HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// SendEmailRequest represents the send-by-email request body
type SendEmailRequest struct {
	Email string `json:"email"`
}

// VoidReceiptRequest represents the void request body
type VoidReceiptRequest struct {
	Reason string `json:"reason"`
}

// Get handles loading a single receipt
// @Summary Get Receipt
// @Description Get a receipt by ID from the receipt service
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} response.APIResponse
// @Router /receipts/{id} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt retrieved successfully", receipt)
}

// Actions handles listing the permitted actions for a receipt
// @Summary Get Receipt Actions
// @Description Get the actions permitted by the receipt's current status
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} response.APIResponse
// @Router /receipts/{id}/actions [get]
func (h *ReceiptHandler) Actions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid receipt ID")
		return
	}

	actions, err := h.receiptService.PermittedActions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Actions retrieved successfully", gin.H{"actions": actions})
}

// Download handles fetching the rendered receipt PDF
// @Summary Download Receipt
// @Description Download the rendered receipt document
// @Tags receipts
// @Produce application/pdf
// @Param id path string true "Receipt ID"
// @Success 200 {file} binary
// @Router /receipts/{id}/download [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid receipt ID")
		return
	}

	filename, data, err := h.receiptService.DownloadReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// SendEmail handles sending a receipt by email
// @Summary Send Receipt Email
// @Description Send the receipt to an email address, defaulting to the customer's
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param request body SendEmailRequest false "Destination address"
// @Success 200 {object} response.APIResponse
// @Router /receipts/{id}/email [post]
func (h *ReceiptHandler) SendEmail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid receipt ID")
		return
	}

	var req SendEmailRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	result, err := h.receiptService.SendEmail(c.Request.Context(), &service.SendEmailInput{
		ReceiptID: id,
		Email:     req.Email,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if !result.Sent {
		// Email delivery is not configured upstream; surface the setup
		// prompt instead of a send confirmation.
		response.ErrorWithData(c, apperror.ErrEmailNotConfigured, result)
		return
	}

	response.OK(c, "Receipt email sent successfully", result)
}

// Void handles voiding a receipt
// @Summary Void Receipt
// @Description Void a receipt with a reason; voiding is terminal
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param request body VoidReceiptRequest true "Void reason"
// @Success 200 {object} response.APIResponse
// @Router /receipts/{id}/void [post]
func (h *ReceiptHandler) Void(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid receipt ID")
		return
	}

	var req VoidReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	receipt, err := h.receiptService.VoidReceipt(c.Request.Context(), id, req.Reason)
	if err != nil {
		if receipt != nil {
			// The void failed but the reconciled state is available.
			response.ErrorWithData(c, err, receipt)
			return
		}
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt voided successfully", receipt)
}

// EmailConfig handles checking the backend's email delivery configuration
// @Summary Get Email Configuration Status
// @Description Check whether email delivery is configured on the receipt service
// @Tags receipts
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /receipts/email-config [get]
func (h *ReceiptHandler) EmailConfig(c *gin.Context) {
	status, err := h.receiptService.EmailConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Email configuration retrieved successfully", status)
}
