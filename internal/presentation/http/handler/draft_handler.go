package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/application/service"
	"github.com/finman-io/finman-gateway/internal/domain/entity"
	"github.com/finman-io/finman-gateway/internal/presentation/http/dto/response"
	"github.com/finman-io/finman-gateway/pkg/apperror"
	"github.com/finman-io/finman-gateway/pkg/pagination"
)

// DraftHandler handles payment draft HTTP requests
type DraftHandler struct {
	draftService *service.DraftService
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(draftService *service.DraftService) *DraftHandler {
	return &DraftHandler{draftService: draftService}
}

// CreateDraftRequest represents the create draft request body
type CreateDraftRequest struct {
	CustomerName  string   `json:"customer_name"`
	CustomerEmail *string  `json:"customer_email"`
	CustomerPhone *string  `json:"customer_phone"`
	PaymentMethod string   `json:"payment_method"`
	TaxRate       *float64 `json:"tax_rate"`
	Note          *string  `json:"note"`
}

// UpdateItemRequest represents a raw single-field line item edit
type UpdateItemRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// UpdateTaxRequest represents a tax rate change. The rate is a
// fraction (0.16 = 16%); tax_percentage is accepted from older forms
// and divided by 100. tax_rate wins when both are present.
type UpdateTaxRequest struct {
	TaxRate       *float64 `json:"tax_rate"`
	TaxPercentage *float64 `json:"tax_percentage"`
}

func (r *UpdateTaxRequest) rate() (float64, bool) {
	if r.TaxRate != nil {
		return *r.TaxRate, true
	}
	if r.TaxPercentage != nil {
		return *r.TaxPercentage / 100, true
	}
	return 0, false
}

// Create handles creating a payment draft
// @Summary Create Draft
// @Description Create a new payment draft with one empty line item
// @Tags drafts
// @Accept json
// @Produce json
// @Param request body CreateDraftRequest true "Draft data"
// @Success 201 {object} response.APIResponse
// @Router /drafts [post]
func (h *DraftHandler) Create(c *gin.Context) {
	var req CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.draftService.CreateDraft(c.Request.Context(), &service.CreateDraftInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		PaymentMethod: req.PaymentMethod,
		TaxRate:       req.TaxRate,
		Note:          req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Draft created successfully", view)
}

// List handles listing payment drafts
// @Summary List Drafts
// @Description Get all payment drafts with pagination and filtering
// @Tags drafts
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Param search query string false "Search term"
// @Success 200 {object} response.APIResponse
// @Router /drafts [get]
func (h *DraftHandler) List(c *gin.Context) {
	page := 1
	perPage := 15
	if p := c.Query("page"); p != "" {
		if parsed, err := parsePositiveInt(p); err == nil {
			page = parsed
		}
	}
	if pp := c.Query("per_page"); pp != "" {
		if parsed, err := parsePositiveInt(pp); err == nil {
			perPage = parsed
		}
	}

	result, err := h.draftService.ListDrafts(c.Request.Context(), &service.ListDraftsInput{
		Pagination: &pagination.PaginationParams{
			Page:    page,
			PerPage: perPage,
		},
		Search: c.Query("search"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Drafts retrieved successfully", result)
}

// Get handles getting a single draft
// @Summary Get Draft
// @Description Get a draft with its derived totals
// @Tags drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.APIResponse
// @Router /drafts/{id} [get]
func (h *DraftHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid draft ID")
		return
	}

	view, err := h.draftService.GetDraft(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Draft retrieved successfully", view)
}

// Delete handles deleting a draft
// @Summary Delete Draft
// @Description Delete a payment draft and its items
// @Tags drafts
// @Param id path string true "Draft ID"
// @Success 204
// @Router /drafts/{id} [delete]
func (h *DraftHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid draft ID")
		return
	}

	if err := h.draftService.DeleteDraft(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// AddItem handles appending an empty line item row
// @Summary Add Draft Item
// @Description Append a fresh line item (quantity 1, price 0)
// @Tags drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.APIResponse
// @Router /drafts/{id}/items [post]
func (h *DraftHandler) AddItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid draft ID")
		return
	}

	view, err := h.draftService.AddItem(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item added successfully", view)
}

// UpdateItem handles a raw single-field edit of a line item
// @Summary Update Draft Item
// @Description Update one field of a line item from raw form input
// @Tags drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param index path int true "Item position"
// @Param request body UpdateItemRequest true "Field edit"
// @Success 200 {object} response.APIResponse
// @Router /drafts/{id}/items/{index} [put]
func (h *DraftHandler) UpdateItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid draft ID")
		return
	}

	index, err := parseNonNegativeInt(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "Invalid item index")
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.draftService.UpdateItem(c.Request.Context(), id, index, entity.LineItemField(req.Field), req.Value)
	if err != nil {
		if view != nil && apperror.IsAppError(err) {
			// Clamped edit: return the resulting state with the
			// validation failure so the form can show both.
			response.ErrorWithData(c, err, view)
			return
		}
		response.Error(c, err)
		return
	}

	response.OK(c, "Item updated successfully", view)
}

// RemoveItem handles removing a line item row
// @Summary Remove Draft Item
// @Description Remove the line item at a position; out-of-range is a no-op
// @Tags drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Param index path int true "Item position"
// @Success 200 {object} response.APIResponse
// @Router /drafts/{id}/items/{index} [delete]
func (h *DraftHandler) RemoveItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid draft ID")
		return
	}

	index, err := parseNonNegativeInt(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "Invalid item index")
		return
	}

	view, err := h.draftService.RemoveItem(c.Request.Context(), id, index)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item removed successfully", view)
}

// UpdateTax handles replacing the draft's tax rate
// @Summary Update Draft Tax Rate
// @Description Replace the fractional VAT rate applied to the draft
// @Tags drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param request body UpdateTaxRequest true "Tax rate"
// @Success 200 {object} response.APIResponse
// @Router /drafts/{id}/tax [put]
func (h *DraftHandler) UpdateTax(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid draft ID")
		return
	}

	var req UpdateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rate, ok := req.rate()
	if !ok {
		response.BadRequest(c, "Either tax_rate or tax_percentage is required")
		return
	}

	view, err := h.draftService.UpdateTaxRate(c.Request.Context(), id, rate)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Tax rate updated successfully", view)
}

// Submit handles submitting a draft to the receipt service
// @Summary Submit Draft
// @Description Post the draft to the receipt service and return the generated receipt
// @Tags drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 201 {object} response.APIResponse
// @Router /drafts/{id}/submit [post]
func (h *DraftHandler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid draft ID")
		return
	}

	receipt, err := h.draftService.SubmitDraft(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Receipt generated successfully", receipt)
}
