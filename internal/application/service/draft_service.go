package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/domain/entity"
	"github.com/finman-io/finman-gateway/internal/domain/gateway"
	"github.com/finman-io/finman-gateway/internal/domain/repository"
	"github.com/finman-io/finman-gateway/pkg/apperror"
	"github.com/finman-io/finman-gateway/pkg/pagination"
)

// DraftService manages in-progress itemized payment forms. Every
// mutation recomputes the draft's totals synchronously so the returned
// view always carries consistent aggregates; on submit the draft is
// posted to the receipt service and deleted once the backend has
// generated the receipt.
type DraftService struct {
	draftRepo      repository.DraftRepository
	gateway        gateway.ReceiptGateway
	defaultTaxRate float64
}

// NewDraftService creates a new draft service
func NewDraftService(draftRepo repository.DraftRepository, gw gateway.ReceiptGateway, defaultTaxRate float64) *DraftService {
	return &DraftService{
		draftRepo:      draftRepo,
		gateway:        gw,
		defaultTaxRate: defaultTaxRate,
	}
}

// DraftView is a draft together with its derived totals.
type DraftView struct {
	*entity.PaymentDraft
	Totals entity.DocumentTotals `json:"totals"`
}

func newDraftView(draft *entity.PaymentDraft) *DraftView {
	doc := draft.Document()
	return &DraftView{
		PaymentDraft: draft,
		Totals:       doc.Totals(),
	}
}

// CreateDraftInput represents the input for creating a payment draft
type CreateDraftInput struct {
	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string
	PaymentMethod string
	TaxRate       *float64
	Note          *string
}

// CreateDraft creates a new payment draft with a single empty line item.
func (s *DraftService) CreateDraft(ctx context.Context, input *CreateDraftInput) (*DraftView, error) {
	nextNum, err := s.draftRepo.GetNextReferenceNumber(ctx)
	if err != nil {
		return nil, err
	}

	taxRate := s.defaultTaxRate
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}
	if taxRate < 0 {
		taxRate = 0
	}

	draft := &entity.PaymentDraft{
		Reference:     fmt.Sprintf("DRF-%06d", nextNum),
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
		PaymentMethod: input.PaymentMethod,
		TaxRate:       taxRate,
		Note:          input.Note,
	}
	if err := s.draftRepo.Create(ctx, draft); err != nil {
		return nil, err
	}

	doc := entity.ItemizedDocument{TaxRate: taxRate}
	doc.AddItem()
	if err := s.saveDocument(ctx, draft, doc); err != nil {
		return nil, err
	}
	return s.getView(ctx, draft.ID)
}

// GetDraft retrieves a draft with its totals.
func (s *DraftService) GetDraft(ctx context.Context, id uuid.UUID) (*DraftView, error) {
	return s.getView(ctx, id)
}

// ListDraftsInput represents the input for listing drafts
type ListDraftsInput struct {
	Pagination *pagination.PaginationParams
	Search     string
}

// ListDrafts lists drafts with filtering
func (s *DraftService) ListDrafts(ctx context.Context, input *ListDraftsInput) (*pagination.PaginatedResult[DraftView], error) {
	drafts, total, err := s.draftRepo.List(ctx, &repository.DraftFilterParams{
		Pagination: input.Pagination,
		Search:     input.Search,
	})
	if err != nil {
		return nil, err
	}

	views := make([]DraftView, 0, len(drafts))
	for i := range drafts {
		views = append(views, *newDraftView(&drafts[i]))
	}

	pag := pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(views, pag), nil
}

// DeleteDraft removes a draft and its items.
func (s *DraftService) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	draft, err := s.draftRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if draft == nil {
		return apperror.NewNotFoundError("Draft")
	}
	return s.draftRepo.Delete(ctx, id)
}

// AddItem appends a fresh row (quantity 1, price 0, empty description).
func (s *DraftService) AddItem(ctx context.Context, draftID uuid.UUID) (*DraftView, error) {
	draft, doc, err := s.loadDocument(ctx, draftID)
	if err != nil {
		return nil, err
	}
	doc.AddItem()
	if err := s.saveDocument(ctx, draft, doc); err != nil {
		return nil, err
	}
	return s.getView(ctx, draftID)
}

// RemoveItem removes the row at index. An out-of-range index is a
// no-op; removing the last remaining row is allowed.
func (s *DraftService) RemoveItem(ctx context.Context, draftID uuid.UUID, index int) (*DraftView, error) {
	draft, doc, err := s.loadDocument(ctx, draftID)
	if err != nil {
		return nil, err
	}
	doc.RemoveItem(index)
	if err := s.saveDocument(ctx, draft, doc); err != nil {
		return nil, err
	}
	return s.getView(ctx, draftID)
}

// UpdateItem applies a raw form edit to one field of one row. Invalid
// numeric input is clamped to zero; the clamped value is persisted and
// the view is returned together with a validation error so the caller
// can surface the rejected input. The totals are consistent either way.
func (s *DraftService) UpdateItem(ctx context.Context, draftID uuid.UUID, index int, field entity.LineItemField, rawValue string) (*DraftView, error) {
	draft, doc, err := s.loadDocument(ctx, draftID)
	if err != nil {
		return nil, err
	}

	updateErr := doc.UpdateItem(index, field, rawValue)
	if updateErr != nil {
		if errors.Is(updateErr, entity.ErrItemIndexOutOfRange) {
			return nil, apperror.NewNotFoundError("Line item")
		}
		if errors.Is(updateErr, entity.ErrUnknownField) {
			return nil, apperror.NewBadRequestError(updateErr.Error())
		}
		// Parse failure: the clamped zero is already applied to the
		// document and is persisted below.
	}

	if err := s.saveDocument(ctx, draft, doc); err != nil {
		return nil, err
	}
	view, err := s.getView(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if updateErr != nil {
		return view, apperror.NewValidationError([]apperror.FieldError{
			{Field: string(field), Message: updateErr.Error()},
		})
	}
	return view, nil
}

// UpdateTaxRate replaces the draft's fractional tax rate.
func (s *DraftService) UpdateTaxRate(ctx context.Context, draftID uuid.UUID, rate float64) (*DraftView, error) {
	draft, err := s.draftRepo.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, apperror.NewNotFoundError("Draft")
	}
	if rate < 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "tax_rate", Message: "Tax rate must not be negative"},
		})
	}
	draft.TaxRate = rate
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, err
	}
	return s.getView(ctx, draftID)
}

// SubmitDraft posts the draft to the receipt service. An empty item
// list is rejected before any backend call. On success the draft is
// deleted and the backend-generated receipt returned.
func (s *DraftService) SubmitDraft(ctx context.Context, draftID uuid.UUID) (*entity.Receipt, error) {
	draft, err := s.draftRepo.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, apperror.NewNotFoundError("Draft")
	}
	if len(draft.Items) == 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "items", Message: "At least one line item is required"},
		})
	}

	doc := draft.Document()
	input := &gateway.GenerateReceiptInput{
		CustomerName:  draft.CustomerName,
		PaymentMethod: draft.PaymentMethod,
		TaxRate:       draft.TaxRate,
		Items:         doc.Items,
	}
	if draft.CustomerEmail != nil {
		input.CustomerEmail = *draft.CustomerEmail
	}
	if draft.CustomerPhone != nil {
		input.CustomerPhone = *draft.CustomerPhone
	}
	if draft.Note != nil {
		input.Note = *draft.Note
	}

	receipt, err := s.gateway.GenerateReceipt(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.draftRepo.Delete(ctx, draftID); err != nil {
		// The receipt exists on the backend; a leftover draft is
		// harmless and can be deleted later.
		return receipt, nil
	}
	return receipt, nil
}

func (s *DraftService) getView(ctx context.Context, id uuid.UUID) (*DraftView, error) {
	draft, err := s.draftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, apperror.NewNotFoundError("Draft")
	}
	return newDraftView(draft), nil
}

func (s *DraftService) loadDocument(ctx context.Context, id uuid.UUID) (*entity.PaymentDraft, entity.ItemizedDocument, error) {
	draft, err := s.draftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, entity.ItemizedDocument{}, err
	}
	if draft == nil {
		return nil, entity.ItemizedDocument{}, apperror.NewNotFoundError("Draft")
	}
	return draft, draft.Document(), nil
}

func (s *DraftService) saveDocument(ctx context.Context, draft *entity.PaymentDraft, doc entity.ItemizedDocument) error {
	items := make([]entity.PaymentDraftItem, 0, len(doc.Items))
	for i, item := range doc.Items {
		items = append(items, entity.PaymentDraftItem{
			DraftID:     draft.ID,
			Position:    i,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return s.draftRepo.ReplaceItems(ctx, draft.ID, items)
}
