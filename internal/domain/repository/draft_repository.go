package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/domain/entity"
	"github.com/finman-io/finman-gateway/pkg/pagination"
)

// DraftFilterParams contains filtering parameters for draft queries
type DraftFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
}

// DraftRepository defines the interface for payment draft data operations
type DraftRepository interface {
	Create(ctx context.Context, draft *entity.PaymentDraft) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.PaymentDraft, error)
	Update(ctx context.Context, draft *entity.PaymentDraft) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *DraftFilterParams) ([]entity.PaymentDraft, int64, error)
	GetNextReferenceNumber(ctx context.Context) (int, error)
	ReplaceItems(ctx context.Context, draftID uuid.UUID, items []entity.PaymentDraftItem) error
}
