package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/finman-io/finman-gateway/internal/domain/entity"
	domainRepo "github.com/finman-io/finman-gateway/internal/domain/repository"
	"gorm.io/gorm"
)

type draftRepository struct {
	db *gorm.DB
}

// NewDraftRepository creates a new payment draft repository
func NewDraftRepository(db *gorm.DB) domainRepo.DraftRepository {
	return &draftRepository{db: db}
}

func (r *draftRepository) Create(ctx context.Context, draft *entity.PaymentDraft) error {
	return r.db.WithContext(ctx).Create(draft).Error
}

func (r *draftRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.PaymentDraft, error) {
	var draft entity.PaymentDraft
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&draft, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepository) Update(ctx context.Context, draft *entity.PaymentDraft) error {
	return r.db.WithContext(ctx).Omit("Items").Save(draft).Error
}

func (r *draftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&entity.PaymentDraftItem{}, "draft_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&entity.PaymentDraft{}, "id = ?", id).Error
}

func (r *draftRepository) List(ctx context.Context, params *domainRepo.DraftFilterParams) ([]entity.PaymentDraft, int64, error) {
	var drafts []entity.PaymentDraft
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PaymentDraft{})

	if params.Search != "" {
		query = query.Where("reference ILIKE ? OR customer_name ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Find(&drafts).Error

	return drafts, total, err
}

func (r *draftRepository) GetNextReferenceNumber(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&entity.PaymentDraft{}).Count(&count).Error
	return int(count) + 1, err
}

// ReplaceItems rewrites a draft's rows in a transaction so an edit can
// never leave the row sequence half-applied.
func (r *draftRepository) ReplaceItems(ctx context.Context, draftID uuid.UUID, items []entity.PaymentDraftItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Delete(&entity.PaymentDraftItem{}, "draft_id = ?", draftID).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = uuid.Nil
			items[i].DraftID = draftID
			items[i].Position = i
		}
		return tx.Create(&items).Error
	})
}
