package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentDraft is an in-progress itemized payment form. Drafts live in
// the gateway's own database so a half-filled form survives a reload;
// once submitted to the receipt service the draft is deleted and the
// backend-issued receipt takes over.
type PaymentDraft struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Reference     string         `gorm:"size:100;unique;not null" json:"reference"`
	CustomerName  string         `gorm:"size:255" json:"customer_name"`
	CustomerEmail *string        `gorm:"size:255" json:"customer_email,omitempty"`
	CustomerPhone *string        `gorm:"size:50" json:"customer_phone,omitempty"`
	PaymentMethod string         `gorm:"size:50" json:"payment_method"`
	TaxRate       float64        `gorm:"type:decimal(6,4);default:0" json:"tax_rate"`
	Note          *string        `gorm:"type:text" json:"note,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []PaymentDraftItem `gorm:"foreignKey:DraftID" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new draft
func (d *PaymentDraft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PaymentDraft model
func (PaymentDraft) TableName() string {
	return "payment_drafts"
}

// Document assembles the draft's rows into an itemized document for
// total computation. Position order is retained.
func (d *PaymentDraft) Document() ItemizedDocument {
	doc := ItemizedDocument{
		Items:   make([]LineItem, 0, len(d.Items)),
		TaxRate: d.TaxRate,
	}
	for _, item := range d.Items {
		doc.Items = append(doc.Items, LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return doc
}

// PaymentDraftItem represents one line item row within a payment draft.
type PaymentDraftItem struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	DraftID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"draft_id"`
	Position    int            `gorm:"not null" json:"position"`
	Description string         `gorm:"size:255" json:"description"`
	Quantity    float64        `gorm:"type:decimal(12,3);default:0" json:"quantity"`
	UnitPrice   float64        `gorm:"type:decimal(15,2);default:0" json:"unit_price"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Draft PaymentDraft `gorm:"foreignKey:DraftID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new draft item
func (i *PaymentDraftItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PaymentDraftItem model
func (PaymentDraftItem) TableName() string {
	return "payment_draft_items"
}
