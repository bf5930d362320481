package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductLinkModel links a local product to its external platform entity.
// The comparable fields (name, quantity, price) are the local side of a
// reconciliation pass.
type ProductLinkModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_links_tenant_external"`
	ExternalID  string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_product_links_tenant_external"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Price       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	SyncEnabled bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for ProductLinkModel
func (ProductLinkModel) TableName() string {
	return "product_links"
}
