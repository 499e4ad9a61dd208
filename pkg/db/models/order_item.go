package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem captures the snapshot of each line within an order. Price and
// weight are copied from the catalog at checkout so later edits do not change
// historical orders.
type OrderItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ItemID          uuid.UUID `gorm:"column:item_id;type:uuid;not null"`
	Name            string    `gorm:"column:name;not null"`
	Qty             int       `gorm:"column:qty;not null"`
	UnitPricePaise  int64     `gorm:"column:unit_price_paise;not null"`
	UnitWeightGrams int       `gorm:"column:unit_weight_grams;not null;default:0"`
	TotalPaise      int64     `gorm:"column:total_paise;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
