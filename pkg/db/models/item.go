package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is a catalog entry plus its live stock count. StockQty only moves
// through guarded SQL updates so it can never go negative.
type Item struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	PricePaise  int64     `gorm:"column:price_paise;not null"`
	WeightGrams int       `gorm:"column:weight_grams;not null;default:0"`
	StockQty    int       `gorm:"column:stock_qty;not null;default:0"`
	Active      bool      `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
