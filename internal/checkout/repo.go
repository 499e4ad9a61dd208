package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowlabs/chow-backend/pkg/db/models"
)

// ItemsRepository reads the catalog rows checkout prices against.
type ItemsRepository interface {
	WithTx(tx *gorm.DB) ItemsRepository
	FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
	ListActiveItems(ctx context.Context) ([]models.Item, error)
}

type itemsRepository struct {
	db *gorm.DB
}

// NewItemsRepository builds an items repository bound to the provided DB.
func NewItemsRepository(db *gorm.DB) ItemsRepository {
	return &itemsRepository{db: db}
}

func (r *itemsRepository) WithTx(tx *gorm.DB) ItemsRepository {
	if tx == nil {
		return r
	}
	return &itemsRepository{db: tx}
}

func (r *itemsRepository) FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemsRepository) ListActiveItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
