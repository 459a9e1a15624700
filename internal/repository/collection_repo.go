package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront_v1/internal/model"
)

// ==================== 接口定义 ====================

// CollectionRepository 集合仓储接口
type CollectionRepository interface {
	Create(ctx context.Context, collection *model.Collection) error
	GetByID(ctx context.Context, id int64) (*model.Collection, error)
	Update(ctx context.Context, collection *model.Collection) error
	Delete(ctx context.Context, id int64) error

	// 有序关联
	ListJoins(ctx context.Context, collectionID int64) ([]model.CollectionProduct, error)
	GetJoin(ctx context.Context, collectionID, productID int64) (*model.CollectionProduct, error)
	MaxSortOrder(ctx context.Context, collectionID int64) (int, error)
	CreateJoin(ctx context.Context, join *model.CollectionProduct) error
	DeleteJoins(ctx context.Context, collectionID int64, productIDs []int64) error
	UpdateSortOrders(ctx context.Context, orders map[int64]int) error

	// 事务
	WithTx(tx *gorm.DB) CollectionRepository
	Transaction(ctx context.Context, fn func(txRepo CollectionRepository) error) error
}

// ==================== 仓储实现 ====================

type collectionRepo struct {
	db *gorm.DB
}

// NewCollectionRepository 创建集合仓储
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepo{db: db}
}

func (r *collectionRepo) Create(ctx context.Context, collection *model.Collection) error {
	return r.db.WithContext(ctx).Create(collection).Error
}

func (r *collectionRepo) GetByID(ctx context.Context, id int64) (*model.Collection, error) {
	var collection model.Collection
	if err := r.db.WithContext(ctx).First(&collection, id).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *collectionRepo) Update(ctx context.Context, collection *model.Collection) error {
	return r.db.WithContext(ctx).Save(collection).Error
}

func (r *collectionRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Collection{}, id).Error
}

// ListJoins 取集合的全部关联，按排序位稳定排列
func (r *collectionRepo) ListJoins(ctx context.Context, collectionID int64) ([]model.CollectionProduct, error) {
	var joins []model.CollectionProduct
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("sort_order, id").
		Find(&joins).Error
	return joins, err
}

func (r *collectionRepo) GetJoin(ctx context.Context, collectionID, productID int64) (*model.CollectionProduct, error) {
	var join model.CollectionProduct
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND product_id = ?", collectionID, productID).
		First(&join).Error
	if err != nil {
		return nil, err
	}
	return &join, nil
}

func (r *collectionRepo) MaxSortOrder(ctx context.Context, collectionID int64) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&model.CollectionProduct{}).
		Select("MAX(sort_order)").
		Where("collection_id = ?", collectionID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

func (r *collectionRepo) CreateJoin(ctx context.Context, join *model.CollectionProduct) error {
	return r.db.WithContext(ctx).Create(join).Error
}

func (r *collectionRepo) DeleteJoins(ctx context.Context, collectionID int64, productIDs []int64) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("collection_id = ? AND product_id IN ?", collectionID, productIDs).
		Delete(&model.CollectionProduct{}).Error
}

// UpdateSortOrders 批量写回排序位，键为关联行 ID
func (r *collectionRepo) UpdateSortOrders(ctx context.Context, orders map[int64]int) error {
	for joinID, sortOrder := range orders {
		err := r.db.WithContext(ctx).Model(&model.CollectionProduct{}).
			Where("id = ?", joinID).
			Update("sort_order", sortOrder).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *collectionRepo) WithTx(tx *gorm.DB) CollectionRepository {
	return &collectionRepo{db: tx}
}

func (r *collectionRepo) Transaction(ctx context.Context, fn func(txRepo CollectionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
