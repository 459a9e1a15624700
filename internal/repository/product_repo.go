package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_v1/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)

	// 商品类型
	CreateType(ctx context.Context, t *model.ProductType) error
	GetTypeByID(ctx context.Context, id int64) (*model.ProductType, error)

	// 变体操作
	CreateVariant(ctx context.Context, variant *model.ProductVariant) error
	UpdateVariant(ctx context.Context, variant *model.ProductVariant) error
	GetVariantByID(ctx context.Context, id int64) (*model.ProductVariant, error)
	ListVariantsByProduct(ctx context.Context, productID int64) ([]model.ProductVariant, error)
	SKUTakenByOther(ctx context.Context, sku string, excludeVariantID int64) (bool, error)
	HardDeleteVariant(ctx context.Context, id int64) error

	// 价格缓存
	MinEnabledVariantPrice(ctx context.Context, productID int64) (int64, error)
	MinPriceByProduct(ctx context.Context) (map[int64]int64, error)

	// 库存
	UpsertStocks(ctx context.Context, stocks []model.Stock) error
	ListStocksByVariant(ctx context.Context, variantID int64) ([]model.Stock, error)

	// 运费档案归属
	ListByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	SetShippingProfile(ctx context.Context, productIDs []int64, profileID int64) error
	ReassignShippingProfile(ctx context.Context, fromProfileID, toProfileID int64) error

	// 事务
	WithTx(tx *gorm.DB) ProductRepository
	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 过滤条件 ====================

// ProductFilter 商品过滤条件
type ProductFilter struct {
	ProductTypeID int64
	IsPublished   *bool
	Keyword       string
	Page          int
	PageSize      int
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("ProductType").
		Preload("Variants").
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("ProductType").
		Preload("Variants").
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.ProductTypeID > 0 {
		query = query.Where("product_type_id = ?", filter.ProductTypeID)
	}
	if filter.IsPublished != nil {
		query = query.Where("is_published = ?", *filter.IsPublished)
	}
	if filter.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.
		Order("updated_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&products).Error

	return products, total, err
}

func (r *productRepo) CreateType(ctx context.Context, t *model.ProductType) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *productRepo) GetTypeByID(ctx context.Context, id int64) (*model.ProductType, error) {
	var t model.ProductType
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ==================== 变体 ====================

func (r *productRepo) CreateVariant(ctx context.Context, variant *model.ProductVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *productRepo) UpdateVariant(ctx context.Context, variant *model.ProductVariant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

func (r *productRepo) GetVariantByID(ctx context.Context, id int64) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *productRepo) ListVariantsByProduct(ctx context.Context, productID int64) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id").
		Find(&variants).Error
	return variants, err
}

func (r *productRepo) SKUTakenByOther(ctx context.Context, sku string, excludeVariantID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("sku = ? AND id <> ?", sku, excludeVariantID).
		Count(&count).Error
	return count > 0, err
}

// HardDeleteVariant 物理删除变体，基础变体在转为 variantful 时走这里
func (r *productRepo) HardDeleteVariant(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.ProductVariant{}, id).Error
}

// ==================== 价格缓存 ====================

func (r *productRepo) MinEnabledVariantPrice(ctx context.Context, productID int64) (int64, error) {
	var min *int64
	err := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Select("MIN(price_amount)").
		Where("product_id = ? AND is_enabled = ? AND is_base = ?", productID, true, false).
		Scan(&min).Error
	if err != nil {
		return 0, err
	}
	if min == nil {
		return 0, nil
	}
	return *min, nil
}

// MinPriceByProduct 一次聚合出全部商品的最低启用变体价，定时任务扫用
func (r *productRepo) MinPriceByProduct(ctx context.Context) (map[int64]int64, error) {
	type row struct {
		ProductID int64
		Price     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Select("product_id, MIN(price_amount) as price").
		Where("is_enabled = ? AND is_base = ?", true, false).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	prices := make(map[int64]int64, len(rows))
	for _, row := range rows {
		prices[row.ProductID] = row.Price
	}
	return prices, nil
}

// ==================== 库存 ====================

func (r *productRepo) UpsertStocks(ctx context.Context, stocks []model.Stock) error {
	if len(stocks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "variant_id"}, {Name: "warehouse_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&stocks).Error
}

func (r *productRepo) ListStocksByVariant(ctx context.Context, variantID int64) ([]model.Stock, error) {
	var stocks []model.Stock
	err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("warehouse_id").
		Find(&stocks).Error
	return stocks, err
}

func (r *productRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

// SetShippingProfile 批量改写一批商品的档案归属
func (r *productRepo) SetShippingProfile(ctx context.Context, productIDs []int64, profileID int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id IN ?", productIDs).
		Update("shipping_profile_id", profileID).Error
}

// ReassignShippingProfile 把一个档案下的全部商品挪到另一个档案，删档案前用
func (r *productRepo) ReassignShippingProfile(ctx context.Context, fromProfileID, toProfileID int64) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("shipping_profile_id = ?", fromProfileID).
		Update("shipping_profile_id", toProfileID).Error
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
