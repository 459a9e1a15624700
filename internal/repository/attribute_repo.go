package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_v1/internal/model"
)

// ==================== 接口定义 ====================

// AssignedValueRow 赋值关联持有的取值行（through 表与取值的联查结果）
type AssignedValueRow struct {
	AssignmentID int64
	model.AttributeValue
}

// AttributeRepository 属性仓储接口
type AttributeRepository interface {
	// 定义维护
	Create(ctx context.Context, attr *model.Attribute) error
	GetByID(ctx context.Context, id int64) (*model.Attribute, error)
	Update(ctx context.Context, attr *model.Attribute) error
	List(ctx context.Context, visibleOnly bool) ([]model.Attribute, error)

	// 批量解析：pk IN ids OR slug IN slugs，限定在候选集内
	ListByIDsOrSlugs(ctx context.Context, candidates []int64, ids []int64, slugs []string) ([]model.Attribute, error)

	// 商品类型的适用属性
	ListProductAttributesForType(ctx context.Context, productTypeID int64, visibleOnly bool) ([]model.Attribute, error)
	ListVariantAttributesForType(ctx context.Context, productTypeID int64, visibleOnly bool) ([]model.Attribute, error)
	BindProductAttributes(ctx context.Context, productTypeID int64, attributeIDs []int64) error
	BindVariantAttributes(ctx context.Context, productTypeID int64, attributeIDs []int64) error

	// 取值 get-or-create
	GetValueBySlug(ctx context.Context, attributeID int64, slug string) (*model.AttributeValue, error)
	InsertValueIgnoreConflict(ctx context.Context, value *model.AttributeValue) (created bool, err error)
	NextValueSortOrder(ctx context.Context, attributeID int64) (int, error)

	// 赋值关联
	GetProductAssignment(ctx context.Context, productID, attributeID int64) (*model.AssignedProductAttribute, error)
	CreateProductAssignment(ctx context.Context, a *model.AssignedProductAttribute) error
	ReplaceProductAssignmentValues(ctx context.Context, assignmentID int64, valueIDs []int64) error
	GetVariantAssignment(ctx context.Context, variantID, attributeID int64) (*model.AssignedVariantAttribute, error)
	CreateVariantAssignment(ctx context.Context, a *model.AssignedVariantAttribute) error
	ReplaceVariantAssignmentValues(ctx context.Context, assignmentID int64, valueIDs []int64) error

	// 读取侧批量装载（聚合器的三段查询）
	ListProductAssignments(ctx context.Context, productIDs []int64, visibleOnly bool) ([]model.AssignedProductAttribute, error)
	ListVariantAssignments(ctx context.Context, variantIDs []int64, visibleOnly bool) ([]model.AssignedVariantAttribute, error)
	ListProductAssignmentValues(ctx context.Context, assignmentIDs []int64) ([]AssignedValueRow, error)
	ListVariantAssignmentValues(ctx context.Context, assignmentIDs []int64) ([]AssignedValueRow, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Attribute, error)

	// 事务
	WithTx(tx *gorm.DB) AttributeRepository
	Transaction(ctx context.Context, fn func(txRepo AttributeRepository) error) error
}

// ==================== 仓储实现 ====================

type attributeRepo struct {
	db *gorm.DB
}

// NewAttributeRepository 创建属性仓储
func NewAttributeRepository(db *gorm.DB) AttributeRepository {
	return &attributeRepo{db: db}
}

func (r *attributeRepo) Create(ctx context.Context, attr *model.Attribute) error {
	return r.db.WithContext(ctx).Create(attr).Error
}

func (r *attributeRepo) GetByID(ctx context.Context, id int64) (*model.Attribute, error) {
	var attr model.Attribute
	if err := r.db.WithContext(ctx).First(&attr, id).Error; err != nil {
		return nil, err
	}
	return &attr, nil
}

func (r *attributeRepo) Update(ctx context.Context, attr *model.Attribute) error {
	return r.db.WithContext(ctx).Save(attr).Error
}

func (r *attributeRepo) List(ctx context.Context, visibleOnly bool) ([]model.Attribute, error) {
	var attrs []model.Attribute
	query := r.db.WithContext(ctx).Model(&model.Attribute{})
	if visibleOnly {
		query = query.Where("visible_in_storefront = ?", true)
	}
	err := query.Order("id").Find(&attrs).Error
	return attrs, err
}

// ListByIDsOrSlugs 候选集约束无条件生效：空候选集意味着没有任何属性可被引用，
// 此时必须返回空结果让调用方报未解析，而不是退化成全表查询
func (r *attributeRepo) ListByIDsOrSlugs(ctx context.Context, candidates []int64, ids []int64, slugs []string) ([]model.Attribute, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	var attrs []model.Attribute
	err := r.db.WithContext(ctx).Model(&model.Attribute{}).
		Where("id IN ?", candidates).
		Where(r.db.Where("id IN ?", ids).Or("slug IN ?", slugs)).
		Order("id").
		Find(&attrs).Error
	return attrs, err
}

func (r *attributeRepo) listAttributesForType(ctx context.Context, joinTable string, productTypeID int64, visibleOnly bool) ([]model.Attribute, error) {
	var attrs []model.Attribute
	query := r.db.WithContext(ctx).Model(&model.Attribute{}).
		Joins("JOIN "+joinTable+" at ON at.attribute_id = attributes.id").
		Where("at.product_type_id = ?", productTypeID)
	if visibleOnly {
		query = query.Where("attributes.visible_in_storefront = ?", true)
	}
	err := query.Order("attributes.id").Find(&attrs).Error
	return attrs, err
}

func (r *attributeRepo) ListProductAttributesForType(ctx context.Context, productTypeID int64, visibleOnly bool) ([]model.Attribute, error) {
	return r.listAttributesForType(ctx, "attribute_products", productTypeID, visibleOnly)
}

func (r *attributeRepo) ListVariantAttributesForType(ctx context.Context, productTypeID int64, visibleOnly bool) ([]model.Attribute, error) {
	return r.listAttributesForType(ctx, "attribute_variants", productTypeID, visibleOnly)
}

func (r *attributeRepo) BindProductAttributes(ctx context.Context, productTypeID int64, attributeIDs []int64) error {
	if len(attributeIDs) == 0 {
		return nil
	}
	rows := make([]model.AttributeProduct, 0, len(attributeIDs))
	for _, id := range attributeIDs {
		rows = append(rows, model.AttributeProduct{AttributeID: id, ProductTypeID: productTypeID})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *attributeRepo) BindVariantAttributes(ctx context.Context, productTypeID int64, attributeIDs []int64) error {
	if len(attributeIDs) == 0 {
		return nil
	}
	rows := make([]model.AttributeVariant, 0, len(attributeIDs))
	for _, id := range attributeIDs {
		rows = append(rows, model.AttributeVariant{AttributeID: id, ProductTypeID: productTypeID})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// ==================== 取值 ====================

func (r *attributeRepo) GetValueBySlug(ctx context.Context, attributeID int64, slug string) (*model.AttributeValue, error) {
	var value model.AttributeValue
	err := r.db.WithContext(ctx).
		Where("attribute_id = ? AND slug = ?", attributeID, slug).
		First(&value).Error
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// InsertValueIgnoreConflict 插入取值，(attribute_id, slug) 冲突时静默跳过
// 两个并发调用方可能争抢同一个 slug，调用方在 created=false 时重新查询一次
func (r *attributeRepo) InsertValueIgnoreConflict(ctx context.Context, value *model.AttributeValue) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attribute_id"}, {Name: "slug"}},
		DoNothing: true,
	}).Create(value)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *attributeRepo) NextValueSortOrder(ctx context.Context, attributeID int64) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&model.AttributeValue{}).
		Select("MAX(sort_order)").
		Where("attribute_id = ?", attributeID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

// ==================== 赋值关联 ====================

func (r *attributeRepo) GetProductAssignment(ctx context.Context, productID, attributeID int64) (*model.AssignedProductAttribute, error) {
	var a model.AssignedProductAttribute
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND attribute_id = ?", productID, attributeID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attributeRepo) CreateProductAssignment(ctx context.Context, a *model.AssignedProductAttribute) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ReplaceProductAssignmentValues 将关联的取值集合整体替换为 valueIDs，按输入顺序写排序位
// through 行物理删除，避免软删除残留撞唯一索引
func (r *attributeRepo) ReplaceProductAssignmentValues(ctx context.Context, assignmentID int64, valueIDs []int64) error {
	if err := r.db.WithContext(ctx).Unscoped().
		Where("assignment_id = ?", assignmentID).
		Delete(&model.AssignedProductAttributeValue{}).Error; err != nil {
		return err
	}
	if len(valueIDs) == 0 {
		return nil
	}
	rows := make([]model.AssignedProductAttributeValue, 0, len(valueIDs))
	for i, valueID := range valueIDs {
		rows = append(rows, model.AssignedProductAttributeValue{
			AssignmentID: assignmentID,
			ValueID:      valueID,
			SortOrder:    i,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *attributeRepo) GetVariantAssignment(ctx context.Context, variantID, attributeID int64) (*model.AssignedVariantAttribute, error) {
	var a model.AssignedVariantAttribute
	err := r.db.WithContext(ctx).
		Where("variant_id = ? AND attribute_id = ?", variantID, attributeID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attributeRepo) CreateVariantAssignment(ctx context.Context, a *model.AssignedVariantAttribute) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *attributeRepo) ReplaceVariantAssignmentValues(ctx context.Context, assignmentID int64, valueIDs []int64) error {
	if err := r.db.WithContext(ctx).Unscoped().
		Where("assignment_id = ?", assignmentID).
		Delete(&model.AssignedVariantAttributeValue{}).Error; err != nil {
		return err
	}
	if len(valueIDs) == 0 {
		return nil
	}
	rows := make([]model.AssignedVariantAttributeValue, 0, len(valueIDs))
	for i, valueID := range valueIDs {
		rows = append(rows, model.AssignedVariantAttributeValue{
			AssignmentID: assignmentID,
			ValueID:      valueID,
			SortOrder:    i,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ==================== 读取侧批量装载 ====================

// ListProductAssignments 一次查出一批商品的全部赋值关联
// visibleOnly 时联表过滤前台不可见属性，与后续两段查询保持同一过滤口径
func (r *attributeRepo) ListProductAssignments(ctx context.Context, productIDs []int64, visibleOnly bool) ([]model.AssignedProductAttribute, error) {
	var rows []model.AssignedProductAttribute
	query := r.db.WithContext(ctx).Model(&model.AssignedProductAttribute{}).
		Where("assigned_product_attributes.product_id IN ?", productIDs)
	if visibleOnly {
		query = query.
			Joins("JOIN attributes a ON a.id = assigned_product_attributes.attribute_id").
			Where("a.visible_in_storefront = ?", true)
	}
	err := query.Order("assigned_product_attributes.id").Find(&rows).Error
	return rows, err
}

func (r *attributeRepo) ListVariantAssignments(ctx context.Context, variantIDs []int64, visibleOnly bool) ([]model.AssignedVariantAttribute, error) {
	var rows []model.AssignedVariantAttribute
	query := r.db.WithContext(ctx).Model(&model.AssignedVariantAttribute{}).
		Where("assigned_variant_attributes.variant_id IN ?", variantIDs)
	if visibleOnly {
		query = query.
			Joins("JOIN attributes a ON a.id = assigned_variant_attributes.attribute_id").
			Where("a.visible_in_storefront = ?", true)
	}
	err := query.Order("assigned_variant_attributes.id").Find(&rows).Error
	return rows, err
}

func (r *attributeRepo) ListProductAssignmentValues(ctx context.Context, assignmentIDs []int64) ([]AssignedValueRow, error) {
	var rows []AssignedValueRow
	err := r.db.WithContext(ctx).Model(&model.AssignedProductAttributeValue{}).
		Select("assigned_product_attribute_values.assignment_id, av.*").
		Joins("JOIN attribute_values av ON av.id = assigned_product_attribute_values.value_id").
		Where("assigned_product_attribute_values.assignment_id IN ?", assignmentIDs).
		Order("av.sort_order, av.id").
		Scan(&rows).Error
	return rows, err
}

func (r *attributeRepo) ListVariantAssignmentValues(ctx context.Context, assignmentIDs []int64) ([]AssignedValueRow, error) {
	var rows []AssignedValueRow
	err := r.db.WithContext(ctx).Model(&model.AssignedVariantAttributeValue{}).
		Select("assigned_variant_attribute_values.assignment_id, av.*").
		Joins("JOIN attribute_values av ON av.id = assigned_variant_attribute_values.value_id").
		Where("assigned_variant_attribute_values.assignment_id IN ?", assignmentIDs).
		Order("av.sort_order, av.id").
		Scan(&rows).Error
	return rows, err
}

func (r *attributeRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.Attribute, error) {
	var attrs []model.Attribute
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&attrs).Error
	return attrs, err
}

func (r *attributeRepo) WithTx(tx *gorm.DB) AttributeRepository {
	return &attributeRepo{db: tx}
}

func (r *attributeRepo) Transaction(ctx context.Context, fn func(txRepo AttributeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
