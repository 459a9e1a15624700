package model

// Attribute 属性定义（如 "Color"）
// 属性由目录管理员维护，商品/变体只引用、不拥有
type Attribute struct {
	BaseModel
	Name string `gorm:"size:255;not null"`
	Slug string `gorm:"size:255;uniqueIndex;not null"` // 人类可读的唯一键

	// --- 行为开关 ---
	ValueRequired       bool `gorm:"default:false"` // 商品必须为其提供值
	VisibleInStorefront bool `gorm:"default:true"`  // 前台是否可见（无目录管理权限的读取按此过滤）
}

func (Attribute) TableName() string {
	return "attributes"
}

// AttributeValue 属性的具体取值（如 "Red"）
// slug 由原始文本 slug 化得到，按 (attribute_id, slug) 唯一
// 取值在首次被赋给商品/变体时惰性创建（get-or-create），不是独立的管理动作
type AttributeValue struct {
	BaseModel
	AttributeID int64      `gorm:"index;not null;uniqueIndex:idx_attr_value_slug"`
	Attribute   *Attribute `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name        string     `gorm:"size:255;not null"`
	Slug        string     `gorm:"size:255;not null;uniqueIndex:idx_attr_value_slug"`
	SortOrder   int        `gorm:"default:0"` // 读取时的确定性排序
}

func (AttributeValue) TableName() string {
	return "attribute_values"
}

// ==================== 属性与商品类型的适用关系 ====================

// AttributeProduct 属性对商品维度的适用关系（按商品类型）
type AttributeProduct struct {
	BaseModel
	AttributeID   int64 `gorm:"not null;uniqueIndex:idx_attrproduct"`
	ProductTypeID int64 `gorm:"not null;uniqueIndex:idx_attrproduct"`
}

func (AttributeProduct) TableName() string {
	return "attribute_products"
}

// AttributeVariant 属性对变体维度的适用关系（按商品类型）
type AttributeVariant struct {
	BaseModel
	AttributeID   int64 `gorm:"not null;uniqueIndex:idx_attrvariant"`
	ProductTypeID int64 `gorm:"not null;uniqueIndex:idx_attrvariant"`
}

func (AttributeVariant) TableName() string {
	return "attribute_variants"
}

// ==================== 赋值关联 ====================

// AssignedProductAttribute 商品与属性的赋值关联
// 每个 (attribute, product) 至多一行
type AssignedProductAttribute struct {
	BaseModel
	ProductID   int64 `gorm:"not null;uniqueIndex:idx_assigned_product_attr"`
	AttributeID int64 `gorm:"not null;uniqueIndex:idx_assigned_product_attr"`
}

func (AssignedProductAttribute) TableName() string {
	return "assigned_product_attributes"
}

// AssignedProductAttributeValue 赋值关联持有的取值（through 表，带排序）
type AssignedProductAttributeValue struct {
	BaseModel
	AssignmentID int64 `gorm:"not null;index;uniqueIndex:idx_apav"`
	ValueID      int64 `gorm:"not null;uniqueIndex:idx_apav"`
	SortOrder    int   `gorm:"default:0"` // 按输入顺序写入
}

func (AssignedProductAttributeValue) TableName() string {
	return "assigned_product_attribute_values"
}

// AssignedVariantAttribute 变体与属性的赋值关联
type AssignedVariantAttribute struct {
	BaseModel
	VariantID   int64 `gorm:"not null;uniqueIndex:idx_assigned_variant_attr"`
	AttributeID int64 `gorm:"not null;uniqueIndex:idx_assigned_variant_attr"`
}

func (AssignedVariantAttribute) TableName() string {
	return "assigned_variant_attributes"
}

// AssignedVariantAttributeValue 变体赋值关联持有的取值
type AssignedVariantAttributeValue struct {
	BaseModel
	AssignmentID int64 `gorm:"not null;index;uniqueIndex:idx_avav"`
	ValueID      int64 `gorm:"not null;uniqueIndex:idx_avav"`
	SortOrder    int   `gorm:"default:0"`
}

func (AssignedVariantAttributeValue) TableName() string {
	return "assigned_variant_attribute_values"
}
