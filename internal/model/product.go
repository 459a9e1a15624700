package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ==================== 商品类型 ====================

// ProductType 商品类型，决定商品/变体可用的属性集合
type ProductType struct {
	BaseModel
	Name        string `gorm:"size:255;not null"`
	Slug        string `gorm:"size:255;uniqueIndex;not null"`
	HasVariants bool   `gorm:"default:true"`
}

func (ProductType) TableName() string {
	return "product_types"
}

// ==================== 商品 ====================

// 商品变体状态：variantless 商品仅持有占位基础变体，
// 首个真实变体创建时转为 variantful 并删除基础变体
const (
	ProductVariantless = "variantless"
	ProductVariantful  = "variantful"
)

type Product struct {
	BaseModel
	ProductTypeID int64        `gorm:"index;not null"`
	ProductType   *ProductType `gorm:"foreignKey:ProductTypeID"`

	// --- 基本信息 ---
	Name        string `gorm:"size:255;not null"`
	Slug        string `gorm:"size:255;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	IsPublished bool   `gorm:"default:false"`

	// --- 标签 (Postgres Array) ---
	Tags pq.StringArray `gorm:"type:text[]"`

	// --- 变体状态 ---
	VariantState  string `gorm:"size:20;default:variantless"`
	BaseVariantID *int64 // variantless 阶段的占位变体

	// --- 价格缓存 ---
	MinimalVariantPriceAmount int64  `gorm:"default:0"` // 最便宜启用变体的价格（分）
	CurrencyCode              string `gorm:"size:5;default:USD"`

	// --- 运费归属 ---
	ShippingProfileID int64 `gorm:"index;default:0"`

	// --- 关联关系 ---
	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "products"
}

// ==================== 变体 ====================

type ProductVariant struct {
	BaseModel
	ProductID int64    `gorm:"index;not null"`
	Product   *Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	// --- 标识 ---
	SKU  string `gorm:"size:100;index"`
	Name string `gorm:"size:255"` // 由赋值属性生成的展示名

	// --- 价格（分） ---
	PriceAmount     int64  `gorm:"default:0"`
	CostPriceAmount int64  `gorm:"default:0"`
	CompareAtAmount int64  `gorm:"default:0"`
	CurrencyCode    string `gorm:"size:5;default:USD"`

	// --- 物流与库存 ---
	Weight           float64 `gorm:"default:0"`
	RequiresShipping bool    `gorm:"default:true"`
	TrackInventory   bool    `gorm:"default:true"`
	IsEnabled        bool    `gorm:"default:true"`
	IsBase           bool    `gorm:"default:false"` // 占位基础变体

	// --- 赋值快照 ---
	// {"color":["red"]}，仅用于排错展示，真实关联在 assigned_variant_attributes
	ValueMap datatypes.JSON `gorm:"type:jsonb"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// ==================== 库存 ====================

// Stock 变体在某仓库的库存，按 (variant, warehouse) 唯一
type Stock struct {
	BaseModel
	VariantID   int64 `gorm:"not null;uniqueIndex:idx_stock_variant_warehouse"`
	WarehouseID int64 `gorm:"not null;uniqueIndex:idx_stock_variant_warehouse"`
	Quantity    int   `gorm:"default:0"`
}

func (Stock) TableName() string {
	return "stocks"
}
