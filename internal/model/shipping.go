package model

import "github.com/lib/pq"

// ==================== 运费档案 ====================

// ShippingProfile 运费档案，商品按档案归属计算运费
// Default 档案受保护不可删除，商品移出其他档案时回落到它
type ShippingProfile struct {
	BaseModel
	Name    string `gorm:"size:255;not null"`
	Default bool   `gorm:"default:false"`
}

func (ShippingProfile) TableName() string {
	return "shipping_profiles"
}

// ShippingProfileWarehouseGroup 档案下的仓库分组
// 同一档案内一个仓库至多属于一个分组；分组没有仓库时立即删除
type ShippingProfileWarehouseGroup struct {
	BaseModel
	ShippingProfileID int64            `gorm:"index;not null"`
	ShippingProfile   *ShippingProfile `gorm:"foreignKey:ShippingProfileID"`
	Name              string           `gorm:"size:255"`
}

func (ShippingProfileWarehouseGroup) TableName() string {
	return "shipping_profile_warehouse_groups"
}

// ==================== 仓库 ====================

type Warehouse struct {
	BaseModel
	Name string `gorm:"size:255;not null"`
	Slug string `gorm:"size:255;uniqueIndex;not null"`
}

func (Warehouse) TableName() string {
	return "warehouses"
}

// ShippingGroupWarehouse 仓库分组成员关系
type ShippingGroupWarehouse struct {
	BaseModel
	GroupID     int64 `gorm:"not null;uniqueIndex:idx_group_warehouse"`
	WarehouseID int64 `gorm:"not null;uniqueIndex:idx_group_warehouse"`
}

func (ShippingGroupWarehouse) TableName() string {
	return "shipping_group_warehouses"
}

// ==================== 运费区域 ====================

// ShippingZone 运费区域，属于一个仓库分组
type ShippingZone struct {
	BaseModel
	Name    string                         `gorm:"size:255;not null"`
	GroupID int64                          `gorm:"index;not null"`
	Group   *ShippingProfileWarehouseGroup `gorm:"foreignKey:GroupID"`

	Countries []ShippingCountry `gorm:"foreignKey:ZoneID"`
	Methods   []ShippingMethod  `gorm:"foreignKey:ZoneID"`
}

func (ShippingZone) TableName() string {
	return "shipping_zones"
}

// ShippingCountry 区域覆盖的国家与省份
// 同一仓库分组内，country+province 组合不得被多个区域占用
type ShippingCountry struct {
	BaseModel
	ZoneID    int64          `gorm:"not null;uniqueIndex:idx_zone_country"`
	Code      string         `gorm:"size:2;not null;uniqueIndex:idx_zone_country"`
	Provinces pq.StringArray `gorm:"type:text[]"`
}

func (ShippingCountry) TableName() string {
	return "shipping_countries"
}

// ==================== 运费方式 ====================

// 运费方式类型
const (
	ShippingMethodGeneral = "general"
	ShippingMethodPrice   = "price"
	ShippingMethodWeight  = "weight"
)

type ShippingMethod struct {
	BaseModel
	ZoneID int64  `gorm:"index;not null"`
	Name   string `gorm:"size:255;not null"`
	Type   string `gorm:"size:20;default:general"`

	PriceAmount int64 `gorm:"default:0"`

	// --- 按价格分段 ---
	MinOrderPriceAmount *int64
	MaxOrderPriceAmount *int64

	// --- 按重量分段 ---
	MinOrderWeight *float64
	MaxOrderWeight *float64
}

func (ShippingMethod) TableName() string {
	return "shipping_methods"
}
