package model

// Collection 商品集合（运营配置的陈列分组）
type Collection struct {
	BaseModel
	Name        string `gorm:"size:255;not null"`
	Slug        string `gorm:"size:255;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	IsPublished bool   `gorm:"default:false"`
}

func (Collection) TableName() string {
	return "collections"
}

// CollectionProduct 集合与商品的有序关联
// SortOrder 为显式排序位，通过相对偏移的 reorder 操作调整
type CollectionProduct struct {
	BaseModel
	CollectionID int64 `gorm:"not null;uniqueIndex:idx_collection_product"`
	ProductID    int64 `gorm:"not null;uniqueIndex:idx_collection_product"`
	SortOrder    int   `gorm:"default:0;index"`
}

func (CollectionProduct) TableName() string {
	return "collection_products"
}
