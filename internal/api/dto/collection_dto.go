package dto

// ==================== 请求 DTO ====================

// CollectionCreateReq 创建集合
type CollectionCreateReq struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	IsPublished bool    `json:"is_published"`
	ProductIDs  []int64 `json:"product_ids"`
}

// CollectionProductsReq 向集合添加/移除商品
type CollectionProductsReq struct {
	ProductIDs []int64 `json:"product_ids" binding:"required,min=1"`
}

// MoveProductInput 单条重排移动
// SortOrder 为相对偏移：+1 前移一位，-1 后移一位，0 不动
type MoveProductInput struct {
	ProductID int64 `json:"product_id" binding:"required"`
	SortOrder int   `json:"sort_order"`
}

// ReorderProductsReq 集合内商品重排
type ReorderProductsReq struct {
	Moves []MoveProductInput `json:"moves" binding:"required,min=1"`
}

// ==================== 响应 DTO ====================

// CollectionProductResp 集合内的一个商品位
type CollectionProductResp struct {
	ProductID int64 `json:"product_id"`
	SortOrder int   `json:"sort_order"`
}
