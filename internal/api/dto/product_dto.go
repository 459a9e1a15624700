package dto

// ==================== 请求 DTO ====================

// StockInput 变体在某仓库的库存输入
type StockInput struct {
	WarehouseID int64 `json:"warehouse_id" binding:"required"`
	Quantity    int   `json:"quantity"`
}

// VariantInput 变体输入，嵌在商品创建/更新里或单独提交
type VariantInput struct {
	ID         int64                 `json:"id"` // 更新已有变体时提供
	SKU        string                `json:"sku"`
	Price      *float64              `json:"price"` // 前端传小数, 后端转分
	CostPrice  *float64              `json:"cost_price"`
	Weight     *float64              `json:"weight"`
	Attributes []AttributeValueInput `json:"attributes"`
	Stocks     []StockInput          `json:"stocks"`
}

// ProductTypeCreateReq 创建商品类型并绑定适用属性
type ProductTypeCreateReq struct {
	Name                string  `json:"name" binding:"required,max=255"`
	Slug                string  `json:"slug"`
	HasVariants         bool    `json:"has_variants"`
	ProductAttributeIDs []int64 `json:"product_attribute_ids"`
	VariantAttributeIDs []int64 `json:"variant_attribute_ids"`
}

// CreateProductReq 创建商品请求
type CreateProductReq struct {
	ProductTypeID int64  `json:"product_type_id" binding:"required"`
	Name          string `json:"name" binding:"required,max=255"`
	Slug          string `json:"slug"`
	Description   string `json:"description"`
	IsPublished   bool   `json:"is_published"`

	Tags       []string              `json:"tags" binding:"max=13"`
	Attributes []AttributeValueInput `json:"attributes"`
	Variants   []VariantInput        `json:"variants"`

	// 归属集合
	CollectionIDs []int64 `json:"collection_ids"`
}

// UpdateProductReq 更新商品请求
type UpdateProductReq struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	IsPublished *bool                 `json:"is_published"`
	Tags        []string              `json:"tags" binding:"max=13"`
	Attributes  []AttributeValueInput `json:"attributes"`
	Variants    []VariantInput        `json:"variants"`
}

// ==================== 响应 DTO ====================

// VariantResp 变体
type VariantResp struct {
	ID        int64   `json:"id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	IsEnabled bool    `json:"is_enabled"`
	IsBase    bool    `json:"is_base"`
}

// ProductResp 商品
type ProductResp struct {
	ID                  int64         `json:"id"`
	Name                string        `json:"name"`
	Slug                string        `json:"slug"`
	IsPublished         bool          `json:"is_published"`
	VariantState        string        `json:"variant_state"`
	MinimalVariantPrice float64       `json:"minimal_variant_price"`
	Tags                []string      `json:"tags"`
	Variants            []VariantResp `json:"variants"`
}

// ProductListResp 商品列表响应
type ProductListResp struct {
	Code     int           `json:"code"`
	Message  string        `json:"message"`
	Data     []ProductResp `json:"data"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
