package dto

// ==================== 请求 DTO ====================

// ShippingCountryInput 区域覆盖的国家输入
type ShippingCountryInput struct {
	Code      string   `json:"code" binding:"required,len=2"`
	Provinces []string `json:"provinces"`
}

// ZoneSaveReq 创建/更新区域并全量替换其国家
type ZoneSaveReq struct {
	Name      string                 `json:"name"`
	GroupID   int64                  `json:"group_id"`
	Countries []ShippingCountryInput `json:"countries"`
}

// GroupSaveReq 创建/更新仓库分组并调整成员
type GroupSaveReq struct {
	ShippingProfileID int64   `json:"shipping_profile_id"`
	Name              string  `json:"name"`
	AddWarehouses     []int64 `json:"add_warehouses"`
	RemoveWarehouses  []int64 `json:"remove_warehouses"`
}

// ProfileSaveReq 创建/更新运费档案并调整商品归属
type ProfileSaveReq struct {
	Name           string  `json:"name"`
	AddProducts    []int64 `json:"add_products"`
	RemoveProducts []int64 `json:"remove_products"`
}

// MethodSaveReq 创建/更新运费方式
type MethodSaveReq struct {
	ZoneID         int64    `json:"zone_id"`
	Name           string   `json:"name" binding:"required,max=255"`
	Type           string   `json:"type"`
	Price          *float64 `json:"price"`
	MinOrderPrice  *float64 `json:"min_order_price"`
	MaxOrderPrice  *float64 `json:"max_order_price"`
	MinOrderWeight *float64 `json:"min_order_weight"`
	MaxOrderWeight *float64 `json:"max_order_weight"`
}

// ==================== 响应 DTO ====================

// ShippingCountryResp 国家
type ShippingCountryResp struct {
	ID        int64    `json:"id"`
	Code      string   `json:"code"`
	Provinces []string `json:"provinces"`
}

// ZoneResp 区域
type ZoneResp struct {
	ID        int64                 `json:"id"`
	Name      string                `json:"name"`
	GroupID   int64                 `json:"group_id"`
	Countries []ShippingCountryResp `json:"countries"`
}

// GroupResp 仓库分组
type GroupResp struct {
	ID                int64   `json:"id"`
	ShippingProfileID int64   `json:"shipping_profile_id"`
	Name              string  `json:"name"`
	WarehouseIDs      []int64 `json:"warehouse_ids"`
	Deleted           bool    `json:"deleted"` // 本次操作清空成员导致分组自删
}
