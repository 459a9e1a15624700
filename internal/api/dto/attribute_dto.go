package dto

// ==================== 请求 DTO ====================

// AttributeValueInput 单个属性的赋值输入
// ID 与 Slug 二选一；Values 为原始文本，取值不存在时会被惰性创建
type AttributeValueInput struct {
	ID     int64    `json:"id"`
	Slug   string   `json:"slug"`
	Values []string `json:"values" binding:"required"`
}

// AttributeCreateReq 创建属性定义
type AttributeCreateReq struct {
	Name                string `json:"name" binding:"required,max=255"`
	Slug                string `json:"slug"`
	ValueRequired       bool   `json:"value_required"`
	VisibleInStorefront *bool  `json:"visible_in_storefront"`
}

// ==================== 响应 DTO ====================

// AttributeResp 属性定义
type AttributeResp struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Slug                string `json:"slug"`
	ValueRequired       bool   `json:"value_required"`
	VisibleInStorefront bool   `json:"visible_in_storefront"`
}

// AttributeValueResp 属性取值
type AttributeValueResp struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	SortOrder int    `json:"sort_order"`
}

// SelectedAttributeResp 读取侧的分组结果：一个属性与它在该归属对象上的取值
type SelectedAttributeResp struct {
	Attribute AttributeResp        `json:"attribute"`
	Values    []AttributeValueResp `json:"values"`
}

// SelectedAttributesResp 单个归属对象（商品或变体）的全部分组
type SelectedAttributesResp struct {
	OwnerID    int64                   `json:"owner_id"`
	Attributes []SelectedAttributeResp `json:"attributes"`
}
