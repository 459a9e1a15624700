package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/middleware"
	"storefront_v1/internal/service"
)

type AttributeController struct {
	attrSvc   *service.AttributeService
	loaderSvc *service.AttributeLoaderService
}

func NewAttributeController(attrSvc *service.AttributeService, loaderSvc *service.AttributeLoaderService) *AttributeController {
	return &AttributeController{attrSvc: attrSvc, loaderSvc: loaderSvc}
}

// ==================== 定义维护 ====================

// CreateAttribute 创建属性定义
// @Summary 创建属性定义
// @Tags Attribute (属性)
// @Accept json
// @Produce json
// @Param request body dto.AttributeCreateReq true "属性参数"
// @Success 200 {object} dto.AttributeResp "创建结果"
// @Failure 400 {object} map[string]string "参数错误"
// @Router /api/v1/attributes [post]
func (c *AttributeController) CreateAttribute(ctx *gin.Context) {
	var req dto.AttributeCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	attr, err := c.attrSvc.CreateAttribute(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, dto.AttributeResp{
		ID:                  attr.ID,
		Name:                attr.Name,
		Slug:                attr.Slug,
		ValueRequired:       attr.ValueRequired,
		VisibleInStorefront: attr.VisibleInStorefront,
	})
}

// ListAttributes 属性列表
// @Summary 属性列表
// @Description 无目录管理权限时只返回前台可见的属性
// @Tags Attribute (属性)
// @Produce json
// @Success 200 {array} dto.AttributeResp "属性列表"
// @Router /api/v1/attributes [get]
func (c *AttributeController) ListAttributes(ctx *gin.Context) {
	visibleOnly := !middleware.CanManageCatalog(ctx)
	attrs, err := c.attrSvc.ListAttributes(ctx.Request.Context(), visibleOnly)
	if err != nil {
		respondError(ctx, err)
		return
	}
	resp := make([]dto.AttributeResp, 0, len(attrs))
	for _, attr := range attrs {
		resp = append(resp, dto.AttributeResp{
			ID:                  attr.ID,
			Name:                attr.Name,
			Slug:                attr.Slug,
			ValueRequired:       attr.ValueRequired,
			VisibleInStorefront: attr.VisibleInStorefront,
		})
	}
	respondOK(ctx, resp)
}

// ==================== 读取侧批量装载 ====================

// BatchProductAttributes 批量查询商品的已赋值属性
// @Summary 批量查询商品的已赋值属性
// @Description ids 为逗号分隔的商品 ID 列表，结果与输入同序同长度
// @Tags Attribute (属性)
// @Produce json
// @Param ids query string true "商品 ID 列表, 如 1,2,3"
// @Success 200 {array} dto.SelectedAttributesResp "分组结果"
// @Router /api/v1/products/attributes/batch [get]
func (c *AttributeController) BatchProductAttributes(ctx *gin.Context) {
	ownerIDs, ok := parseIDList(ctx)
	if !ok {
		return
	}
	visibleOnly := !middleware.CanManageCatalog(ctx)
	groups, err := c.loaderSvc.BatchLoadProductAttributes(ctx.Request.Context(), ownerIDs, visibleOnly)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, toSelectedResp(ownerIDs, groups))
}

// BatchVariantAttributes 批量查询变体的已赋值属性
// @Summary 批量查询变体的已赋值属性
// @Tags Attribute (属性)
// @Produce json
// @Param ids query string true "变体 ID 列表, 如 1,2,3"
// @Success 200 {array} dto.SelectedAttributesResp "分组结果"
// @Router /api/v1/variants/attributes/batch [get]
func (c *AttributeController) BatchVariantAttributes(ctx *gin.Context) {
	ownerIDs, ok := parseIDList(ctx)
	if !ok {
		return
	}
	visibleOnly := !middleware.CanManageCatalog(ctx)
	groups, err := c.loaderSvc.BatchLoadVariantAttributes(ctx.Request.Context(), ownerIDs, visibleOnly)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, toSelectedResp(ownerIDs, groups))
}

// parseIDList 解析 ?ids=1,2,3，允许重复
func parseIDList(ctx *gin.Context) ([]int64, bool) {
	raw := ctx.Query("ids")
	if raw == "" {
		return []int64{}, true
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 ID: " + part})
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func toSelectedResp(ownerIDs []int64, groups [][]service.SelectedAttribute) []dto.SelectedAttributesResp {
	resp := make([]dto.SelectedAttributesResp, 0, len(ownerIDs))
	for i, ownerID := range ownerIDs {
		item := dto.SelectedAttributesResp{OwnerID: ownerID, Attributes: []dto.SelectedAttributeResp{}}
		for _, group := range groups[i] {
			values := make([]dto.AttributeValueResp, 0, len(group.Values))
			for _, v := range group.Values {
				values = append(values, dto.AttributeValueResp{
					ID:        v.ID,
					Name:      v.Name,
					Slug:      v.Slug,
					SortOrder: v.SortOrder,
				})
			}
			item.Attributes = append(item.Attributes, dto.SelectedAttributeResp{
				Attribute: dto.AttributeResp{
					ID:                  group.Attribute.ID,
					Name:                group.Attribute.Name,
					Slug:                group.Attribute.Slug,
					ValueRequired:       group.Attribute.ValueRequired,
					VisibleInStorefront: group.Attribute.VisibleInStorefront,
				},
				Values: values,
			})
		}
		resp = append(resp, item)
	}
	return resp
}
