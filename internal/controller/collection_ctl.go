package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/service"
)

type CollectionController struct {
	collSvc *service.CollectionService
}

func NewCollectionController(collSvc *service.CollectionService) *CollectionController {
	return &CollectionController{collSvc: collSvc}
}

// CreateCollection 创建集合
// @Summary 创建集合
// @Tags Collection (集合)
// @Accept json
// @Produce json
// @Param request body dto.CollectionCreateReq true "集合参数"
// @Success 200 {object} map[string]interface{} "创建结果"
// @Router /api/v1/collections [post]
func (c *CollectionController) CreateCollection(ctx *gin.Context) {
	var req dto.CollectionCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	collection, err := c.collSvc.CreateCollection(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, gin.H{"id": collection.ID, "name": collection.Name, "slug": collection.Slug})
}

// AddProducts 向集合添加商品
// @Summary 向集合添加商品
// @Description 商品追加到集合末尾，已在集合内的跳过
// @Tags Collection (集合)
// @Accept json
// @Produce json
// @Param id path int true "集合ID"
// @Param request body dto.CollectionProductsReq true "商品列表"
// @Success 200 {object} map[string]string "添加结果"
// @Router /api/v1/collections/{id}/products [post]
func (c *CollectionController) AddProducts(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CollectionProductsReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if err := c.collSvc.AddProducts(ctx.Request.Context(), id, req.ProductIDs); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, gin.H{"message": "已添加"})
}

// RemoveProducts 把商品移出集合
// @Summary 把商品移出集合
// @Tags Collection (集合)
// @Accept json
// @Produce json
// @Param id path int true "集合ID"
// @Param request body dto.CollectionProductsReq true "商品列表"
// @Success 200 {object} map[string]string "移除结果"
// @Router /api/v1/collections/{id}/products [delete]
func (c *CollectionController) RemoveProducts(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CollectionProductsReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if err := c.collSvc.RemoveProducts(ctx.Request.Context(), id, req.ProductIDs); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, gin.H{"message": "已移除"})
}

// ReorderProducts 集合内商品重排
// @Summary 集合内商品重排
// @Description 每个 move 指定商品与相对偏移，0 为空操作；有商品不在集合内时整体失败
// @Tags Collection (集合)
// @Accept json
// @Produce json
// @Param id path int true "集合ID"
// @Param request body dto.ReorderProductsReq true "移动列表"
// @Success 200 {array} dto.CollectionProductResp "重排后的顺序"
// @Router /api/v1/collections/{id}/products/reorder [post]
func (c *CollectionController) ReorderProducts(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ReorderProductsReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if err := c.collSvc.ReorderProducts(ctx.Request.Context(), id, req.Moves); err != nil {
		respondError(ctx, err)
		return
	}

	joins, err := c.collSvc.ListProducts(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	resp := make([]dto.CollectionProductResp, 0, len(joins))
	for _, join := range joins {
		resp = append(resp, dto.CollectionProductResp{ProductID: join.ProductID, SortOrder: join.SortOrder})
	}
	respondOK(ctx, resp)
}
