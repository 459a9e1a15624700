package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
	"storefront_v1/internal/service"
)

type ProductController struct {
	productSvc *service.ProductService
}

func NewProductController(productSvc *service.ProductService) *ProductController {
	return &ProductController{productSvc: productSvc}
}

// ==================== 商品类型 ====================

// CreateProductType 创建商品类型
// @Summary 创建商品类型
// @Description 创建商品类型并绑定商品/变体维度的适用属性
// @Tags Product (商品)
// @Accept json
// @Produce json
// @Param request body dto.ProductTypeCreateReq true "类型参数"
// @Success 200 {object} map[string]interface{} "创建结果"
// @Router /api/v1/product-types [post]
func (c *ProductController) CreateProductType(ctx *gin.Context) {
	var req dto.ProductTypeCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	t, err := c.productSvc.CreateProductType(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, gin.H{"id": t.ID, "name": t.Name, "slug": t.Slug})
}

// ==================== 商品 ====================

// CreateProduct 创建商品
// @Summary 创建商品
// @Description 创建商品，属性校验失败整体拒绝；变体错误按下标累积返回
// @Tags Product (商品)
// @Accept json
// @Produce json
// @Param request body dto.CreateProductReq true "商品参数"
// @Success 200 {object} dto.ProductResp "创建结果"
// @Failure 400 {object} map[string]interface{} "校验失败"
// @Router /api/v1/products [post]
func (c *ProductController) CreateProduct(ctx *gin.Context) {
	var req dto.CreateProductReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	product, err := c.productSvc.CreateProduct(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, toProductResp(product))
}

// UpdateProduct 更新商品
// @Summary 更新商品
// @Tags Product (商品)
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param request body dto.UpdateProductReq true "更新参数"
// @Success 200 {object} dto.ProductResp "更新结果"
// @Router /api/v1/products/{id} [put]
func (c *ProductController) UpdateProduct(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	product, err := c.productSvc.UpdateProduct(ctx.Request.Context(), id, &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, toProductResp(product))
}

// GetProduct 商品详情
// @Summary 商品详情
// @Tags Product (商品)
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} dto.ProductResp "商品详情"
// @Router /api/v1/products/{id} [get]
func (c *ProductController) GetProduct(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	product, err := c.productSvc.GetProduct(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, toProductResp(product))
}

// ListProducts 商品列表
// @Summary 商品列表
// @Tags Product (商品)
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param keyword query string false "名称关键词"
// @Success 200 {object} dto.ProductListResp "商品列表"
// @Router /api/v1/products [get]
func (c *ProductController) ListProducts(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	filter := repository.ProductFilter{
		Keyword:  ctx.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	}
	if typeID, err := strconv.ParseInt(ctx.Query("product_type_id"), 10, 64); err == nil {
		filter.ProductTypeID = typeID
	}

	products, total, err := c.productSvc.ListProducts(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err)
		return
	}
	data := make([]dto.ProductResp, 0, len(products))
	for i := range products {
		data = append(data, toProductResp(&products[i]))
	}
	ctx.JSON(http.StatusOK, dto.ProductListResp{
		Code:     0,
		Message:  "ok",
		Data:     data,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// DeleteProduct 删除商品
// @Summary 删除商品
// @Tags Product (商品)
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} map[string]string "删除结果"
// @Router /api/v1/products/{id} [delete]
func (c *ProductController) DeleteProduct(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.productSvc.DeleteProduct(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, gin.H{"deleted": id})
}

// ==================== 变体 ====================

// AddVariant 给商品追加变体
// @Summary 给商品追加变体
// @Description 首个真实变体创建时商品转为 variantful 并删除占位基础变体
// @Tags Product (商品)
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param request body dto.VariantInput true "变体参数"
// @Success 200 {object} dto.VariantResp "创建结果"
// @Router /api/v1/products/{id}/variants [post]
func (c *ProductController) AddVariant(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.VariantInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	variant, err := c.productSvc.AddVariant(ctx.Request.Context(), id, &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, toVariantResp(variant))
}

// ==================== 转换 ====================

func toVariantResp(v *model.ProductVariant) dto.VariantResp {
	return dto.VariantResp{
		ID:        v.ID,
		SKU:       v.SKU,
		Name:      v.Name,
		Price:     float64(v.PriceAmount) / 100,
		IsEnabled: v.IsEnabled,
		IsBase:    v.IsBase,
	}
}

func toProductResp(p *model.Product) dto.ProductResp {
	variants := make([]dto.VariantResp, 0, len(p.Variants))
	for i := range p.Variants {
		variants = append(variants, toVariantResp(&p.Variants[i]))
	}
	return dto.ProductResp{
		ID:                  p.ID,
		Name:                p.Name,
		Slug:                p.Slug,
		IsPublished:         p.IsPublished,
		VariantState:        p.VariantState,
		MinimalVariantPrice: float64(p.MinimalVariantPriceAmount) / 100,
		Tags:                p.Tags,
		Variants:            variants,
	}
}
