package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/service"
)

type ShippingController struct {
	shipSvc *service.ShippingService
}

func NewShippingController(shipSvc *service.ShippingService) *ShippingController {
	return &ShippingController{shipSvc: shipSvc}
}

// ==================== 区域国家 ====================

// SaveZoneCountries 全量替换区域覆盖的国家
// @Summary 全量替换区域覆盖的国家
// @Description 与同分组兄弟区域有国家+省份重叠时整体拒绝
// @Tags Shipping (运费)
// @Accept json
// @Produce json
// @Param id path int true "区域ID"
// @Param request body dto.ZoneSaveReq true "国家列表"
// @Success 200 {array} dto.ShippingCountryResp "保存结果"
// @Failure 400 {object} map[string]interface{} "DUPLICATED_COUNTRY_IN_GROUP 等"
// @Router /api/v1/shipping/zones/{id}/countries [put]
func (c *ShippingController) SaveZoneCountries(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ZoneSaveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	countries, err := c.shipSvc.SaveZoneCountries(ctx.Request.Context(), id, req.Countries)
	if err != nil {
		respondError(ctx, err)
		return
	}
	resp := make([]dto.ShippingCountryResp, 0, len(countries))
	for _, country := range countries {
		resp = append(resp, dto.ShippingCountryResp{
			ID:        country.ID,
			Code:      country.Code,
			Provinces: country.Provinces,
		})
	}
	respondOK(ctx, resp)
}

// ==================== 仓库分组 ====================

// SaveGroup 创建/更新仓库分组并调整成员
// @Summary 创建/更新仓库分组并调整成员
// @Description 加入的仓库会先从同档案兄弟分组摘除；分组被清空时自删，响应的 deleted 为 true
// @Tags Shipping (运费)
// @Accept json
// @Produce json
// @Param id path int true "分组ID"
// @Param request body dto.GroupSaveReq true "分组参数"
// @Success 200 {object} dto.GroupResp "调整结果"
// @Failure 400 {object} map[string]interface{} "DUPLICATED_INPUT_ITEM 等"
// @Router /api/v1/shipping/groups/{id} [put]
func (c *ShippingController) SaveGroup(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.GroupSaveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	result, err := c.shipSvc.SaveGroup(ctx.Request.Context(), id, &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, dto.GroupResp{
		ID:                result.GroupID,
		ShippingProfileID: req.ShippingProfileID,
		Name:              req.Name,
		WarehouseIDs:      result.WarehouseIDs,
		Deleted:           result.Deleted,
	})
}

// CreateGroup 创建仓库分组
// @Summary 创建仓库分组
// @Tags Shipping (运费)
// @Accept json
// @Produce json
// @Param request body dto.GroupSaveReq true "分组参数"
// @Success 200 {object} dto.GroupResp "创建结果"
// @Router /api/v1/shipping/groups [post]
func (c *ShippingController) CreateGroup(ctx *gin.Context) {
	var req dto.GroupSaveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	result, err := c.shipSvc.SaveGroup(ctx.Request.Context(), 0, &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, dto.GroupResp{
		ID:                result.GroupID,
		ShippingProfileID: req.ShippingProfileID,
		Name:              req.Name,
		WarehouseIDs:      result.WarehouseIDs,
		Deleted:           result.Deleted,
	})
}

// ==================== 运费档案 ====================

// CreateProfile 创建运费档案
// @Summary 创建运费档案
// @Tags Shipping (运费)
// @Accept json
// @Produce json
// @Param request body dto.ProfileSaveReq true "档案参数"
// @Success 200 {object} map[string]interface{} "创建结果"
// @Router /api/v1/shipping/profiles [post]
func (c *ShippingController) CreateProfile(ctx *gin.Context) {
	var req dto.ProfileSaveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	profile, err := c.shipSvc.CreateProfile(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, gin.H{"id": profile.ID, "name": profile.Name})
}

// UpdateProfile 更新档案并调整商品归属
// @Summary 更新档案并调整商品归属
// @Description 移出的商品回落到默认档案
// @Tags Shipping (运费)
// @Accept json
// @Produce json
// @Param id path int true "档案ID"
// @Param request body dto.ProfileSaveReq true "档案参数"
// @Success 200 {object} map[string]string "更新结果"
// @Router /api/v1/shipping/profiles/{id} [put]
func (c *ShippingController) UpdateProfile(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ProfileSaveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if err := c.shipSvc.UpdateProfileProducts(ctx.Request.Context(), id, &req); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, gin.H{"message": "已更新"})
}

// DeleteProfile 删除运费档案
// @Summary 删除运费档案
// @Description 默认档案受保护不可删除 (DEFAULT_SHIPPING_PROFILE)
// @Tags Shipping (运费)
// @Produce json
// @Param id path int true "档案ID"
// @Success 200 {object} map[string]string "删除结果"
// @Failure 400 {object} map[string]interface{} "DEFAULT_SHIPPING_PROFILE"
// @Router /api/v1/shipping/profiles/{id} [delete]
func (c *ShippingController) DeleteProfile(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.shipSvc.DeleteProfile(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, gin.H{"message": "已删除"})
}

// ==================== 运费方式 ====================

// SaveMethod 创建/更新运费方式
// @Summary 创建/更新运费方式
// @Description 上界小于下界返回 MAX_LESS_THAN_MIN，负值返回 INVALID
// @Tags Shipping (运费)
// @Accept json
// @Produce json
// @Param id path int true "方式ID"
// @Param request body dto.MethodSaveReq true "方式参数"
// @Success 200 {object} map[string]interface{} "保存结果"
// @Router /api/v1/shipping/methods/{id} [put]
func (c *ShippingController) SaveMethod(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.MethodSaveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	method, err := c.shipSvc.SaveMethod(ctx.Request.Context(), id, &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, gin.H{"id": method.ID, "name": method.Name, "type": method.Type})
}

// CreateMethod 创建运费方式
// @Summary 创建运费方式
// @Tags Shipping (运费)
// @Accept json
// @Produce json
// @Param request body dto.MethodSaveReq true "方式参数"
// @Success 200 {object} map[string]interface{} "创建结果"
// @Router /api/v1/shipping/methods [post]
func (c *ShippingController) CreateMethod(ctx *gin.Context) {
	var req dto.MethodSaveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	method, err := c.shipSvc.SaveMethod(ctx.Request.Context(), 0, &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, gin.H{"id": method.ID, "name": method.Name, "type": method.Type})
}
