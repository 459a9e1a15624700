package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront_v1/internal/apperr"
)

// ==================== 统一响应 ====================

// respondOK 成功响应 {code, message, data}
func respondOK(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

// respondError 失败响应
// 结构化校验错误带 errors 数组（kind/message/field/index），其余按 500 处理
func respondError(ctx *gin.Context, err error) {
	if list, ok := apperr.AsList(err); ok {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "校验失败",
			"errors":  list.Errors,
		})
		return
	}
	if v, ok := apperr.AsValidation(err); ok {
		status := http.StatusBadRequest
		if v.Code == apperr.CodeNotFound {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{
			"code":    status,
			"message": v.Message,
			"errors":  []*apperr.ValidationError{v},
		})
		return
	}
	ctx.JSON(http.StatusInternalServerError, gin.H{
		"code":    500,
		"message": err.Error(),
	})
}

// pathID 解析路径上的数字 ID
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的 " + name,
		})
		return 0, false
	}
	return id, true
}
