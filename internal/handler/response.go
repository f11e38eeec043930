package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 响应格式沿用前端面板约定：成功直接返回载荷，
// 错误返回 {"detail": "..."}，校验类错误 400，其余 500

// OK 成功响应 (200)
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// BadRequest 校验错误响应 (400)
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": msg})
}

// Error 服务端错误响应 (500)
func Error(c *gin.Context, err error) {
	if err == nil {
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
}
