package http

import "github.com/gin-gonic/gin"

// ErrorResponse 以 {"error": message} 格式返回错误
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// SuccessResponse 直接把 data 序列化为响应体
func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}
