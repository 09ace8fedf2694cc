// Package response 提供统一的 HTTP JSON 响应格式
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 统一响应体
type Body struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 返回 200 及数据
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{
		Code:    "OK",
		Message: "success",
		Data:    data,
	})
}

// Created 返回 201 及数据
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{
		Code:    "OK",
		Message: "created",
		Data:    data,
	})
}

// ErrorWithStatus 返回指定状态码的错误响应，code 为机器可读的错误类别
func ErrorWithStatus(c *gin.Context, status int, message, code string) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, Body{
		Code:    code,
		Message: message,
	})
}
