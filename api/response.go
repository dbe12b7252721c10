package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// 错误码，随 401/400/404/500 一起出现在响应的 error 字段
const (
	ErrCodeUnauthorized       = "Unauthorized"
	ErrCodeInvalidCredentials = "InvalidCredentials"
	ErrCodeInvalidToken       = "InvalidToken"
	ErrCodeInvalidInput       = "InvalidInput"
	ErrCodeNotFound           = "NotFound"
	ErrCodeInternal           = "InternalError"
)

// Response 通用响应结构
type Response struct {
	Success bool         `json:"success"`
	Data    interface{}  `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	List     interface{} `json:"list"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created 201 创建成功响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Fail 错误响应
func Fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error:   code,
		Message: message,
	})
}

// BadRequest 400 输入错误响应
func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, ErrCodeInvalidInput, message)
}

// BadRequestWithDetails 400 输入错误响应，附带字段级错误列表
func BadRequestWithDetails(c *gin.Context, message string, details []FieldError) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   ErrCodeInvalidInput,
		Message: message,
		Details: details,
	})
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, code, message string) {
	Fail(c, http.StatusUnauthorized, code, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Fail(c, http.StatusInternalServerError, ErrCodeInternal, message)
}

// BindingDetails 把 gin/validator 的绑定错误翻译成字段级错误列表
// 非校验类错误（如 JSON 语法错误）返回空列表，调用方退回笼统提示
func BindingDetails(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return details
}

// validationMessage 常见校验标签的中文提示
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "该字段为必填项"
	case "gt":
		return fmt.Sprintf("必须大于 %s", fe.Param())
	case "gte":
		return fmt.Sprintf("必须大于等于 %s", fe.Param())
	case "max":
		return fmt.Sprintf("长度不能超过 %s", fe.Param())
	case "min":
		return fmt.Sprintf("长度不能小于 %s", fe.Param())
	case "email":
		return "邮箱格式不正确"
	default:
		return fmt.Sprintf("校验失败: %s", fe.Tag())
	}
}
