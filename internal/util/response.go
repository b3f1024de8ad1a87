package util

import (
	"errors"
	"net/http"

	"quiz_platform_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// SuccessMessage 带自定义提示的成功响应
func SuccessMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

// ValidationFailed 400，附带字段级错误
func ValidationFailed(c *gin.Context, verr *ValidationError) {
	message := ErrValidation.Error()
	if len(verr.Fields) > 0 {
		message = verr.Fields[0].Message
	}
	c.JSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Message: message,
		Data:    verr,
	})
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

// LogInternalError 记录完整错误，debug 模式下才把错误信息返回给调用方
func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	if gin.IsDebugging() {
		Error(c, http.StatusInternalServerError, "Internal server error: "+err.Error())
		return
	}
	InternalServerError(c)
}

// HandleError 按错误分类输出响应
func HandleError(c *gin.Context, err error) {
	var verr *ValidationError
	var derr *DomainError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(c, verr)
	case errors.As(err, &derr):
		switch {
		case errors.Is(err, ErrNotFound):
			Error(c, http.StatusNotFound, derr.Message)
		case errors.Is(err, ErrForbidden):
			Error(c, http.StatusForbidden, derr.Message)
		case errors.Is(err, ErrRejected), errors.Is(err, ErrValidation):
			Error(c, http.StatusBadRequest, derr.Message)
		default:
			LogInternalError(c, err)
		}
	default:
		LogInternalError(c, err)
	}
}
