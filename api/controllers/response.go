package controllers

import (
	"errors"
	"net/http"

	"metahub-service/service/assessment"
	"metahub-service/service/ledger"

	"github.com/go-chi/render"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`

	httpStatus int
}

// Render 设置HTTP状态码
func (resp *APIResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if resp.httpStatus != 0 {
		render.Status(r, resp.httpStatus)
	}
	return nil
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// Render 分页响应总是200
func (resp *PaginatedResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// SuccessResponse 成功响应
func SuccessResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: 0, Msg: msg, Data: data}
}

func errorResponse(code int, msg string, err error) *APIResponse {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &APIResponse{Status: code, Msg: msg, httpStatus: code}
}

// BadRequestResponse 请求参数错误
func BadRequestResponse(msg string, err error) *APIResponse {
	return errorResponse(http.StatusBadRequest, msg, err)
}

// NotFoundResponse 资源不存在
func NotFoundResponse(msg string, err error) *APIResponse {
	return errorResponse(http.StatusNotFound, msg, err)
}

// InternalErrorResponse 服务内部错误
func InternalErrorResponse(msg string, err error) *APIResponse {
	return errorResponse(http.StatusInternalServerError, msg, err)
}

// ErrorResponse 按错误类型映射HTTP状态码
func ErrorResponse(msg string, err error) *APIResponse {
	switch {
	case errors.Is(err, ledger.ErrRunNotFound):
		return NotFoundResponse(msg, err)
	case assessment.IsRequestError(err):
		return BadRequestResponse(msg, err)
	case errors.Is(err, assessment.ErrRunInProgress), errors.Is(err, ledger.ErrRunExists):
		return errorResponse(http.StatusConflict, msg, err)
	case errors.Is(err, assessment.ErrRateLimited):
		return errorResponse(http.StatusTooManyRequests, msg, err)
	case errors.Is(err, assessment.ErrRunFailed):
		return errorResponse(http.StatusServiceUnavailable, msg, err)
	default:
		return InternalErrorResponse(msg, err)
	}
}
