package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Pipeflow/internal/blocks"
	"github.com/shaiso/Pipeflow/internal/deployment"
	"github.com/shaiso/Pipeflow/internal/pipeline"
	"github.com/shaiso/Pipeflow/internal/prefect"
	"github.com/shaiso/Pipeflow/internal/repo"
	"github.com/shaiso/Pipeflow/internal/rungraph"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeEngineError   ErrorCode = "ENGINE_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleError преобразует ошибку в HTTP ответ. Возвращает false для nil.
//
//	repo.ErrNotFound                      → 404
//	deployment.ErrInvalidCron             → 400
//	blocks.ErrInvalidBlock                → 400
//	blocks.ErrBlockExists                 → 409
//	pipeline.ErrConfig, ErrEmptyPipeline  → 422
//	blocks.ErrServerBlockNotFound         → 422
//	ошибки движка и графа run             → 502
//	остальное                             → 500
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, repo.ErrNotFound):
		NotFound(w, notFoundMsg)
	case errors.Is(err, deployment.ErrInvalidCron), errors.Is(err, blocks.ErrInvalidBlock):
		BadRequest(w, err.Error())
	case errors.Is(err, blocks.ErrBlockExists):
		Error(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, blocks.ErrServerBlockNotFound):
		Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidConfig, err.Error())
	case errors.Is(err, pipeline.ErrConfig), errors.Is(err, deployment.ErrEmptyPipeline):
		Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidConfig, err.Error())
	case isEngineError(err):
		logger.Warn("engine error", "error", err)
		Error(w, http.StatusBadGateway, ErrCodeEngineError, err.Error())
	default:
		InternalError(w, logger, err)
	}
	return true
}

func isEngineError(err error) bool {
	return errors.Is(err, rungraph.ErrQuery) ||
		errors.Is(err, rungraph.ErrRunGraphCycle) ||
		errors.Is(err, prefect.ErrRequest) ||
		errors.Is(err, prefect.ErrStatus) ||
		errors.Is(err, prefect.ErrDecode) ||
		errors.Is(err, prefect.ErrNoBlockSchema)
}
