package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vmc-todo/backend/internal/config"
	"github.com/vmc-todo/backend/internal/model"
	"github.com/vmc-todo/backend/internal/service"
)

// errorWriter maps service errors onto the stable
// {message[], statusCode, error} shape. Login and refresh-token detail
// is only revealed in development; registration detail is always shown
// (it never says more than "already exists").
type errorWriter struct {
	cfg    config.ServerConfig
	logger *slog.Logger
}

func (w *errorWriter) write(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLogin), errors.Is(err, service.ErrRefreshToken):
		w.logger.Warn("authentication failed", "error", err, "requestId", GetRequestID(c))
		message := []string{"Unauthorized"}
		if w.cfg.IsDevelopment() {
			message = []string{err.Error()}
		}
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Message:    message,
			StatusCode: http.StatusUnauthorized,
			Error:      "Unauthorized",
		})

	case errors.Is(err, service.ErrRegister):
		w.logger.Warn("registration failed", "error", err, "requestId", GetRequestID(c))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Message:    []string{err.Error()},
			StatusCode: http.StatusBadRequest,
			Error:      "Bad Request",
		})

	case errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Message:    []string{"Task not found"},
			StatusCode: http.StatusNotFound,
			Error:      "Not Found",
		})

	case errors.Is(err, service.ErrTaskForbidden):
		c.JSON(http.StatusForbidden, model.ErrorResponse{
			Message:    []string{"You are not authorized to modify this task"},
			StatusCode: http.StatusForbidden,
			Error:      "Forbidden",
		})

	case errors.Is(err, service.ErrConsistency):
		// Our own invariant broke. Loud log, plain 500, never a 404/403.
		w.logger.Error("consistency violation", "error", err, "requestId", GetRequestID(c))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Error:      "An unexpected error occurred",
		})

	default:
		w.logger.Error("unexpected error", "error", err, "requestId", GetRequestID(c))
		if w.cfg.DontRecover == "true" {
			panic(err)
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Error:      "An unexpected error occurred",
		})
	}
}

func badRequest(c *gin.Context, messages []string) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Message:    messages,
		StatusCode: http.StatusBadRequest,
		Error:      "Bad Request",
	})
}
