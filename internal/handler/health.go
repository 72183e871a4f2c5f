package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vmc-todo/backend/internal/model"
)

// Health godoc
// @Summary Check server health
// @Tags misc
// @Produce json
// @Success 200 {object} model.HealthResponse
// @Router /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{Status: "OK"})
}
