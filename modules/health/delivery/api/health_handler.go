package api

import (
	"net/http"

	"bill-tracker/common"
	"bill-tracker/domain"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	usecase domain.HealthUsecase
}

func NewHealthHandler(usecase domain.HealthUsecase) *HealthHandler {
	return &HealthHandler{usecase: usecase}
}

// RegisterRoutes mounts /health on the engine root, outside /api/v1.
func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Check)
}

func (h *HealthHandler) Check(c *gin.Context) {
	report := h.usecase.Check(c.Request.Context())
	if !report.Healthy {
		common.Response(c, http.StatusServiceUnavailable, "UNHEALTHY", report, "One or more dependencies are unavailable")
		return
	}
	common.ResponseOK(c, report, "Healthy")
}
