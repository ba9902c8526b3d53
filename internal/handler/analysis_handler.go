package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/loader"
	"github.com/jengzang/shuttle-analytics/internal/logging"
	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/service"
	"github.com/jengzang/shuttle-analytics/pkg/response"
)

// AnalysisService is what the handlers need from the dataset service
type AnalysisService interface {
	Run(ctx context.Context, name string, filter models.AnalysisFilter) (interface{}, error)
	Views() []string
	Reload()
	Status() service.Status
}

// AnalysisHandler handles HTTP requests for analytic views
type AnalysisHandler struct {
	svc AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(svc AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		svc: svc,
	}
}

// ListViews handles GET /api/v1/analysis
func (h *AnalysisHandler) ListViews(c *gin.Context) {
	response.Success(c, gin.H{"views": h.svc.Views()})
}

// GetView handles GET /api/v1/analysis/:name
func (h *AnalysisHandler) GetView(c *gin.Context) {
	var filter models.AnalysisFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid filter: "+err.Error())
		return
	}
	if filter.StartDate != "" && filter.EndDate != "" && filter.StartDate > filter.EndDate {
		response.BadRequest(c, "startDate must not be after endDate")
		return
	}

	name := c.Param("name")
	result, err := h.svc.Run(c.Request.Context(), name, filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

// GetStatus handles GET /api/v1/datasets
func (h *AnalysisHandler) GetStatus(c *gin.Context) {
	response.Success(c, h.svc.Status())
}

// Reload handles POST /api/v1/datasets/reload
func (h *AnalysisHandler) Reload(c *gin.Context) {
	h.svc.Reload()
	response.Success(c, gin.H{"reloaded": true})
}

func (h *AnalysisHandler) writeError(c *gin.Context, err error) {
	c.Error(err)
	switch {
	case errors.Is(err, analysis.ErrUnknownAnalyzer):
		response.NotFound(c, err.Error())
	case errors.Is(err, analysis.ErrUnsupportedFilter):
		response.BadRequest(c, err.Error())
	case errors.Is(err, loader.ErrMissingSource):
		response.ServiceUnavailable(c, err.Error())
	default:
		logging.LogError(logging.FromContext(c.Request.Context()), "analysis failed", err)
		response.InternalError(c, err.Error())
	}
}
