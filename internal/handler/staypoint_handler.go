package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/service"
	"github.com/yhzhou/mobility-backend-go/pkg/response"
)

// StaypointHandler handles HTTP requests for staypoints
type StaypointHandler struct {
	service *service.StaypointService
}

// NewStaypointHandler creates a new staypoint handler
func NewStaypointHandler(service *service.StaypointService) *StaypointHandler {
	return &StaypointHandler{service: service}
}

// GetStaypoints handles GET /api/v1/staypoints
func (h *StaypointHandler) GetStaypoints(c *gin.Context) {
	var filter models.StaypointFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	sps, total, err := h.service.GetStaypoints(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get staypoints", err)
		return
	}

	page, pageSize, totalPages := paginationInfo(total, filter.Page, filter.PageSize)
	response.Success(c, models.StaypointsResponse{
		Data:       sps,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}
