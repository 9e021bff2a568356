package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/service"
	"github.com/yhzhou/mobility-backend-go/pkg/response"
)

// TriplegHandler handles HTTP requests for triplegs
type TriplegHandler struct {
	service *service.TriplegService
}

// NewTriplegHandler creates a new tripleg handler
func NewTriplegHandler(service *service.TriplegService) *TriplegHandler {
	return &TriplegHandler{service: service}
}

// GetTriplegs handles GET /api/v1/triplegs
func (h *TriplegHandler) GetTriplegs(c *gin.Context) {
	var filter models.TriplegFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	tpls, total, err := h.service.GetTriplegs(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get triplegs", err)
		return
	}

	page, pageSize, totalPages := paginationInfo(total, filter.Page, filter.PageSize)
	response.Success(c, models.TriplegsResponse{
		Data:       tpls,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}
