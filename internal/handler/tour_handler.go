package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/service"
	"github.com/yhzhou/mobility-backend-go/pkg/response"
)

// TourHandler handles HTTP requests for tours
type TourHandler struct {
	service *service.TourService
}

// NewTourHandler creates a new tour handler
func NewTourHandler(service *service.TourService) *TourHandler {
	return &TourHandler{service: service}
}

// GetTours handles GET /api/v1/tours
func (h *TourHandler) GetTours(c *gin.Context) {
	var filter models.TourFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	tours, total, err := h.service.GetTours(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get tours", err)
		return
	}

	page, pageSize, totalPages := paginationInfo(total, filter.Page, filter.PageSize)
	response.Success(c, models.ToursResponse{
		Data:       tours,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// GetTourByID handles GET /api/v1/tours/:id
func (h *TourHandler) GetTourByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid tour ID", err)
		return
	}

	tour, err := h.service.GetTourByID(id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get tour", err)
		return
	}
	if tour == nil {
		response.Error(c, http.StatusNotFound, "Tour not found", nil)
		return
	}

	response.Success(c, tour)
}
