package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/service"
	"github.com/yhzhou/mobility-backend-go/pkg/response"
)

// PositionfixHandler handles HTTP requests for positionfixes
type PositionfixHandler struct {
	service *service.PositionfixService
}

// NewPositionfixHandler creates a new positionfix handler
func NewPositionfixHandler(service *service.PositionfixService) *PositionfixHandler {
	return &PositionfixHandler{service: service}
}

// GetPositionfixes handles GET /api/v1/positionfixes
func (h *PositionfixHandler) GetPositionfixes(c *gin.Context) {
	var filter models.PositionfixFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	pfs, total, err := h.service.GetPositionfixes(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get positionfixes", err)
		return
	}

	page, pageSize, totalPages := paginationInfo(total, filter.Page, filter.PageSize)
	response.Success(c, models.PositionfixesResponse{
		Data:       pfs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// IngestRequest represents the request body for bulk positionfix ingest
type IngestRequest struct {
	Positionfixes []models.Positionfix `json:"positionfixes" binding:"required"`
}

// Ingest handles POST /api/v1/positionfixes
func (h *PositionfixHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.service.Ingest(req.Positionfixes); err != nil {
		response.Error(c, http.StatusBadRequest, "Failed to ingest positionfixes", err)
		return
	}

	response.Success(c, gin.H{"inserted": len(req.Positionfixes)})
}

// paginationInfo normalizes page parameters and derives the page count
func paginationInfo(total int64, page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}
	if pageSize > 1000 {
		pageSize = 1000
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return page, pageSize, totalPages
}
