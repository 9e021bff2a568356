package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yhzhou/mobility-backend-go/internal/service"
	"github.com/yhzhou/mobility-backend-go/pkg/response"
)

// AnalysisTaskHandler handles HTTP requests for analysis tasks
type AnalysisTaskHandler struct {
	service *service.AnalysisTaskService
}

// NewAnalysisTaskHandler creates a new analysis task handler
func NewAnalysisTaskHandler(service *service.AnalysisTaskService) *AnalysisTaskHandler {
	return &AnalysisTaskHandler{service: service}
}

// RunAnalysisRequest represents the request body for running one analyzer
type RunAnalysisRequest struct {
	Skill  string                 `json:"skill" binding:"required"`
	Params map[string]interface{} `json:"params"`
}

// RunAnalysis handles POST /api/v1/analysis/run
func (h *AnalysisTaskHandler) RunAnalysis(c *gin.Context) {
	var req RunAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	task, err := h.service.CreateTask(req.Skill, req.Params)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	response.Success(c, task)
}

// RunPipelineRequest represents the request body for running the full
// segmentation pipeline
type RunPipelineRequest struct {
	Params map[string]interface{} `json:"params"`
}

// RunPipeline handles POST /api/v1/analysis/pipeline
func (h *AnalysisTaskHandler) RunPipeline(c *gin.Context) {
	var req RunPipelineRequest
	// an empty body runs the pipeline with default parameters
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	taskIDs, err := h.service.RunPipeline(req.Params)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	response.Success(c, gin.H{"task_ids": taskIDs})
}

// GetTask handles GET /api/v1/analysis/tasks/:id
func (h *AnalysisTaskHandler) GetTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid task ID", err)
		return
	}

	task, err := h.service.GetTask(id)
	if err != nil {
		response.Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}

	response.Success(c, task)
}

// ListTasks handles GET /api/v1/analysis/tasks
func (h *AnalysisTaskHandler) ListTasks(c *gin.Context) {
	skillName := c.Query("skill")
	status := c.Query("status")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		offset = 0
	}

	tasks, err := h.service.ListTasks(skillName, status, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}

	response.Success(c, gin.H{
		"tasks":  tasks,
		"limit":  limit,
		"offset": offset,
	})
}
