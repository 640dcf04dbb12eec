package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
)

type projectRequest struct {
	ClientID    *string    `json:"clientId"`
	Name        string     `json:"name" binding:"required"`
	Description *string    `json:"description"`
	Status      string     `json:"status" binding:"omitempty,oneof=planning in_progress on_hold completed"`
	Budget      *float64   `json:"budget"`
	Spent       *float64   `json:"spent"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

type projectUpdateRequest struct {
	ClientID    *string    `json:"clientId"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,oneof=planning in_progress on_hold completed"`
	Budget      *float64   `json:"budget"`
	Spent       *float64   `json:"spent"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

type projectResponse struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	ClientID    *string    `json:"clientId"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Budget      *float64   `json:"budget"`
	Spent       *float64   `json:"spent"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ListProjects accepts an optional ?status= filter, one kanban column per
// status value.
func (h HandlerSet) ListProjects(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var (
		projects []models.Project
		err      error
	)
	if status := c.Query("status"); status != "" {
		projectStatus := models.ProjectStatus(status)
		if !projectStatus.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		projects, err = h.projects.ListByStatus(c.Request.Context(), user.ID, projectStatus)
	} else {
		projects, err = h.projects.List(c.Request.Context(), user.ID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]projectResponse, 0, len(projects))
	for _, project := range projects {
		resp = append(resp, toProjectResponse(project))
	}

	c.JSON(http.StatusOK, gin.H{"projects": resp})
}

func (h HandlerSet) GetProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.projectError(c, err)
		return
	}
	if project.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrProjectNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": toProjectResponse(project)})
}

func (h HandlerSet) CreateProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.Create(c.Request.Context(), models.Project{
		OwnerID:     user.ID,
		ClientID:    req.ClientID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectStatus(req.Status),
		Budget:      req.Budget,
		Spent:       req.Spent,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": toProjectResponse(project)})
}

func (h HandlerSet) UpdateProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req projectUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	existing, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		h.projectError(c, err)
		return
	}
	if existing.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrProjectNotFound.Error()})
		return
	}

	var status *models.ProjectStatus
	if req.Status != nil {
		s := models.ProjectStatus(*req.Status)
		status = &s
	}

	project, err := h.projects.Update(c.Request.Context(), id, models.ProjectUpdate{
		ClientID:    req.ClientID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		Budget:      req.Budget,
		Spent:       req.Spent,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		h.projectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": toProjectResponse(project)})
}

func (h HandlerSet) DeleteProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	existing, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		h.projectError(c, err)
		return
	}
	if existing.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrProjectNotFound.Error()})
		return
	}

	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		h.projectError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) projectError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func toProjectResponse(project models.Project) projectResponse {
	return projectResponse{
		ID:          project.ID,
		OwnerID:     project.OwnerID,
		ClientID:    project.ClientID,
		Name:        project.Name,
		Description: project.Description,
		Status:      string(project.Status),
		Budget:      project.Budget,
		Spent:       project.Spent,
		StartDate:   project.StartDate,
		EndDate:     project.EndDate,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}
