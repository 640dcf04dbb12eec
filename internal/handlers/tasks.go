package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
)

type taskRequest struct {
	ProjectID   *string    `json:"projectId"`
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	Status      string     `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
	AssignedTo  *string    `json:"assignedTo"`
}

type taskUpdateRequest struct {
	ProjectID   *string    `json:"projectId"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
	AssignedTo  *string    `json:"assignedTo"`
}

type taskResponse struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	ProjectID   *string    `json:"projectId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	AssignedTo  *string    `json:"assignedTo"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ListTasks accepts optional ?status= and ?projectId= filters. The status
// filter orders by due date for board columns; the default list is
// newest-first.
func (h HandlerSet) ListTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var (
		tasks []models.Task
		err   error
	)
	switch {
	case c.Query("projectId") != "":
		tasks, err = h.tasks.ListByProject(c.Request.Context(), c.Query("projectId"))
	case c.Query("status") != "":
		taskStatus := models.TaskStatus(c.Query("status"))
		if !taskStatus.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		tasks, err = h.tasks.ListByStatus(c.Request.Context(), user.ID, taskStatus)
	default:
		tasks, err = h.tasks.List(c.Request.Context(), user.ID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		if task.OwnerID != user.ID {
			continue
		}
		resp = append(resp, toTaskResponse(task))
	}

	c.JSON(http.StatusOK, gin.H{"tasks": resp})
}

func (h HandlerSet) GetTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.taskError(c, err)
		return
	}
	if task.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrTaskNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": toTaskResponse(task)})
}

func (h HandlerSet) CreateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), models.Task{
		OwnerID:     user.ID,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": toTaskResponse(task)})
}

func (h HandlerSet) UpdateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req taskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	existing, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		h.taskError(c, err)
		return
	}
	if existing.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrTaskNotFound.Error()})
		return
	}

	var status *models.TaskStatus
	if req.Status != nil {
		s := models.TaskStatus(*req.Status)
		status = &s
	}
	var priority *models.TaskPriority
	if req.Priority != nil {
		p := models.TaskPriority(*req.Priority)
		priority = &p
	}

	task, err := h.tasks.Update(c.Request.Context(), id, models.TaskUpdate{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		h.taskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": toTaskResponse(task)})
}

func (h HandlerSet) DeleteTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	existing, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		h.taskError(c, err)
		return
	}
	if existing.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrTaskNotFound.Error()})
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), id); err != nil {
		h.taskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) taskError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func toTaskResponse(task models.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		OwnerID:     task.OwnerID,
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		AssignedTo:  task.AssignedTo,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
