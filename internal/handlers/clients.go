package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
)

type clientRequest struct {
	Name          string   `json:"name" binding:"required"`
	Email         string   `json:"email" binding:"required,email"`
	Phone         string   `json:"phone"`
	Company       string   `json:"company"`
	Status        string   `json:"status" binding:"omitempty,oneof=active inactive archived"`
	ContractValue *float64 `json:"contractValue"`
	Notes         *string  `json:"notes"`
}

type clientUpdateRequest struct {
	Name          *string  `json:"name"`
	Email         *string  `json:"email" binding:"omitempty,email"`
	Phone         *string  `json:"phone"`
	Company       *string  `json:"company"`
	Status        *string  `json:"status" binding:"omitempty,oneof=active inactive archived"`
	ContractValue *float64 `json:"contractValue"`
	Notes         *string  `json:"notes"`
}

type clientResponse struct {
	ID                  string    `json:"id"`
	OwnerID             string    `json:"ownerId"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	Company             string    `json:"company"`
	Status              string    `json:"status"`
	ContractValue       *float64  `json:"contractValue"`
	ConvertedFromLeadID *string   `json:"convertedFromLeadId"`
	Notes               *string   `json:"notes"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (h HandlerSet) ListClients(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	clients, err := h.clients.List(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]clientResponse, 0, len(clients))
	for _, client := range clients {
		resp = append(resp, toClientResponse(client))
	}

	c.JSON(http.StatusOK, gin.H{"clients": resp})
}

func (h HandlerSet) GetClient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.clientError(c, err)
		return
	}
	if client.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrClientNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": toClientResponse(client)})
}

func (h HandlerSet) CreateClient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.clients.Create(c.Request.Context(), models.Client{
		OwnerID:       user.ID,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Company:       req.Company,
		Status:        models.ClientStatus(req.Status),
		ContractValue: req.ContractValue,
		Notes:         req.Notes,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"client": toClientResponse(client)})
}

func (h HandlerSet) UpdateClient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req clientUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	existing, err := h.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		h.clientError(c, err)
		return
	}
	if existing.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrClientNotFound.Error()})
		return
	}

	var status *models.ClientStatus
	if req.Status != nil {
		s := models.ClientStatus(*req.Status)
		status = &s
	}

	client, err := h.clients.Update(c.Request.Context(), id, models.ClientUpdate{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Company:       req.Company,
		Status:        status,
		ContractValue: req.ContractValue,
		Notes:         req.Notes,
	})
	if err != nil {
		h.clientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": toClientResponse(client)})
}

func (h HandlerSet) DeleteClient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	existing, err := h.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		h.clientError(c, err)
		return
	}
	if existing.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrClientNotFound.Error()})
		return
	}

	if err := h.clients.Delete(c.Request.Context(), id); err != nil {
		h.clientError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) clientError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrClientNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func toClientResponse(client models.Client) clientResponse {
	return clientResponse{
		ID:                  client.ID,
		OwnerID:             client.OwnerID,
		Name:                client.Name,
		Email:               client.Email,
		Phone:               client.Phone,
		Company:             client.Company,
		Status:              string(client.Status),
		ContractValue:       client.ContractValue,
		ConvertedFromLeadID: client.ConvertedFromLeadID,
		Notes:               client.Notes,
		CreatedAt:           client.CreatedAt,
		UpdatedAt:           client.UpdatedAt,
	}
}
