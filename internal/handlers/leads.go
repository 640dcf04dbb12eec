package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
)

type leadRequest struct {
	FirstName string   `json:"firstName" binding:"required"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email" binding:"required,email"`
	Phone     string   `json:"phone"`
	Company   string   `json:"company"`
	Position  *string  `json:"position"`
	Status    string   `json:"status" binding:"omitempty,oneof=new contacted qualified proposal converted"`
	Source    string   `json:"source"`
	Value     float64  `json:"value"`
	Notes     *string  `json:"notes"`
	Tags      []string `json:"tags"`
}

type leadUpdateRequest struct {
	FirstName *string  `json:"firstName"`
	LastName  *string  `json:"lastName"`
	Email     *string  `json:"email" binding:"omitempty,email"`
	Phone     *string  `json:"phone"`
	Company   *string  `json:"company"`
	Position  *string  `json:"position"`
	Status    *string  `json:"status" binding:"omitempty,oneof=new contacted qualified proposal converted"`
	Source    *string  `json:"source"`
	Value     *float64 `json:"value"`
	Notes     *string  `json:"notes"`
	Tags      []string `json:"tags"`
}

type leadResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Position  *string   `json:"position"`
	Status    string    `json:"status"`
	Source    string    `json:"source"`
	Value     float64   `json:"value"`
	Notes     *string   `json:"notes"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h HandlerSet) ListLeads(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	leads, err := h.leads.List(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]leadResponse, 0, len(leads))
	for _, lead := range leads {
		resp = append(resp, toLeadResponse(lead))
	}

	c.JSON(http.StatusOK, gin.H{"leads": resp})
}

func (h HandlerSet) GetLead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	lead, err := h.leads.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.leadError(c, err)
		return
	}
	if lead.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrLeadNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": toLeadResponse(lead)})
}

func (h HandlerSet) CreateLead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.leads.Create(c.Request.Context(), models.Lead{
		OwnerID:   user.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Position:  req.Position,
		Status:    models.LeadStatus(req.Status),
		Source:    req.Source,
		Value:     req.Value,
		Notes:     req.Notes,
		Tags:      req.Tags,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"lead": toLeadResponse(lead)})
}

func (h HandlerSet) UpdateLead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req leadUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	existing, err := h.leads.GetByID(c.Request.Context(), id)
	if err != nil {
		h.leadError(c, err)
		return
	}
	if existing.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrLeadNotFound.Error()})
		return
	}

	var status *models.LeadStatus
	if req.Status != nil {
		s := models.LeadStatus(*req.Status)
		status = &s
	}

	lead, err := h.leads.Update(c.Request.Context(), id, models.LeadUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Position:  req.Position,
		Status:    status,
		Source:    req.Source,
		Value:     req.Value,
		Notes:     req.Notes,
		Tags:      req.Tags,
	})
	if err != nil {
		h.leadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": toLeadResponse(lead)})
}

func (h HandlerSet) DeleteLead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	existing, err := h.leads.GetByID(c.Request.Context(), id)
	if err != nil {
		h.leadError(c, err)
		return
	}
	if existing.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrLeadNotFound.Error()})
		return
	}

	if err := h.leads.Delete(c.Request.Context(), id); err != nil {
		h.leadError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) ConvertLead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	existing, err := h.leads.GetByID(c.Request.Context(), id)
	if err != nil {
		h.leadError(c, err)
		return
	}
	if existing.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrLeadNotFound.Error()})
		return
	}

	client, err := h.converter.Convert(c.Request.Context(), id, user.ID)
	if err != nil {
		h.log.Error().Err(err).Str("lead_id", id).Str("user_id", user.ID).Msg("lead conversion failed")
		if errors.Is(err, repository.ErrLeadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": toClientResponse(client)})
}

func (h HandlerSet) leadError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrLeadNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func toLeadResponse(lead models.Lead) leadResponse {
	tags := lead.Tags
	if tags == nil {
		tags = []string{}
	}
	return leadResponse{
		ID:        lead.ID,
		OwnerID:   lead.OwnerID,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Company:   lead.Company,
		Position:  lead.Position,
		Status:    string(lead.Status),
		Source:    lead.Source,
		Value:     lead.Value,
		Notes:     lead.Notes,
		Tags:      tags,
		CreatedAt: lead.CreatedAt,
		UpdatedAt: lead.UpdatedAt,
	}
}
