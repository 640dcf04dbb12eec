package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"relaycrm/api/internal/models"
	"relaycrm/api/internal/service"
)

type inviteUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	FullName   string `json:"fullName" binding:"required"`
	Role       string `json:"role" binding:"required,oneof=admin manager employee"`
	Department string `json:"department"`
}

// InviteUser provisions an account with a temporary password. The password
// is returned once so the admin can forward it; the invited user must change
// it on first sign-in.
func (h HandlerSet) InviteUser(c *gin.Context) {
	var req inviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tempPassword, err := h.authService.Invite(c.Request.Context(), service.InviteInput{
		Email:      req.Email,
		FullName:   req.FullName,
		Role:       models.ProfileRole(req.Role),
		Department: req.Department,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"email":             req.Email,
		"temporaryPassword": tempPassword,
	})
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	profiles, err := h.profiles.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]profileResponse, 0, len(profiles))
	for _, profile := range profiles {
		resp = append(resp, toProfileResponse(profile))
	}

	c.JSON(http.StatusOK, gin.H{"users": resp})
}
