package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"relaycrm/api/internal/avatar"
	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
	"relaycrm/api/internal/service"
)

type profileResponse struct {
	UserID                 string    `json:"userId"`
	Email                  string    `json:"email"`
	FullName               *string   `json:"fullName"`
	Role                   string    `json:"role"`
	Department             *string   `json:"department"`
	Phone                  *string   `json:"phone"`
	AvatarURL              *string   `json:"avatarUrl"`
	Status                 string    `json:"status"`
	RequiresPasswordChange bool      `json:"requiresPasswordChange"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func (h HandlerSet) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	profile, err := h.profiles.GetByUserID(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": toProfileResponse(profile)})
}

type profileUpdateRequest struct {
	FullName   *string `json:"fullName"`
	Department *string `json:"department"`
	Phone      *string `json:"phone"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.Update(c.Request.Context(), user.ID, req.FullName, req.Department, req.Phone); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.GetByUserID(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": toProfileResponse(profile)})
}

func (h HandlerSet) UploadAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()

	url, err := h.profileService.UploadAvatar(c.Request.Context(), service.AvatarInput{
		UserID: user.ID,
		File:   file,
		Header: header,
	})
	if err != nil {
		if errors.Is(err, avatar.ErrUnsupportedType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("avatar upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatarUrl": url})
}

func toProfileResponse(profile models.Profile) profileResponse {
	return profileResponse{
		UserID:                 profile.UserID,
		Email:                  profile.Email,
		FullName:               profile.FullName,
		Role:                   string(profile.Role),
		Department:             profile.Department,
		Phone:                  profile.Phone,
		AvatarURL:              profile.AvatarURL,
		Status:                 profile.Status,
		RequiresPasswordChange: profile.RequiresPasswordChange,
		CreatedAt:              profile.CreatedAt,
		UpdatedAt:              profile.UpdatedAt,
	}
}
