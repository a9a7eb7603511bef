package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamenews/internal/content"
	"gamenews/internal/models"
)

type UserHandler struct {
	svc *content.Service
}

func NewUserHandler(svc *content.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// GetUserProfile returns a user's profile and their posts
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	profile, posts, err := h.svc.GetProfile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  profile,
		"posts": posts,
	})
}

// UpdateUserProfile updates a profile (owner only)
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.svc.UpdateProfile(c.Request.Context(), userID, id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
