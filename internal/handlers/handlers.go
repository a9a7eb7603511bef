package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gamenews/internal/content"
	"gamenews/internal/storage"
	"gamenews/internal/store"
	"gamenews/internal/vote"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
	Upload  *UploadHandler
}

// NewHandler creates a unified handler with all sub-handlers sharing one
// injected store adapter.
func NewHandler(st store.Store, uploads storage.Storage) *Handler {
	svc := content.NewService(st)
	return &Handler{
		Auth:    NewAuthHandler(st),
		Post:    NewPostHandler(svc),
		Comment: NewCommentHandler(svc),
		User:    NewUserHandler(svc),
		Upload:  NewUploadHandler(uploads),
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	return id, ok
}

// writeError maps domain errors onto HTTP statuses. Store failures surface
// as a generic 500; the underlying error never reaches the client.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, content.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this resource"})
	case errors.Is(err, content.ErrInvalidParent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parent must be a top-level comment on the same post"})
	case errors.Is(err, content.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content must not be empty"})
	case errors.Is(err, vote.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote value must be 1 or -1"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
