package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamenews/internal/storage"
)

type UploadHandler struct {
	storage storage.Storage
}

func NewUploadHandler(st storage.Storage) *UploadHandler {
	return &UploadHandler{storage: st}
}

// Upload accepts a multipart image and returns its public URL. Posts and
// profiles store only the returned reference string.
func (h *UploadHandler) Upload(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	defer file.Close()

	url, err := h.storage.Save(c.Request.Context(), header.Filename, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
