package handler

import (
	"net/http"

	"github.com/angiarxpharma-alt/Certificate-Upload/service"
	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploads *service.UploadCoordinator
}

func NewUploadHandler(uploads *service.UploadCoordinator) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Submit accepts a multipart certificate upload, validates it, and starts
// the transfer in the background. The response carries the upload ID for
// progress polling.
func (h *UploadHandler) Submit(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	category := c.PostForm("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No category provided"})
		return
	}

	upload, err := h.uploads.Submit(c.Request.Context(), service.UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        file,
		Category:    category,
		ClientID:    c.PostForm("client_id"),
	})
	if err != nil {
		if service.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start upload"})
		return
	}

	c.JSON(http.StatusAccepted, upload)
}

// Get returns the current snapshot of one upload: status, progress, and the
// certificate metadata once completed.
func (h *UploadHandler) Get(c *gin.Context) {
	upload, ok := h.uploads.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Upload not found"})
		return
	}

	c.JSON(http.StatusOK, upload)
}

// Delete cancels an in-flight upload, or drops a finished entry from the
// queue. Certificates already persisted stay in place.
func (h *UploadHandler) Delete(c *gin.Context) {
	if !h.uploads.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Upload not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Upload removed"})
}
