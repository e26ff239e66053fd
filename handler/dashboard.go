package handler

import (
	"net/http"

	"github.com/angiarxpharma-alt/Certificate-Upload/service"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	clients *service.ClientService
}

func NewDashboardHandler(clients *service.ClientService) *DashboardHandler {
	return &DashboardHandler{clients: clients}
}

// Get computes the dashboard summary from the current client collection.
func (h *DashboardHandler) Get(c *gin.Context) {
	clients, err := h.clients.ListClients(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, service.BuildDashboard(clients))
}
