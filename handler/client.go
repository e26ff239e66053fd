package handler

import (
	"errors"
	"net/http"

	"github.com/angiarxpharma-alt/Certificate-Upload/model"
	"github.com/angiarxpharma-alt/Certificate-Upload/service"
	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	clients *service.ClientService
}

func NewClientHandler(clients *service.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

type CreateClientRequest struct {
	ClientName    string               `json:"clientName" binding:"required"`
	ContactPerson string               `json:"contactPerson" binding:"required"`
	Email         string               `json:"email" binding:"required,email"`
	Phone         string               `json:"phone" binding:"required"`
	Certificates  model.CertificateMap `json:"certificates"`
}

// UpdateClientRequest carries a partial update. Absent contact fields keep
// their stored values; an absent certificates map leaves certificates alone.
type UpdateClientRequest struct {
	model.ClientFields
	Certificates model.CertificateMap `json:"certificates"`
}

// Create registers a new client, optionally with certificates collected by
// the create form's uploads.
func (h *ClientHandler) Create(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	created, err := h.clients.AddClient(c.Request.Context(), &model.Client{
		ClientName:    req.ClientName,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Certificates:  req.Certificates,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create client"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// List returns all clients with their certificates.
func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.clients.ListClients(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list clients"})
		return
	}
	if clients == nil {
		clients = []*model.Client{}
	}

	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// Get returns a single client.
func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.clients.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load client"})
		return
	}

	c.JSON(http.StatusOK, client)
}

// Update merges the supplied fields into the client record.
func (h *ClientHandler) Update(c *gin.Context) {
	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	updated, err := h.clients.UpdateClient(c.Request.Context(), c.Param("id"), req.ClientFields, req.Certificates)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update client"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes the client record after a best-effort cleanup of its
// stored files.
func (h *ClientHandler) Delete(c *gin.Context) {
	err := h.clients.DeleteClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete client"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
}

// DeleteCertificate removes one certificate from a client. The stored file
// goes first; if that fails the certificate record is kept.
func (h *ClientHandler) DeleteCertificate(c *gin.Context) {
	updated, err := h.clients.DeleteCertificate(c.Request.Context(),
		c.Param("id"), c.Param("category"), c.Param("certId"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Certificate not found"})
		case errors.Is(err, service.ErrBlobDelete):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to delete file from storage"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete certificate"})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}
