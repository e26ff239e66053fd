package service

import (
	"github.com/angiarxpharma-alt/Certificate-Upload/model"
)

// DashboardStats summarizes the whole client collection.
type DashboardStats struct {
	TotalClients             int             `json:"totalClients"`
	TotalCertificates        int             `json:"totalCertificates"`
	TotalPendingCertificates int             `json:"totalPendingCertificates"`
	ClientsWithPending       int             `json:"clientsWithPending"`
	PendingClients           []PendingClient `json:"pendingClients"`
}

// PendingClient details one client missing required certificates.
type PendingClient struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Pending      []string `json:"pending"`
	PendingCount int      `json:"pendingCount"`
}

// BuildDashboard folds over the client list in a single pass. It is a pure
// function: the same input always yields the same counts.
func BuildDashboard(clients []*model.Client) DashboardStats {
	stats := DashboardStats{TotalClients: len(clients)}

	for _, client := range clients {
		stats.TotalCertificates += client.Certificates.Count()

		pending := model.PendingCategories(client)
		if len(pending) == 0 {
			continue
		}
		stats.TotalPendingCertificates += len(pending)
		stats.ClientsWithPending++
		stats.PendingClients = append(stats.PendingClients, PendingClient{
			ID:           client.ID,
			Name:         client.ClientName,
			Pending:      pending,
			PendingCount: len(pending),
		})
	}

	return stats
}
