// Package notification caches the signed-in user's notifications.
package notification

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/ticketdesk/internal/domain/listing"
)

// Type classifies what a notification is about.
type Type string

const (
	TypeTicketCreated         Type = "ticket_created"
	TypeTicketUpdated         Type = "ticket_updated"
	TypeTicketAssigned        Type = "ticket_assigned"
	TypeTicketCommented       Type = "ticket_commented"
	TypeTicketApproved        Type = "ticket_approved"
	TypeTicketRejected        Type = "ticket_rejected"
	TypeTicketOverdue         Type = "ticket_overdue"
	TypeWorkflowStepCompleted Type = "workflow_step_completed"
	TypeSystemMaintenance     Type = "system_maintenance"
	TypeGeneral               Type = "general"
)

// Notification is a message addressed to one user.
type Notification struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      Type           `json:"type"`
	UserID    int64          `json:"userId"`
	IsRead    bool           `json:"isRead"`
	Data      map[string]any `json:"data,omitempty"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// GetID returns the server-assigned id.
func (n Notification) GetID() int64 { return n.ID }

// Page is one page of GET /notifications. UnreadCount covers every page.
type Page struct {
	listing.Page[Notification]
	UnreadCount int `json:"unreadCount"`
}

// ListParams filters GET /notifications. Zero values are unset.
type ListParams struct {
	Page      int
	PageSize  int
	Type      Type
	IsRead    *bool
	DateFrom  string
	DateTo    string
	SortBy    string
	SortOrder string
}

// Values encodes the params as a query string.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.Type != "" {
		v.Set("type", string(p.Type))
	}
	if p.IsRead != nil {
		v.Set("isRead", strconv.FormatBool(*p.IsRead))
	}
	for key, val := range map[string]string{
		"dateFrom":  p.DateFrom,
		"dateTo":    p.DateTo,
		"sortBy":    p.SortBy,
		"sortOrder": p.SortOrder,
	} {
		if val = strings.TrimSpace(val); val != "" {
			v.Set(key, val)
		}
	}
	return v
}
