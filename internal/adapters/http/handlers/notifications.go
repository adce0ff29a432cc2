package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotesync/quotesync/internal/adapters/http/dto"
	"github.com/quotesync/quotesync/internal/adapters/notify"
)

// NotificationsHandler exposes the buffered user notifications.
type NotificationsHandler struct {
	ring *notify.Ring
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(ring *notify.Ring) *NotificationsHandler {
	return &NotificationsHandler{
		ring: ring,
	}
}

// List handles GET /api/v1/notifications.
// Returns the most recent notifications, newest first.
func (h *NotificationsHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.ring.Recent(query.GetLimit()))
}

// RegisterNotificationRoutes registers the notification routes.
func (h *NotificationsHandler) RegisterNotificationRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.List)
}
