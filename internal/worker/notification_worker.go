package worker

import (
	"github.com/spec-kit/clinic-booking/internal/service"
)

// StartNotificationWorker registers notification handlers on the dispatcher.
// Handlers run synchronously inside the publishing request.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
