package domain

import "time"

// NotificationLevel categorizes a user-facing notification.
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
	NotifyWarning NotificationLevel = "warning"
)

// Notification is a transient message for the user (toast).
// Transport errors and run outcomes are all reported this way.
type Notification struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	Err       error             `json:"-"`
}

// NewNotification stamps a notification with the current time.
func NewNotification(level NotificationLevel, message string, err error) Notification {
	return Notification{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Err:       err,
	}
}
