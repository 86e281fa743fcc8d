package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeRiskAlert     NotificationType = "risk_alert"
	NotificationTypeCheckCall     NotificationType = "check_call_alert"
	NotificationTypeFallOff       NotificationType = "fall_off_alert"
	NotificationTypeCarrierReview NotificationType = "carrier_review"
	NotificationTypeDispatch      NotificationType = "dispatch"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeRiskAlert,
	NotificationTypeCheckCall,
	NotificationTypeFallOff,
	NotificationTypeCarrierReview,
	NotificationTypeDispatch,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationPriority maps to the notification_priority enum in Postgres.
// First-miss check-call alerts are normal; second-miss and fall-off alerts
// are high.
type NotificationPriority string

const (
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

var validNotificationPriorities = []NotificationPriority{
	NotificationPriorityNormal,
	NotificationPriorityHigh,
}

// IsValid checks whether the given priority matches the canonical enum.
func (n NotificationPriority) IsValid() bool {
	for _, candidate := range validNotificationPriorities {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationPriority converts raw strings into NotificationPriority.
func ParseNotificationPriority(value string) (NotificationPriority, error) {
	for _, candidate := range validNotificationPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification priority %q", value)
}
