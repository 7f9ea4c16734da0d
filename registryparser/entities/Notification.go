package entities

// NotificationRequest is a validated send request resolved to concrete device tokens.
type NotificationRequest struct {
	Type           string
	Content        map[string]any
	AdditionalData map[string]any
	Tokens         []DeviceToken
}
