package entities

// Delivery status values reported per recipient.
const (
	DeliverySuccess = "success"
	DeliveryError   = "error"
)

// DeliveryResult is the outcome of one push submission.
type DeliveryResult struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
