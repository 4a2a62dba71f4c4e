package domain

// DeliveryError describes a single failed delivery during a fan-out.
type DeliveryError struct {
	ChatID int64  `json:"chat_id"`
	Error  string `json:"error"`
	Code   int    `json:"code,omitempty"`
}

// DeliveryStats aggregates the outcome of a notification fan-out. It is
// computed once per call and never persisted.
type DeliveryStats struct {
	Success       bool            `json:"success"`
	NotifiedCount int             `json:"notified_count"`
	TotalUsers    int             `json:"total_users"`
	FailedCount   int             `json:"failed_count"`
	SuccessRate   string          `json:"success_rate"`
	Errors        []DeliveryError `json:"errors,omitempty"`
	Message       string          `json:"message,omitempty"`
}

// DeliveryResult is the outcome of sending to a single recipient.
type DeliveryResult struct {
	Success   bool   `json:"success"`
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
