package domain

import "time"

// SmsTemplate is a stored message template with {{placeholder}} markers that
// are substituted with debtor fields at render time.
type SmsTemplate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
