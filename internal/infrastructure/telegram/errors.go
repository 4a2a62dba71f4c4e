package telegram

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a Bot API level failure (ok=false response).
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bot api error [%d]: %s", e.Code, e.Description)
}

// IsForbidden reports whether the recipient blocked the bot. Permanent for
// that chat id; not worth an error-level log.
func (e *APIError) IsForbidden() bool {
	return e.Code == http.StatusForbidden
}

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
