package backend

import (
	"errors"
	"fmt"
)

// maxErrorBody caps how much of a failing body ends up in an error message.
const maxErrorBody = 512

// StatusError is returned when the backend answers outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func (e *StatusError) Error() string {
	body := string(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("HTTP operation failed invoking %s with statusCode: %d: %s", e.URL, e.StatusCode, body)
}

// IsStatusError extracts a *StatusError from an error chain.
func IsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	ok := errors.As(err, &statusErr)
	return statusErr, ok
}
