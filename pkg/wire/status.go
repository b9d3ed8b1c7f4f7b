package wire

import "fmt"

// StatusSuccess is the Status value of a successful reply.
const StatusSuccess = "Success"

// StatusError is a reply in which the hub reported a failure.
type StatusError struct {
	Service Service
	Status  string
	Code    int
	Text    string
}

func (e *StatusError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("%s: %s (code %d): %s", e.Service, e.Status, e.Code, e.Text)
	}
	return fmt.Sprintf("%s: %s (code %d)", e.Service, e.Status, e.Code)
}
