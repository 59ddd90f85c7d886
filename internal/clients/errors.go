package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/catalog"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/coerce"
)

// APIError is an upstream answer of the form {"error": "..."}. The message is
// meant for the shopper.
type APIError struct {
	Upstream string
	Message  string
}

func (e *APIError) Error() string {
	return e.Upstream + ": " + e.Message
}

// UpstreamError is a non-2xx answer.
type UpstreamError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned %d", e.Upstream, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return catalog.ErrNotFound
	}
	return nil
}

// apiErrorMessage reports whether body is an object carrying a truthy
// "error" member.
func apiErrorMessage(body []byte) (string, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return "", false
	}
	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return "", false
	}
	// Falsy values mean no error, as the storefront UI reads them.
	switch string(bytes.TrimSpace(probe.Error)) {
	case "", "null", "false", "0", `""`:
		return "", false
	}
	msg := coerce.String(probe.Error)
	if msg == "" {
		msg = string(probe.Error)
	}
	return msg, true
}
