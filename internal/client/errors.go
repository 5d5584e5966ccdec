package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// GenericErrorMessage is shown when the server gives no usable detail.
const GenericErrorMessage = "요청 처리 중 오류가 발생했습니다."

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Payload map[string]any // nil when the body was not a JSON object
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Message: GenericErrorMessage}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	e.Payload = payload
	if msg := payloadMessage(payload); msg != "" {
		e.Message = msg
	}
	return e
}

// payloadMessage picks the most specific human-readable message from an error body.
// Preference: detail, error, message, then the first field error by key order.
func payloadMessage(payload map[string]any) string {
	for _, k := range []string{"detail", "error", "message"} {
		if s := firstString(payload[k]); s != "" {
			return s
		}
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s := firstString(payload[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s := firstString(item); s != "" {
				return s
			}
		}
	}
	return ""
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// UserMessage unwraps err into text suitable for an alert.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return GenericErrorMessage
}
