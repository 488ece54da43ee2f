package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Error is a non-2xx response from the API.
type Error struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
}

// Temporary reports whether the status points at a transient server fault
// rather than a rejection of the request itself.
func (e *Error) Temporary() bool {
	return e.Status >= 500 || e.Status == 408 || e.Status == 429
}

// ValidationError is a client-side input problem caught before any request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// UserMessage maps an error to the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && !apiErr.Temporary() {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return fmt.Sprintf("Request failed (status %d)", apiErr.Status)
	}
	return UnreachableMessage
}

// UnreachableMessage is shown for transient failures once retries are spent.
const UnreachableMessage = "Unable to reach the service. Check your connection and try again."

// parseDetail extracts the detail message from an error body. FastAPI-style
// validation errors carry a list of {msg} objects instead of a string.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if m := strings.TrimSpace(it.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func requireFields(fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(fields[name]) == "" {
			return &ValidationError{Field: name, Reason: "is required"}
		}
	}
	return nil
}
