package mattermost

import "fmt"

// apiErrorBody is the JSON error envelope the server returns on non-2xx.
type apiErrorBody struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// AuthError indicates invalid credentials or an expired session token.
// It requires a fresh login; it is never retried automatically.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return "authentication failed: " + e.Message
}

// NotMemberError indicates the user lacks access to a team or channel.
type NotMemberError struct {
	Resource string // team or channel id the request was scoped to
	Message  string
}

func (e *NotMemberError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "not a member"
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s", e.Resource, msg)
	}
	return msg
}

// APIError is any other non-2xx response from the server.
type APIError struct {
	StatusCode int
	ID         string
	Message    string
	RetryAfter int // seconds, set on 429 responses
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d %s): %s", e.StatusCode, e.ID, e.Message)
}

// NetworkError wraps a transport-level failure (DNS, connect, timeout).
// Polling and manual refresh are the retry mechanism for these.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }
