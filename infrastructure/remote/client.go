// Package remote defines the backend surface this layer consumes. The
// backend wraps every response in a {success, message, data} envelope; a
// success=false envelope or a null data field is treated exactly like a
// transport failure by the callers upstream.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	appErrors "lugares-client/pkg/errors"
)

// Envelope is the wire wrapper every backend response is assumed to use.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var nullJSON = []byte("null")

// Payload returns the data field, or a protocol error when the envelope
// reports failure or carries no data.
func (e *Envelope) Payload() (json.RawMessage, error) {
	if !e.Success {
		msg := e.Message
		if msg == "" {
			msg = "backend rejected the request"
		}
		return nil, appErrors.NewProtocol(msg)
	}
	if len(e.Data) == 0 || bytes.Equal(e.Data, nullJSON) {
		return nil, appErrors.NewProtocol("response carried no data")
	}
	return e.Data, nil
}

// Client is the transport boundary. Implementations must return a typed
// error (transport, protocol or unauthorized) rather than ever panicking;
// the fallback orchestration above relies on that.
type Client interface {
	Get(ctx context.Context, path string, query url.Values) (*Envelope, error)
	Post(ctx context.Context, path string, body any) (*Envelope, error)

	// SetToken installs the bearer credential attached to subsequent
	// requests; ClearToken removes it.
	SetToken(token string)
	ClearToken()
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"fullName"`
	StudentID string `json:"studentId,omitempty"`
	UserType  string `json:"userType"`
}
