package blogapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel errors for backend call failures. Every *TransportError wraps one of these.
var (
	ErrUnreachable      = errors.New("blog api unreachable")
	ErrTimeout          = errors.New("blog api timeout")
	ErrUnexpectedStatus = errors.New("blog api returned non-2xx status")
	ErrInvalidResponse  = errors.New("blog api returned invalid response")
	ErrCanceled         = errors.New("blog api request canceled")
)

// TransportError is returned by every Client operation on a non-2xx response
// or a network failure. StatusCode is 0 when no response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerMessage extracts the server-provided message from err, if err is a
// *TransportError carrying one.
func ServerMessage(err error) (string, bool) {
	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message, true
	}
	return "", false
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &TransportError{Op: op, Err: fmt.Errorf("%w: %v", ErrCanceled, err)}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Op: op, Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Op: op, Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
	}

	return &TransportError{Op: op, Err: fmt.Errorf("%w: %v", ErrUnreachable, err)}
}

// errorBody covers the error shapes the backend produces: {"detail": "..."},
// validation lists {"detail": [{"msg": "..."}]}, and {"message": "..."}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type validationDetail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseErrorMessage returns the human-readable message from an error body, or "".
func parseErrorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}

	if len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil {
			return s
		}
		var list []validationDetail
		if err := json.Unmarshal(eb.Detail, &list); err == nil {
			msgs := make([]string, 0, len(list))
			for _, d := range list {
				if d.Msg != "" {
					msgs = append(msgs, d.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}

	return eb.Message
}
