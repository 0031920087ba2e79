package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrMissingToken   = errors.New("API token is required: set Options.Token or " + TokenEnv)
	ErrNoNextPage     = errors.New("no next page")
	ErrNoPreviousPage = errors.New("no previous page")
	ErrNoCount        = errors.New("no count URL")
	ErrMalformedPage  = errors.New("malformed page")
)

// Direction names a pagination link.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// NavigationError reports a move past the first or last page.
type NavigationError struct {
	Direction Direction
}

func (e *NavigationError) Error() string {
	return "no " + string(e.Direction) + " page"
}

func (e *NavigationError) Unwrap() error {
	if e.Direction == DirectionPrevious {
		return ErrNoPreviousPage
	}
	return ErrNoNextPage
}

// TransportError is a non-2xx response.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// parseError reads the error body of a DRF response. The detail, message
// and error keys are tried in turn, then the status line.
func parseError(rsp *http.Response, method, path string) error {
	var msg struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	body, _ := io.ReadAll(io.LimitReader(rsp.Body, 1<<20))
	_ = json.Unmarshal(body, &msg)

	e := &TransportError{Method: method, Path: path, StatusCode: rsp.StatusCode}
	switch {
	case msg.Detail != "":
		e.Message = msg.Detail
	case msg.Message != "":
		e.Message = msg.Message
	case msg.Error != "":
		e.Message = msg.Error
	default:
		e.Message = fmt.Sprintf("Status %d: %s", rsp.StatusCode, rsp.Status)
	}
	return e
}
