package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned for non-2xx responses. Message carries the
// server's {"error": "..."} payload when present.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// GetJSON retrieves the HTTP content and decodes it into the passed target.
func GetJSON[T any](ctx context.Context, url string, target *T) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating HTTP GET request: %w", err)
	}
	return doJSON(req, target)
}

// PostJSON encodes body as JSON, posts it, and decodes the response into target.
func PostJSON[T any](ctx context.Context, url string, body any, target *T) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("creating HTTP POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(req, target)
}

func doJSON[T any](req *http.Request, target *T) error {
	c, err := GetHTTPClient()
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	req.Header.Set("User-Agent", clientAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req) //nolint:gosec // URL supplied by the CLI user
	if err != nil {
		return fmt.Errorf("executing %s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		PrintHTTPResponse(resp)
		return readStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding content: %w", err)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}

	var payload struct {
		Error string `json:"error"`
	}
	b, err := io.ReadAll(resp.Body)
	if err == nil && json.Unmarshal(b, &payload) == nil {
		se.Message = payload.Error
	}
	return se
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
