package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"videogen/internal/domain"
)

const maxErrorBody = 4096

type remoteError struct {
	Detail  string `json:"detail"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e remoteError) text() string {
	for _, s := range []string{e.Error.Message, e.Detail, e.Message, e.Title} {
		if strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// doJSON performs one request and classifies failures into the domain error
// taxonomy. 401/403 become AuthorizationError, 400/404/422 ValidationError or
// ErrNotFound, anything else TransportError.
func doJSON(ctx context.Context, client *http.Client, op, method, endpoint string, header http.Header, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return &domain.TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		return &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return classifyStatus(op, resp.StatusCode, raw)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func classifyStatus(op string, code int, raw []byte) error {
	var detail remoteError
	message := ""
	if err := json.Unmarshal(raw, &detail); err == nil {
		message = detail.text()
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
		return &domain.AuthorizationError{StatusCode: code, Message: message}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &domain.ValidationError{StatusCode: code, Message: message}
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	default:
		if message != "" {
			return &domain.TransportError{Op: op, StatusCode: code, Err: errors.New(message)}
		}
		return &domain.TransportError{Op: op, StatusCode: code}
	}
}
