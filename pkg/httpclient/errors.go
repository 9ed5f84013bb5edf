package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
)

const maxErrorBody = 1 << 20

// errorEnvelope mirrors httputil.Response for decoding error bodies.
type errorEnvelope struct {
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// ParseResponseError turns a non-2xx response into an *apperrors.AppError.
// JSON error envelopes keep their code, message and fields; plain-text
// bodies become the message. The body is consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("status %d (failed to read body: %w)", resp.StatusCode, err)
	}

	appErr := &apperrors.AppError{
		Code:    codeForStatus(resp.StatusCode),
		Message: strings.TrimSpace(string(raw)),
		Status:  resp.StatusCode,
		Err:     sentinelForStatus(resp.StatusCode),
	}

	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil && env.Error != nil {
		if env.Error.Code != "" {
			appErr.Code = env.Error.Code
		}
		appErr.Message = env.Error.Message
		appErr.Fields = env.Error.Fields
	}
	if appErr.Message == "" {
		appErr.Message = http.StatusText(resp.StatusCode)
	}
	return appErr
}

func sentinelForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusConflict:
		return apperrors.ErrAlreadyExists
	case http.StatusBadRequest:
		return apperrors.ErrInvalidInput
	case http.StatusUnprocessableEntity:
		return apperrors.ErrValidation
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	default:
		return apperrors.ErrInternal
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "ALREADY_EXISTS"
	case http.StatusBadRequest:
		return "INVALID_INPUT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "UPSTREAM_ERROR"
	}
}
