package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code       errors.Code `json:"code"`
	Message    string      `json:"message"`
	RetryAfter int         `json:"retry_after,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err with the status of its code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err)
	}

	detail := errorDetail{Code: code, Message: errors.UserMessage(err)}
	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) && rl.RetryAfter > 0 {
		detail.RetryAfter = rl.RetryAfter
	}
	writeJSON(w, status, errorBody{Error: detail})
}

// statusOf maps an error code to an HTTP status.
func statusOf(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeEmptyContent, errors.ErrCodeNoRows:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	if errors.KindOf(err) == errors.KindInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
