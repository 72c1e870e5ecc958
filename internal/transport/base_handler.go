package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/pkg/logger"
	"github.com/go-chi/chi"
)

// maxBodyBytes caps request bodies decoded by DecodeJSON.
const maxBodyBytes = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.writeError(w, status, ErrorResponse{Error: message})
}

func (h *BaseHandler) writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	if status >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", status, "message", body.Error, "code", body.Code)
	} else {
		h.Logger.Warn("http error", "status", status, "message", body.Error, "code", body.Code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("failed to encode error response", "error", err)
	}
}

// HandleServiceError maps AppErrors to their HTTP status. Anything else is a
// 500 with a generic message so storage errors never reach the client.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		h.Logger.Error("unhandled service error", "error", err)
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  string(internal.ErrCodeInternal),
		})
		return
	}

	if appErr.StatusCode >= http.StatusInternalServerError && appErr.Cause != nil {
		h.Logger.Error("service failure", "code", appErr.Code, "cause", appErr.Cause)
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	h.writeError(w, status, ErrorResponse{
		Error:   appErr.GetDetailedMessage(),
		Code:    string(appErr.Code),
		Details: appErr.Details,
	})
}

// DecodeJSON reads a single JSON document into dst, rejecting unknown fields.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return internal.NewValidationError("request body is empty", internal.ErrCodeValidationFailed)
		case errors.As(err, &syntaxErr):
			return internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed)
		case errors.As(err, &typeErr):
			return internal.NewValidationFieldError(typeErr.Field, fmt.Sprintf("%s has an invalid type", typeErr.Field), internal.ErrCodeValidationFailed)
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			return internal.NewValidationError(strings.TrimPrefix(err.Error(), "json: "), internal.ErrCodeValidationFailed)
		default:
			return internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

// IDParam parses a positive integer URL parameter.
func (h *BaseHandler) IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(name, fmt.Sprintf("invalid %s", name), internal.ErrCodeValidationFailed)
	}
	return id, nil
}

// ClientIP returns the connection's peer IP without its port, or "unknown"
// when RemoteAddr does not hold an IP. Forwarding headers are ignored.
func (h *BaseHandler) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	if ip == nil {
		return "unknown"
	}
	return ip.String()
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return strings.TrimSpace(authHeader[7:])
}
