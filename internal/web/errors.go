package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and the request ID, then
// mapped through core.MapError so the client only ever sees the
// user-facing message, action and code. API routes answer JSON; pages get
// an HTML error page.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/linkboard/internal/core"
	"github.com/JonMunkholm/linkboard/internal/github"
	"github.com/JonMunkholm/linkboard/internal/logging"
	"github.com/JonMunkholm/linkboard/internal/web/templates"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errNotLoggedIn = errors.New("not logged in")
	errBadRequest  = errors.New("invalid request body")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message"`
	Action  string                  `json:"action,omitempty"`
	Code    string                  `json:"code"`
	Stage   string                  `json:"stage,omitempty"`
	Fields  []core.ButtonFieldError `json:"fields,omitempty"`
}

// respondError logs err and answers with its user-facing form. A zero
// statusCode derives the status from err.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if statusCode == 0 {
		statusCode = statusFor(err)
	}
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	}
	if stage := core.FailedStage(err); stage != "" {
		attrs = append(attrs, "stage", stage)
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if !wantsJSON(r) {
		respondErrorHTML(r.Context(), w, userMsg, statusCode)
		return
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Stage:   core.FailedStage(err),
	}
	var verr *core.LinkValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, statusCode, resp)
}

// respondErrorJSON writes a JSON error response without logging.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders the error page.
func respondErrorHTML(ctx context.Context, w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render error page", "error", err)
	}
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var verr *core.LinkValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, core.ErrNoButtons),
		errors.Is(err, core.ErrUsernameRequired),
		errors.Is(err, core.ErrPasswordRequired),
		errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrInvalidURL),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidCredentials), errors.Is(err, errNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoDataset):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotCSV):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrEmptyDataset):
		return http.StatusUnprocessableEntity
	case strings.Contains(err.Error(), "file too large"):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, github.ErrUnauthorized), errors.Is(err, github.ErrNotFound):
		return http.StatusBadGateway
	}
	var se *github.StatusError
	if errors.As(err, &se) || strings.HasPrefix(core.MapError(err).Code, "GH") {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// wantsJSON reports whether the client should get a JSON error.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
