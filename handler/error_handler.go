package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tilestore/pkg/binder"
	"github.com/dmitrymomot/tilestore/pkg/logger"
	"github.com/dmitrymomot/tilestore/pkg/validator"
)

// Classify maps err to a status code and client-facing message. Unknown
// errors become a 500 with a generic message.
func Classify(err error) (int, string) {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, httpErr.Message
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}

	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, ErrUnsupportedMediaType.Message
	case errors.Is(err, binder.ErrFailedToParseJSON), errors.Is(err, binder.ErrFailedToParseQuery):
		return http.StatusBadRequest, "Invalid request body"
	}

	return http.StatusInternalServerError, ErrInternalServerError.Message
}

// NewErrorHandler returns an ErrorHandler that writes the JSON error
// envelope and logs the failure: warn for 4xx, error for 5xx.
func NewErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		code, message := Classify(err)
		r := ctx.Request()

		level := slog.LevelWarn
		if code >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.Error(err),
			slog.Int("status", code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if werr := WriteError(ctx.ResponseWriter(), code, message); werr != nil {
			log.LogAttrs(r.Context(), slog.LevelError, "failed to write error response",
				logger.Error(werr),
				logger.Component("error_handler"),
			)
		}
	}
}
