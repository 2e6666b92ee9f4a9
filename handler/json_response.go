package handler

import (
	"encoding/json"
	"net/http"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the JSON body of every API response.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	User    any    `json:"user,omitempty"`
}

type jsonResponse struct {
	code int
	body Envelope
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	return WriteJSON(w, j.code, j.body)
}

// JSONOption configures a success response.
type JSONOption func(*jsonResponse)

func WithStatus(code int) JSONOption {
	return func(r *jsonResponse) { r.code = code }
}

func WithMessage(message string) JSONOption {
	return func(r *jsonResponse) { r.body.Message = message }
}

func WithData(data any) JSONOption {
	return func(r *jsonResponse) { r.body.Data = data }
}

// WithUser sets the envelope's top-level "user" field.
func WithUser(user any) JSONOption {
	return func(r *jsonResponse) { r.body.User = user }
}

// JSON returns a 200 success envelope shaped by opts.
//
//	return handler.JSON(handler.WithMessage("Signed in"), handler.WithUser(u))
func JSON(opts ...JSONOption) Response {
	r := &jsonResponse{
		code: http.StatusOK,
		body: Envelope{Status: StatusSuccess},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Success is JSON with only a message.
func Success(message string, opts ...JSONOption) Response {
	return JSON(append([]JSONOption{WithMessage(message)}, opts...)...)
}

type errorResponse struct{ err error }

// Render hands the error back to Wrap, which passes it to the configured
// ErrorHandler.
func (e errorResponse) Render(http.ResponseWriter, *http.Request) error {
	return e.err
}

// Error returns a Response that fails with err.
func Error(err error) Response {
	if err == nil {
		err = ErrInternalServerError
	}
	return errorResponse{err: err}
}

// WriteJSON writes body with the given status code.
func WriteJSON(w http.ResponseWriter, code int, body any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(body)
}

// WriteError writes an error envelope. It is shared with plain
// net/http middleware that sits outside Wrap.
func WriteError(w http.ResponseWriter, code int, message string) error {
	return WriteJSON(w, code, Envelope{Status: StatusError, Message: message})
}
