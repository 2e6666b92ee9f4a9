package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrFailedToParseQuery   = errors.New("failed to parse query parameters")

	// ErrBinderNotApplicable tells the caller to skip this binder for the
	// request, e.g. an empty body or no query string.
	ErrBinderNotApplicable = errors.New("binder not applicable")
)
