// Package handler provides type-safe HTTP request handling.
//
// A HandlerFunc receives a Context and a bound request value and returns a
// Response. Wrap adapts it to http.HandlerFunc, running binders before the
// handler and routing every failure through one ErrorHandler:
//
//	signin := func(ctx handler.Context, req SigninRequest) handler.Response {
//		user, pair, err := svc.Login(ctx, req.Email, req.Password)
//		if err != nil {
//			return handler.Error(err)
//		}
//		cookies.Set(ctx.ResponseWriter(), pair)
//		return handler.JSON(handler.WithUser(user.Profile()))
//	}
//
//	r.Post("/signin", handler.Wrap(signin,
//		handler.WithBinders[handler.Context, SigninRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, SigninRequest](errHandler),
//	))
//
// Every response body is an Envelope: {"status":"success"|"error",
// "message":..., "user":..., "data":...}. HTTPError values carry the status
// code and client-facing message; Classify maps any other error to a status,
// and NewErrorHandler logs each failure before writing the envelope.
package handler
