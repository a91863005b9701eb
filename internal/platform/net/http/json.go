package http

import (
	"net/http"

	"sportsource/internal/platform/net/http/bind"
)

// JSONHandler adapts a pure JSON handler to a stdlib HandlerFunc
func JSONHandler[T any](fn func(*http.Request, T) (any, error)) http.HandlerFunc {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		return OK(out)
	})
}

// JSONHandlerNoBody calls fn without parsing a request body and wraps the result
func JSONHandlerNoBody(fn func(*http.Request) (any, error)) http.HandlerFunc {
	return Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return Error(err)
		}
		return OK(out)
	})
}
