package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/storefront/backend/api/web"
)

// Panics converts a panicking handler into an error so the chain above can
// log and respond instead of tearing down the connection.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {

			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("panic: %v, trace: %s", rec, debug.Stack())
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
