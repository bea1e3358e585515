package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/storefront/backend/api/web"
	"github.com/storefront/backend/api/weberr"
)

// Errors logs the error flowing out of a handler and, when the error carries
// a response, renders it. Anything undecorated becomes a plain 500.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := map[string]interface{}{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if f, ok := weberr.Fields(err); ok {
				for k, v := range f {
					fields[k] = v
				}
			}

			log.WithFields(logrus.Fields(fields)).Error("ERROR")

			if body, code, ok := weberr.Response(err); ok {
				return web.Respond(ctx, w, body, code)
			}

			er := weberr.ErrorResponse{
				Error: http.StatusText(http.StatusInternalServerError),
			}
			return web.Respond(ctx, w, er, http.StatusInternalServerError)
		}
		return h
	}
	return m
}
