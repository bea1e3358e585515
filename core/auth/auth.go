package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/storefront/backend/api/web"
	"github.com/storefront/backend/api/weberr"
	"github.com/storefront/backend/core/claims"
)

const (
	sessionUserID = "userID"
	sessionRole   = "role"
)

// LoadAndSave bridges the scs http middleware into the handler chain so
// every request sees a loaded session and writes it back on the way out.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			var err error
			hn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			})

			session.LoadAndSave(hn).ServeHTTP(w, r.WithContext(ctx))
			return err
		}
		return h
	}
	return m
}

// Authenticate requires a logged-in session and stores its claims in the
// context for downstream handlers.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			userID := session.GetString(ctx, sessionUserID)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			clm := claims.Claims{
				UserID: userID,
				Role:   session.GetString(ctx, sessionRole),
			}

			ctx = claims.Set(ctx, clm)
			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}

// Admin is Authenticate plus an admin-role gate.
func Admin(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			userID := session.GetString(ctx, sessionUserID)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			role := session.GetString(ctx, sessionRole)
			if role != claims.RoleAdmin {
				return weberr.NotAuthorized(errors.New("user is not an admin"))
			}

			ctx = claims.Set(ctx, claims.Claims{UserID: userID, Role: role})
			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}
