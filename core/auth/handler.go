package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/storefront/backend/api/web"
	"github.com/storefront/backend/api/weberr"
	"github.com/storefront/backend/core/user"
	"github.com/storefront/backend/validate"
	"golang.org/x/crypto/bcrypt"
)

type LoginNew struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in LoginNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		usr, err := user.FetchByEmail(ctx, db, in.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("invalid credentials"))
			}
			return fmt.Errorf("fetching user by email: %w", err)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(in.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("invalid credentials"))
		}

		// Renew the token on privilege change to prevent session fixation.
		if err := session.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}

		session.Put(ctx, sessionUserID, usr.ID)
		session.Put(ctx, sessionRole, usr.Role)

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
