package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/storefront/backend/api/middleware"
	"github.com/storefront/backend/api/web"
	"github.com/storefront/backend/core/auth"
	"github.com/storefront/backend/core/cart"
	"github.com/storefront/backend/core/product"
	"github.com/storefront/backend/rate"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	DB         *sqlx.DB
	Session    *scs.SessionManager
	Cart       *cart.Service
	Limiter    *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.Limiter != nil {
		a.mw = append(a.mw, middleware.RateLimit(cfg.Limiter))
	}

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)

	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))

	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/products/{id}", product.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Cart), authen)
	a.Handle(http.MethodGet, "/cart/count", cart.HandleCount(cfg.Cart), authen)
	a.Handle(http.MethodGet, "/cart/validate", cart.HandleValidate(cfg.Cart), authen)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.Cart), authen)
	a.Handle(http.MethodPut, "/cart/items/{line_id}", cart.HandleUpdateItem(cfg.Cart), authen)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.Cart), authen)
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleDeleteItem(cfg.Cart), authen)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
