package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/storefront/backend/api/web"
	"github.com/storefront/backend/api/weberr"
	"github.com/storefront/backend/core/claims"
	"github.com/storefront/backend/core/product"
	"github.com/storefront/backend/validate"
)

func HandleShow(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		sum := svc.GetCartSummary(ctx, clm.UserID)
		return web.Respond(ctx, w, sum, http.StatusOK)
	}
}

func HandleCount(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		count := struct {
			Count int `json:"count"`
		}{
			Count: svc.GetItemCount(ctx, clm.UserID),
		}
		return web.Respond(ctx, w, count, http.StatusOK)
	}
}

func HandleValidate(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		res, err := svc.ValidateCart(ctx, clm.UserID)
		if err != nil {
			return fmt.Errorf("validating cart: %w", err)
		}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleCreateItem(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := validate.CheckID(in.ProductID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := svc.AddToCart(ctx, clm.UserID, in.ProductID, in.Quantity, in.Size, in.Color); err != nil {
			return toWebErr(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleUpdateItem(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		lineID := web.Param(r, "line_id")

		var up QuantityUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := svc.UpdateQuantity(ctx, clm.UserID, lineID, up.Quantity); err != nil {
			return toWebErr(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDeleteItem(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		productID := web.Param(r, "product_id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		size := web.Query(r, "size")
		color := web.Query(r, "color")

		if err := svc.RemoveFromCart(ctx, clm.UserID, productID, size, color); err != nil {
			return toWebErr(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDelete(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if err := svc.ClearCart(ctx, clm.UserID); err != nil {
			return toWebErr(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// toWebErr maps the engine's error taxonomy onto HTTP responses. Anything
// unknown flows through undecorated and becomes a logged 500.
func toWebErr(err error) error {
	var stockErr *InsufficientStockError
	var variantErr *product.InvalidVariantError

	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidLineID):
		return weberr.NewError(err, err.Error(), http.StatusBadRequest)

	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrLineNotFound):
		return weberr.NotFound(err)

	case errors.As(err, &variantErr):
		return weberr.Unprocessable(err, variantErr.Error())

	case errors.As(err, &stockErr):
		return weberr.Conflict(err, fmt.Sprintf("only %d available", stockErr.Available))

	case errors.Is(err, ErrConcurrentUpdate):
		return weberr.Conflict(err, "the cart was modified concurrently, please retry")
	}

	return err
}
