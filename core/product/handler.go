package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/storefront/backend/api/web"
	"github.com/storefront/backend/api/weberr"
	"github.com/storefront/backend/database"
	"github.com/storefront/backend/validate"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ps, err := FetchAll(ctx, db)
		if err != nil {
			return fmt.Errorf("fetching products: %w", err)
		}

		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "id")

		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		p, err := Fetch(ctx, db, productID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", productID, err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn ProductNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if pn.Price.IsNegative() {
			err := errors.New("price must not be negative")
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		p := Product{
			ID:           validate.GenerateID(),
			Name:         pn.Name,
			Description:  pn.Description,
			ImageURL:     pn.ImageURL,
			Price:        pn.Price,
			Stock:        pn.Stock,
			ShippingCost: pn.ShippingCost,
			FreeShipping: pn.FreeShipping,
			Active:       true,
			HasVariants:  len(pn.Variants) > 0,
			CreatedAt:    now,
			UpdatedAt:    now,
			Variants:     buildVariants("", pn.Variants),
		}
		for i := range p.Variants {
			p.Variants[i].ProductID = p.ID
		}

		err := database.Transaction(db, func(tx sqlx.ExtContext) error {
			return Create(ctx, tx, p)
		})
		if err != nil {
			return fmt.Errorf("creating product: %w", err)
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "id")

		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var up ProductUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		p, err := Fetch(ctx, db, productID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", productID, err)
		}

		if up.Name != nil {
			p.Name = *up.Name
		}
		if up.Description != nil {
			p.Description = *up.Description
		}
		if up.ImageURL != nil {
			p.ImageURL = *up.ImageURL
		}
		if up.Price != nil {
			if up.Price.IsNegative() {
				err := errors.New("price must not be negative")
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
			p.Price = *up.Price
		}
		if up.Stock != nil {
			p.Stock = *up.Stock
		}
		if up.ShippingCost != nil {
			p.ShippingCost = *up.ShippingCost
		}
		if up.FreeShipping != nil {
			p.FreeShipping = *up.FreeShipping
		}
		if up.Active != nil {
			p.Active = *up.Active
		}

		replaceVariants := up.Variants != nil
		if replaceVariants {
			p.Variants = buildVariants(p.ID, up.Variants)
			p.HasVariants = len(p.Variants) > 0
		}

		p.UpdatedAt = time.Now().UTC()

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			return Update(ctx, tx, p, replaceVariants)
		})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.Conflict(err, "the product was modified concurrently")
			}
			return fmt.Errorf("updating product[%s]: %w", productID, err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func buildVariants(productID string, vns []VariantNew) []Variant {
	vs := make([]Variant, 0, len(vns))
	for _, vn := range vns {
		size := NormalizeSelection(vn.Size)
		color := NormalizeSelection(vn.Color)
		vs = append(vs, Variant{
			ProductID:    productID,
			Key:          VariantKey(size, color),
			Size:         size,
			Color:        color,
			Price:        vn.Price,
			Stock:        vn.Stock,
			ImageURL:     vn.ImageURL,
			ShippingCost: vn.ShippingCost,
			FreeShipping: vn.FreeShipping,
		})
	}
	return vs
}
