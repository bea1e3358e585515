package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/storefront/backend/api"
	"github.com/storefront/backend/config"
	"github.com/storefront/backend/core/cart"
	"github.com/storefront/backend/core/product"
	"github.com/storefront/backend/database"
	"github.com/storefront/backend/rate"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "STOREFRONT"
	var cfg config.Config
	if _, err := conf.Parse(prefix, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate db schema: %w", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime

	threshold, err := decimal.NewFromString(cfg.Cart.FreeShippingThreshold)
	if err != nil {
		return fmt.Errorf("parsing free shipping threshold: %w", err)
	}
	fee, err := decimal.NewFromString(cfg.Cart.ShippingFee)
	if err != nil {
		return fmt.Errorf("parsing shipping fee: %w", err)
	}

	cartSvc := cart.NewService(
		logger,
		cart.NewSQLStore(db),
		product.NewSQLCatalog(db),
		cart.NewCountCache(cfg.Cart.CountCacheSize),
		cart.Pricing{FreeShippingThreshold: threshold, ShippingFee: fee},
	)

	limiter := rate.NewLimiter(cfg.Rate.Burst, time.Duration(cfg.Rate.Expiry)*time.Minute, cfg.Rate.RPS)

	mux := api.APIMux(api.APIConfig{
		CorsOrigin: cfg.Cors.Origin,
		Log:        logger,
		DB:         db,
		Session:    sessionManager,
		Cart:       cartSvc,
		Limiter:    limiter,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}
