package config

import "time"

type Config struct {
	Web     Web
	Cors    Cors
	DB      DB
	Session Session
	Cart    Cart
	Rate    Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost:5432"`
	Name       string `conf:"default:storefront"`
	DisableTLS bool   `conf:"default:true"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
}

// Cart holds the pricing knobs of the cart engine. Money values are decimal
// strings so they survive the environment untouched.
type Cart struct {
	FreeShippingThreshold string `conf:"default:50.00"`
	ShippingFee           string `conf:"default:4.99"`
	CountCacheSize        int    `conf:"default:16384"`
}

type Rate struct {
	Burst  int     `conf:"default:20"`
	Expiry int     `conf:"default:10"`
	RPS    float64 `conf:"default:10"`
}
