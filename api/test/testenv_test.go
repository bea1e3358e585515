package test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/storefront/backend/api"
	"github.com/storefront/backend/config"
	"github.com/storefront/backend/core/cart"
	"github.com/storefront/backend/core/claims"
	"github.com/storefront/backend/core/product"
	"github.com/storefront/backend/core/user"
	"github.com/storefront/backend/database"
	"github.com/storefront/backend/random"
	"github.com/storefront/backend/validate"
	"golang.org/x/crypto/bcrypt"
)

// TestEnv is a fully wired api instance backed by a throwaway postgres
// container, with one admin and one plain user seeded.
type TestEnv struct {
	DB     *sqlx.DB
	Server *httptest.Server
	URL    string

	AdminID    string
	AdminEmail string
	AdminPass  string

	UserID    string
	UserEmail string
	UserPass  string
}

// NewTestEnv spins up a postgres container named after the test, migrates the
// schema, seeds the users and starts an httptest server around the api mux.
// Everything is torn down via t.Cleanup.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}

	res, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(res); err != nil {
			t.Logf("purging postgres container: %v", err)
		}
	})

	cfg := config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       "localhost:" + res.GetPort("5432/tcp"),
		Name:       name,
		DisableTLS: true,
	}

	var db *sqlx.DB
	pool.MaxWait = time.Minute
	if err := pool.Retry(func() error {
		db, err = database.Open(cfg)
		return err
	}); err != nil {
		return nil, fmt.Errorf("connecting to test database: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	session := scs.New()
	session.Lifetime = time.Hour

	svc := cart.NewService(
		log,
		cart.NewSQLStore(db),
		product.NewSQLCatalog(db),
		cart.NewCountCache(128),
		cart.Pricing{
			FreeShippingThreshold: decimal.NewFromInt(50),
			ShippingFee:           decimal.RequireFromString("4.99"),
		},
	)

	mux := api.APIMux(api.APIConfig{
		Log:     log,
		DB:      db,
		Session: session,
		Cart:    svc,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	srv.Client().Jar = jar

	env := TestEnv{
		DB:         db,
		Server:     srv,
		URL:        srv.URL,
		AdminEmail: fmt.Sprintf("admin-%s@test.com", random.String(6)),
		AdminPass:  random.String(12),
		UserEmail:  fmt.Sprintf("user-%s@test.com", random.String(6)),
		UserPass:   random.String(12),
	}

	env.AdminID, err = seedUser(db, env.AdminEmail, env.AdminPass, claims.RoleAdmin)
	if err != nil {
		return nil, err
	}
	env.UserID, err = seedUser(db, env.UserEmail, env.UserPass, claims.RoleUser)
	if err != nil {
		return nil, err
	}

	return &env, nil
}

// Client returns the server's client, which carries the session cookie
// across requests.
func (e *TestEnv) Client() *http.Client {
	return e.Server.Client()
}

func seedUser(db *sqlx.DB, email, password, role string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:           validate.GenerateID(),
		Email:        email,
		Name:         "Test " + role,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := user.Create(context.Background(), db, usr); err != nil {
		return "", fmt.Errorf("seeding %s: %w", role, err)
	}

	return usr.ID, nil
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parsing decimal %q: %v", s, err)
	}
	return d
}

func Login(s *httptest.Server, email, password string) error {
	body := fmt.Sprintf(`{"email": %q, "password": %q}`, email, password)

	r, err := http.NewRequest(http.MethodPost, s.URL+"/auth/login", strings.NewReader(body))
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")

	w, err := s.Client().Do(r)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login as %s: status code %s", email, w.Status)
	}
	return nil
}

func Logout(s *httptest.Server) error {
	r, err := http.NewRequest(http.MethodPost, s.URL+"/auth/logout", nil)
	if err != nil {
		return err
	}

	w, err := s.Client().Do(r)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: status code %s", w.Status)
	}
	return nil
}
