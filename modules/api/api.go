package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/thegrail/grail-backend/pkg/logger"
	"github.com/thegrail/grail-backend/svc/account"
	"github.com/thegrail/grail-backend/svc/billing"
	"github.com/thegrail/grail-backend/svc/license"
)

// Config holds HTTP API configuration.
type Config struct {
	DownloadDir    string        `env:"DOWNLOAD_DIR" envDefault:"./download"` // DownloadDir holds the guidebook and app bundles served by the downloads endpoints.
	RequestTimeout time.Duration `env:"API_REQUEST_TIMEOUT" envDefault:"30s"`
}

// AccountService is the account surface the API depends on. Satisfied by
// *account.Service.
type AccountService interface {
	Signup(ctx context.Context, username, email, password string) (*account.User, error)
	SignIn(ctx context.Context, email, password string) (string, *account.User, error)
	FederatedSignIn(ctx context.Context, name, email, picture string) (string, *account.User, error)
	VerifyEmail(ctx context.Context, token string) (*account.User, error)
	ResendVerification(ctx context.Context, email string) error
	GetUser(ctx context.Context, id string) (*account.User, error)
	GetUserByEmail(ctx context.Context, email string) (*account.User, error)
}

// BillingService is the billing surface the API depends on. Satisfied by
// *billing.Service.
type BillingService interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) error
	CreateCheckoutSession(ctx context.Context, email, priceID string) (*billing.CheckoutSession, error)
	RetrieveSubscription(ctx context.Context, id string) (*billing.Subscription, error)
	CancelSubscription(ctx context.Context, id string) (*billing.Subscription, error)
}

// LicenseService is the license surface the API depends on. Satisfied by
// *license.Service.
type LicenseService interface {
	Available(ctx context.Context, userID string) ([]license.License, error)
	ValidateAndBind(ctx context.Context, key, deviceAddress string) (*license.License, error)
}

// Deps bundles everything the router needs. All services are required;
// health probes are optional and reported as "disabled" when nil.
type Deps struct {
	Accounts AccountService
	Billing  BillingService
	Licenses LicenseService

	MongoProbe func(context.Context) error
	RedisProbe func(context.Context) error

	Log *slog.Logger
}

// NewRouter assembles the full HTTP API.
func NewRouter(cfg Config, deps Deps) http.Handler {
	if deps.Accounts == nil {
		panic("api: account service is required")
	}
	if deps.Billing == nil {
		panic("api: billing service is required")
	}
	if deps.Licenses == nil {
		panic("api: license service is required")
	}
	if deps.Log == nil {
		deps.Log = logger.NewDiscard()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Mount("/users", (&usersHandler{
		accounts: deps.Accounts,
		validate: validate,
		log:      deps.Log.With(logger.Component("api.users")),
	}).routes())

	r.Mount("/subscriptions", (&subscriptionsHandler{
		billing:  deps.Billing,
		licenses: deps.Licenses,
		accounts: deps.Accounts,
		validate: validate,
		log:      deps.Log.With(logger.Component("api.subscriptions")),
	}).routes())

	r.Mount("/downloads", (&downloadsHandler{
		dir: cfg.DownloadDir,
		log: deps.Log.With(logger.Component("api.downloads")),
	}).routes())

	r.Get("/health", (&healthHandler{
		mongo: deps.MongoProbe,
		redis: deps.RedisProbe,
	}).handle)

	return r
}
