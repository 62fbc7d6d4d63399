package api_test

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/thegrail/grail-backend/modules/api"
	"github.com/thegrail/grail-backend/svc/account"
	"github.com/thegrail/grail-backend/svc/billing"
	"github.com/thegrail/grail-backend/svc/license"
)

type mockAccounts struct {
	users  map[string]*account.User // keyed by email
	tokens map[string]*account.User // verification token -> user

	signupErr error
	resent    []string
}

func newMockAccounts(users ...*account.User) *mockAccounts {
	m := &mockAccounts{
		users:  make(map[string]*account.User),
		tokens: make(map[string]*account.User),
	}
	for _, u := range users {
		m.users[u.Email] = u
	}
	return m
}

func (m *mockAccounts) Signup(ctx context.Context, username, email, password string) (*account.User, error) {
	if m.signupErr != nil {
		return nil, m.signupErr
	}
	if _, ok := m.users[email]; ok {
		return nil, account.ErrEmailTaken
	}
	user := &account.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		CreatedAt: time.Now(),
	}
	m.users[email] = user
	return user, nil
}

func (m *mockAccounts) SignIn(ctx context.Context, email, password string) (string, *account.User, error) {
	user, ok := m.users[email]
	if !ok || password != "correct horse battery" {
		return "", nil, account.ErrInvalidCredentials
	}
	if !user.IsEmailVerified {
		return "", user, account.ErrEmailNotVerified
	}
	return "token-" + user.ID, user, nil
}

func (m *mockAccounts) FederatedSignIn(ctx context.Context, name, email, picture string) (string, *account.User, error) {
	user, ok := m.users[email]
	if !ok {
		user = &account.User{
			ID:              uuid.NewString(),
			Username:        name,
			Email:           email,
			AvatarURL:       picture,
			IsEmailVerified: true,
		}
		m.users[email] = user
	}
	return "token-" + user.ID, user, nil
}

func (m *mockAccounts) VerifyEmail(ctx context.Context, token string) (*account.User, error) {
	user, ok := m.tokens[token]
	if !ok {
		return nil, account.ErrTokenNotFound
	}
	delete(m.tokens, token)
	user.IsEmailVerified = true
	return user, nil
}

func (m *mockAccounts) ResendVerification(ctx context.Context, email string) error {
	user, ok := m.users[email]
	if !ok {
		return account.ErrNotFound
	}
	if user.IsEmailVerified {
		return account.ErrAlreadyVerified
	}
	m.resent = append(m.resent, email)
	return nil
}

func (m *mockAccounts) GetUser(ctx context.Context, id string) (*account.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, account.ErrNotFound
}

func (m *mockAccounts) GetUserByEmail(ctx context.Context, email string) (*account.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, account.ErrNotFound
	}
	return u, nil
}

type mockBilling struct {
	handleErr     error
	handled       [][]byte
	session       *billing.CheckoutSession
	sessionErr    error
	subscriptions map[string]*billing.Subscription
}

func (m *mockBilling) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	if m.handleErr != nil {
		return m.handleErr
	}
	m.handled = append(m.handled, payload)
	return nil
}

func (m *mockBilling) CreateCheckoutSession(ctx context.Context, email, priceID string) (*billing.CheckoutSession, error) {
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	return m.session, nil
}

func (m *mockBilling) RetrieveSubscription(ctx context.Context, id string) (*billing.Subscription, error) {
	sub, ok := m.subscriptions[id]
	if !ok {
		return nil, billing.ErrUpstreamProvider
	}
	return sub, nil
}

func (m *mockBilling) CancelSubscription(ctx context.Context, id string) (*billing.Subscription, error) {
	sub, err := m.RetrieveSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	canceled := *sub
	canceled.Status = "canceled"
	return &canceled, nil
}

type mockLicenses struct {
	byUser map[string][]license.License
	byKey  map[string]*license.License
}

func newMockLicenses() *mockLicenses {
	return &mockLicenses{
		byUser: make(map[string][]license.License),
		byKey:  make(map[string]*license.License),
	}
}

func (m *mockLicenses) Available(ctx context.Context, userID string) ([]license.License, error) {
	return m.byUser[userID], nil
}

func (m *mockLicenses) ValidateAndBind(ctx context.Context, key, deviceAddress string) (*license.License, error) {
	lic, ok := m.byKey[key]
	if !ok {
		return nil, license.ErrNotFound
	}
	if lic.IsExpired(time.Now()) {
		return nil, license.ErrExpired
	}
	if lic.DeviceAddress != nil && *lic.DeviceAddress != deviceAddress {
		return nil, license.ErrDeviceMismatch
	}
	lic.DeviceAddress = &deviceAddress
	return lic, nil
}

func newTestRouter(accounts *mockAccounts, b *mockBilling, lics *mockLicenses) http.Handler {
	if accounts == nil {
		accounts = newMockAccounts()
	}
	if b == nil {
		b = &mockBilling{}
	}
	if lics == nil {
		lics = newMockLicenses()
	}
	return api.NewRouter(api.Config{RequestTimeout: 5 * time.Second}, api.Deps{
		Accounts: accounts,
		Billing:  b,
		Licenses: lics,
	})
}
