package billing_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thegrail/grail-backend/svc/account"
	"github.com/thegrail/grail-backend/svc/billing"
	"github.com/thegrail/grail-backend/svc/license"
)

type mockProvider struct {
	events        map[string]*billing.Event
	invoices      map[string]*billing.Invoice
	subscriptions map[string]*billing.Subscription

	verifyErr  error
	invoiceErr error
	subErr     error

	checkout *billing.CheckoutSession
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		events:        make(map[string]*billing.Event),
		invoices:      make(map[string]*billing.Invoice),
		subscriptions: make(map[string]*billing.Subscription),
	}
}

func (m *mockProvider) VerifyEvent(payload []byte, signature string) (*billing.Event, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	event, ok := m.events[string(payload)]
	if !ok {
		return nil, billing.ErrInvalidSignature
	}
	return event, nil
}

func (m *mockProvider) GetInvoice(ctx context.Context, id string) (*billing.Invoice, error) {
	if m.invoiceErr != nil {
		return nil, m.invoiceErr
	}
	inv, ok := m.invoices[id]
	if !ok {
		return nil, billing.ErrUpstreamProvider
	}
	return inv, nil
}

func (m *mockProvider) GetSubscription(ctx context.Context, id string) (*billing.Subscription, error) {
	if m.subErr != nil {
		return nil, m.subErr
	}
	sub, ok := m.subscriptions[id]
	if !ok {
		return nil, billing.ErrUpstreamProvider
	}
	return sub, nil
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, email, priceID string) (*billing.CheckoutSession, error) {
	if m.checkout == nil {
		return nil, billing.ErrUpstreamProvider
	}
	return m.checkout, nil
}

func (m *mockProvider) CancelSubscription(ctx context.Context, id string) (*billing.Subscription, error) {
	sub, err := m.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	canceled := *sub
	canceled.Status = "canceled"
	return &canceled, nil
}

type mockDirectory struct {
	users map[string]*account.User
}

func newMockDirectory(users ...*account.User) *mockDirectory {
	d := &mockDirectory{users: make(map[string]*account.User)}
	for _, u := range users {
		d.users[u.Email] = u
	}
	return d
}

func (d *mockDirectory) GetUserByEmail(ctx context.Context, email string) (*account.User, error) {
	u, ok := d.users[email]
	if !ok {
		return nil, account.ErrNotFound
	}
	return u, nil
}

type issuedLicense struct {
	info     license.UserInfo
	duration time.Duration
}

type mockIssuer struct {
	mu     sync.Mutex
	issued []issuedLicense
	err    error
}

func (i *mockIssuer) Issue(ctx context.Context, info license.UserInfo, duration time.Duration) (*license.License, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return nil, i.err
	}
	i.issued = append(i.issued, issuedLicense{info: info, duration: duration})
	return &license.License{
		ID:         uuid.NewString(),
		UserID:     info.ID,
		LicenseKey: "key-" + uuid.NewString(),
		ExpireDate: time.Now().Add(duration),
	}, nil
}

func (i *mockIssuer) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.issued)
}

type failingDeduper struct{ err error }

func (d *failingDeduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	return false, d.err
}
