package account_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thegrail/grail-backend/pkg/email"
	"github.com/thegrail/grail-backend/svc/account"
)

type captureSender struct {
	mu   sync.Mutex
	sent []email.SendParams
}

func (s *captureSender) Send(ctx context.Context, params email.SendParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, params)
	return nil
}

func TestVerificationEmailHandler(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	name, handler := account.NewVerificationEmailHandler(sender, "https://thegrail.app/")

	assert.Equal(t, "account.VerificationEmail", name)

	payload, err := json.Marshal(account.VerificationEmail{
		Email: "alice@example.com",
		Token: "tok123",
	})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), payload))

	require.Len(t, sender.sent, 1)
	sent := sender.sent[0]
	assert.Equal(t, "alice@example.com", sent.To)
	assert.Equal(t, "Verify your email", sent.Subject)
	assert.Contains(t, sent.BodyHTML, "https://thegrail.app/verify-email/tok123")
	assert.Contains(t, sent.BodyHTML, "alice@example.com")
}
