package account_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/thegrail/grail-backend/svc/account"
)

// memStore is an in-memory Store mirroring the MongoDB implementation's
// atomicity guarantees: unique email and single-shot token consumption.
type memStore struct {
	mu    sync.Mutex
	users map[string]*account.User // by ID
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*account.User)}
}

func (s *memStore) Create(ctx context.Context, user *account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return account.ErrEmailTaken
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (*account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, account.ErrNotFound
}

func (s *memStore) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (s *memStore) FindByVerificationToken(ctx context.Context, token string) (*account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (s *memStore) SetVerificationToken(ctx context.Context, userID, token string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return account.ErrNotFound
	}
	u.VerificationToken = &token
	u.VerificationExpires = &expires
	u.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.VerificationToken != nil && *u.VerificationToken == token && u.VerificationExpires != nil && u.VerificationExpires.After(now) {
			u.IsEmailVerified = true
			u.VerificationToken = nil
			u.VerificationExpires = nil
			u.UpdatedAt = now
			cp := *u
			return &cp, nil
		}
	}
	return nil, account.ErrTokenNotFound
}

// captureEnqueuer records enqueued payloads, optionally failing.
type captureEnqueuer struct {
	mu       sync.Mutex
	payloads []any
	err      error
}

func (e *captureEnqueuer) Enqueue(ctx context.Context, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.payloads = append(e.payloads, payload)
	return nil
}

func (e *captureEnqueuer) verificationEmails() []account.VerificationEmail {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []account.VerificationEmail
	for _, p := range e.payloads {
		if v, ok := p.(account.VerificationEmail); ok {
			out = append(out, v)
		}
	}
	return out
}

var errEnqueueFailed = errors.New("enqueue failed")
