package license_test

import (
	"context"
	"sync"
	"time"

	"github.com/thegrail/grail-backend/svc/license"
)

// memStore is an in-memory Store with the same compare-and-set semantics as
// the MongoDB implementation, keyed by license key.
type memStore struct {
	mu       sync.Mutex
	licenses map[string]*license.License
}

func newMemStore() *memStore {
	return &memStore{licenses: make(map[string]*license.License)}
}

func (s *memStore) Create(ctx context.Context, lic *license.License) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *lic
	s.licenses[lic.LicenseKey] = &cp
	return nil
}

func (s *memStore) FindByKey(ctx context.Context, key string) (*license.License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lic, ok := s.licenses[key]
	if !ok {
		return nil, license.ErrNotFound
	}
	cp := *lic
	return &cp, nil
}

func (s *memStore) ListAvailable(ctx context.Context, userID string, now time.Time) ([]license.License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []license.License
	for _, lic := range s.licenses {
		if lic.UserID == userID && lic.ExpireDate.After(now) {
			out = append(out, *lic)
		}
	}
	return out, nil
}

func (s *memStore) BindDevice(ctx context.Context, key, deviceAddress string) (*license.License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lic, ok := s.licenses[key]
	if !ok {
		return nil, license.ErrNotFound
	}
	// Same predicate as the mongo filter: empty slot or matching address.
	if lic.DeviceAddress != nil && *lic.DeviceAddress != deviceAddress {
		return nil, license.ErrNotFound
	}
	addr := deviceAddress
	lic.DeviceAddress = &addr
	cp := *lic
	return &cp, nil
}
