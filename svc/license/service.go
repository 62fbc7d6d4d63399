package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thegrail/grail-backend/pkg/logger"
)

// Service coordinates the codec and store: issuing licenses after payment
// events and validating license keys presented by client devices.
type Service struct {
	codec *Codec
	store Store
	log   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a license Service. Panics on nil codec or store to fail
// fast during initialization.
func NewService(codec *Codec, store Store, opts ...ServiceOption) *Service {
	if codec == nil {
		panic("license: codec is required")
	}
	if store == nil {
		panic("license: store is required")
	}
	s := &Service{codec: codec, store: store, log: logger.NewDiscard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue encodes a license token for the user and persists the license record.
// Called once per successful payment event; no dedup against existing
// licenses, since multiple licenses per user are allowed.
func (s *Service) Issue(ctx context.Context, info UserInfo, duration time.Duration) (*License, error) {
	key, err := s.codec.Encode(info, duration)
	if err != nil {
		return nil, fmt.Errorf("failed to encode license token: %w", err)
	}

	now := time.Now()
	lic := &License{
		ID:         uuid.NewString(),
		UserID:     info.ID,
		LicenseKey: key,
		ExpireDate: now.Add(duration),
		CreatedAt:  now,
	}

	if err := s.store.Create(ctx, lic); err != nil {
		return nil, fmt.Errorf("failed to persist license: %w", err)
	}

	s.log.InfoContext(ctx, "license issued",
		logger.Component("license"),
		logger.UserID(info.ID),
		logger.LicenseID(lic.ID),
		slog.Time("expire_date", lic.ExpireDate),
	)
	return lic, nil
}

// Available returns the user's non-expired licenses, bound or not. The
// availability predicate compares the stored expiry against the server clock,
// the same clock the codec stamps into tokens.
func (s *Service) Available(ctx context.Context, userID string) ([]License, error) {
	return s.store.ListAvailable(ctx, userID, time.Now())
}

// ValidateAndBind checks a presented license key and binds it to the device
// on first successful validation. The bind is a store-level compare-and-set,
// the only exclusive-access region in the system: of two concurrent
// validations from different devices against an unbound license, exactly one
// wins.
func (s *Service) ValidateAndBind(ctx context.Context, key, deviceAddress string) (*License, error) {
	if _, _, err := s.codec.Decode(key); err != nil {
		return nil, err
	}

	lic, err := s.store.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if lic.IsExpired(time.Now()) {
		return nil, ErrExpired
	}
	if lic.IsBound() && *lic.DeviceAddress != deviceAddress {
		return nil, ErrDeviceMismatch
	}

	bound, err := s.store.BindDevice(ctx, key, deviceAddress)
	if errors.Is(err, ErrNotFound) {
		// The key exists but the CAS did not match: another device won the
		// race between our lookup and the bind.
		return nil, ErrDeviceMismatch
	}
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "license validated",
		logger.Component("license"),
		logger.LicenseID(bound.ID),
		slog.String("device_address", deviceAddress),
	)
	return bound, nil
}
