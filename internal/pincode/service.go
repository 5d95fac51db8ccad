package pincode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// Service coordinates pincode changes.
type Service struct {
	store Store
	audit shared.AuditPort
}

// NewService constructs Service. audit may be nil.
func NewService(store Store, audit shared.AuditPort) *Service {
	return &Service{store: store, audit: audit}
}

// Get returns the vendor's pincode or shared.ErrNotFound when none is set.
func (s *Service) Get(ctx context.Context, vendorID int64) (Pincode, error) {
	p, err := s.store.GetPincode(ctx, vendorID)
	if err != nil {
		return Pincode{}, fmt.Errorf("pincode: get: %w", err)
	}
	return p, nil
}

// Set replaces the vendor's pincode.
func (s *Service) Set(ctx context.Context, sess shared.VendorSession, code string) (Pincode, error) {
	code = strings.TrimSpace(code)
	if err := Validate(code); err != nil {
		return Pincode{}, err
	}
	p, err := s.store.UpsertPincode(ctx, sess.VendorID, code)
	if err != nil {
		return Pincode{}, fmt.Errorf("pincode: set: %w", err)
	}
	s.record(ctx, sess, "pincode:set", map[string]any{"code": code})
	return p, nil
}

// Clear removes the vendor's pincode. Clearing an unset pincode succeeds.
func (s *Service) Clear(ctx context.Context, sess shared.VendorSession) error {
	if err := s.store.DeletePincode(ctx, sess.VendorID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("pincode: clear: %w", err)
	}
	s.record(ctx, sess, "pincode:clear", nil)
	return nil
}

func (s *Service) record(ctx context.Context, sess shared.VendorSession, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		VendorID: sess.VendorID,
		ActorID:  sess.ActorID,
		Action:   action,
		Entity:   "pincode",
		EntityID: fmt.Sprint(sess.VendorID),
		Meta:     meta,
		At:       time.Now(),
	})
}
