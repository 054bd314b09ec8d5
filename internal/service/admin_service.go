package service

import (
	"context"
	"errors"
	"strings"

	"directory-service/internal/apperror"
	"directory-service/internal/model"
	"directory-service/internal/store"
	"directory-service/pkg/logger"
	"directory-service/pkg/password"

	"go.uber.org/zap"
)

// AdminService owns the hashed admin shared secret and the bootstrap admin member
type AdminService struct {
	settings store.SettingStore
	members  store.MemberStore
	hasher   *password.Hasher
	key      string
}

// NewAdminService stores the secret under key
func NewAdminService(settings store.SettingStore, members store.MemberStore, hasher *password.Hasher, key string) *AdminService {
	return &AdminService{settings: settings, members: members, hasher: hasher, key: key}
}

// VerifySecret reports whether secret matches the stored hash. No stored secret never verifies.
func (s *AdminService) VerifySecret(ctx context.Context, secret string) (bool, error) {
	setting, err := s.settings.GetSetting(ctx, s.key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperror.Unexpected(err)
	}
	return s.hasher.Verify(secret, setting.Value), nil
}

// RotateSecret replaces the admin secret. Once a secret exists, current must match it.
func (s *AdminService) RotateSecret(ctx context.Context, current, next string) error {
	current, next = strings.TrimSpace(current), strings.TrimSpace(next)
	if next == "" {
		return apperror.Validation("new_secret is required")
	}

	setting, err := s.settings.GetSetting(ctx, s.key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// first rotation needs no proof
	case err != nil:
		return apperror.Unexpected(err)
	case current == "" || !s.hasher.Verify(current, setting.Value):
		return apperror.Forbidden("Current admin secret is incorrect")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperror.Unexpected(err)
	}
	if err := s.settings.PutSetting(ctx, s.key, hash); err != nil {
		return apperror.Unexpected(err)
	}

	logger.FromStdContext(ctx).Info("Admin secret rotated", zap.Bool("bootstrap", setting == nil))
	return nil
}

// EnsureBootstrapSecret seeds secret when no admin secret is stored yet and reports whether it did.
func (s *AdminService) EnsureBootstrapSecret(ctx context.Context, secret string) (bool, error) {
	if secret == "" {
		return false, nil
	}
	_, err := s.settings.GetSetting(ctx, s.key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return false, err
	}
	if err := s.settings.PutSetting(ctx, s.key, hash); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureBootstrapAdmin makes email an active, confirmed admin member. A missing member is
// created with plain as its password; an existing one keeps its password and is promoted.
// It reports whether anything changed.
func (s *AdminService) EnsureBootstrapAdmin(ctx context.Context, email, plain string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, nil
	}
	if !model.ValidEmail(email) {
		return false, apperror.Validation("Invalid admin email format")
	}
	email = model.NormalizeEmail(email)
	log := logger.FromStdContext(ctx)

	member, err := s.members.GetMemberByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if plain == "" {
			return false, apperror.Validation("Admin password is required")
		}
		if err := checkPassword(plain); err != nil {
			return false, err
		}
		hash, err := s.hasher.Hash(plain)
		if err != nil {
			return false, err
		}
		member, err = model.NewMember(email, hash, nil)
		if err != nil {
			return false, apperror.Validation(err.Error())
		}
		member.Role = model.RoleAdmin
		member.Status = model.StatusActive
		member.EmailConfirmed = true
		if err := s.members.CreateMember(ctx, member); err != nil {
			return false, err
		}
		log.Info("Bootstrap admin created", zap.Uint("member_id", member.ID), zap.String("email", email))
		return true, nil
	case err != nil:
		return false, err
	}

	changed := false
	if member.Role != model.RoleAdmin {
		if err := s.members.SetMemberRole(ctx, member.ID, model.RoleAdmin); err != nil {
			return false, err
		}
		changed = true
	}
	if member.Status != model.StatusActive {
		if err := s.members.SetMemberStatus(ctx, member.ID, model.StatusActive); err != nil {
			return false, err
		}
		changed = true
	}
	if changed {
		log.Info("Bootstrap admin promoted", zap.Uint("member_id", member.ID), zap.String("email", email))
	}
	return changed, nil
}
