package org

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"directory-service/internal/model"
	"directory-service/internal/store"
	"directory-service/pkg/logger"

	"go.uber.org/zap"
)

// Resolver maps an email's domain onto the organization that allows it.
type Resolver struct {
	repo store.OrganizationStore
}

// NewResolver creates a domain eligibility resolver.
func NewResolver(repo store.OrganizationStore) *Resolver {
	return &Resolver{repo: repo}
}

// Domain returns the lower-cased text after the last "@", or "" when there is none.
func Domain(email string) string {
	idx := strings.LastIndex(email, "@")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[idx+1:]))
}

// Resolve returns the organization allowing email's domain, or nil when none does.
// Malformed emails resolve to nil without error.
func (r *Resolver) Resolve(ctx context.Context, email string) (*model.Organization, error) {
	domain := Domain(email)
	if domain == "" {
		return nil, nil
	}

	org, err := r.repo.FindOrganizationByDomain(ctx, domain)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.FromStdContext(ctx).Error("Failed to resolve organization", zap.String("domain", domain), zap.Error(err))
		return nil, fmt.Errorf("resolve organization: %w", err)
	}
	return org, nil
}
