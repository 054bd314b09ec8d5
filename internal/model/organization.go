package model

import (
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

// AppsAndTools is the fixed set of capability toggles an organization can have
type AppsAndTools struct {
	LeadLogic     bool `json:"leadlogic" gorm:"default:false"`
	Signals       bool `json:"signals" gorm:"default:false"`
	Skutrition    bool `json:"skutrition" gorm:"default:false"`
	InternalTools bool `json:"internal_tools" gorm:"default:false"`
}

// Organization is the tenant boundary; its allowed domains gate self-registration.
type Organization struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"type:varchar(150);not null"`
	Description    string         `json:"description" gorm:"type:text"`
	AllowedDomains pq.StringArray `json:"allowed_domains" gorm:"type:text[];not null;default:'{}'"`
	AppsAndTools   AppsAndTools   `json:"apps_and_tools" gorm:"embedded;embeddedPrefix:app_"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewOrganization validates and builds an organization record
func NewOrganization(name, description string, domains []string, apps AppsAndTools) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	return &Organization{
		Name:           name,
		Description:    strings.TrimSpace(description),
		AllowedDomains: NormalizeDomains(domains),
		AppsAndTools:   apps,
	}, nil
}

// AllowsDomain reports whether domain is in the allow-list
func (o *Organization) AllowsDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	for _, d := range o.AllowedDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// NormalizeDomains lower-cases, trims and de-duplicates domains, dropping empty entries.
func NormalizeDomains(domains []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(domains))
	seen := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "@")
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// OrganizationSummary is an organization listing row
type OrganizationSummary struct {
	Organization
	MemberCount int64 `json:"member_count"`
}
