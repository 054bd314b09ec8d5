package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"directory-service/internal/model"
	"directory-service/internal/org"
	"directory-service/internal/otp"
	"directory-service/internal/store"
	"directory-service/pkg/config"
	"directory-service/pkg/jwtutil"
	"directory-service/pkg/password"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentCode struct {
	email, code, purpose string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, email, code, purpose string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentCode{email: email, code: code, purpose: purpose})
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) last(t *testing.T) sentCode {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent)
	return n.sent[len(n.sent)-1]
}

type harness struct {
	ctx      context.Context
	store    *store.MemoryStore
	clock    *fakeClock
	notifier *recordingNotifier
	hasher   *password.Hasher
	tokens   *jwtutil.JWTUtil
	engine   *otp.Engine

	auth    *AuthService
	admin   *AdminService
	orgs    *OrganizationService
	members *MemberService
	catalog *CatalogService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		ctx:      context.Background(),
		store:    store.NewMemoryStore(),
		clock:    &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
		hasher:   password.NewHasher(bcrypt.MinCost),
	}
	h.tokens = jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 24}, jwtutil.WithClock(h.clock.Now))
	h.engine = otp.NewEngine(h.store, config.OTPConfig{Length: 6, TTL: 15 * time.Minute, RateWindow: time.Minute, RateLimit: 3}, otp.WithClock(h.clock.Now))

	h.auth = NewAuthService(h.store, h.engine, org.NewResolver(h.store), h.hasher, h.tokens, h.notifier)
	h.auth.now = h.clock.Now
	h.admin = NewAdminService(h.store, h.store, h.hasher, "admin_secret")
	h.orgs = NewOrganizationService(h.store, h.store)
	h.members = NewMemberService(h.store, h.store, h.engine, h.auth)
	h.catalog = NewCatalogService(h.store)
	return h
}

func (h *harness) organization(t *testing.T, name string, domains ...string) *model.Organization {
	t.Helper()
	o, err := model.NewOrganization(name, "", domains, model.AppsAndTools{Signals: true})
	require.NoError(t, err)
	require.NoError(t, h.store.CreateOrganization(h.ctx, o))
	return o
}

// seedOTP stores a usable code directly, as if it had been issued earlier
func (h *harness) seedOTP(t *testing.T, email, code, purpose string) *model.OTP {
	t.Helper()
	record := &model.OTP{
		Email:     email,
		CodeHash:  otp.Hash(code),
		Purpose:   purpose,
		ExpiresAt: h.clock.Now().Add(15 * time.Minute),
		CreatedAt: h.clock.Now().Add(-5 * time.Minute),
	}
	require.NoError(t, h.store.CreateOTP(h.ctx, record))
	return record
}

func (h *harness) member(t *testing.T, email, plain string, orgID *uint, status string, confirmed bool) *model.Member {
	t.Helper()
	hash, err := h.hasher.Hash(plain)
	require.NoError(t, err)
	m, err := model.NewMember(email, hash, orgID)
	require.NoError(t, err)
	m.Status = status
	m.EmailConfirmed = confirmed
	require.NoError(t, h.store.CreateMember(h.ctx, m))
	return m
}
