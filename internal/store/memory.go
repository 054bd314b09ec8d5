package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"directory-service/internal/model"

	"github.com/lib/pq"
)

// MemoryStore is an in-process Store used by tests and local runs without postgres
type MemoryStore struct {
	mu sync.RWMutex

	nextID        uint
	members       map[uint]model.Member
	organizations map[uint]model.Organization
	otps          map[uint]model.OTP
	settings      map[string]model.Setting
	suppliers     map[uint]model.Supplier

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members:       make(map[uint]model.Member),
		organizations: make(map[uint]model.Organization),
		otps:          make(map[uint]model.OTP),
		settings:      make(map[string]model.Setting),
		suppliers:     make(map[uint]model.Supplier),
		now:           time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) stamp(created *time.Time, updated *time.Time) {
	now := s.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func alive(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func window(n, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		return n, n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

func newestFirst(a, b time.Time, idA, idB uint) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idA > idB
}

func copyStrings(in pq.StringArray) pq.StringArray {
	if in == nil {
		return nil
	}
	return append(pq.StringArray(nil), in...)
}

// Members

func (s *MemoryStore) CreateMember(ctx context.Context, member *model.Member) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	member.Email = model.NormalizeEmail(member.Email)
	for _, m := range s.members {
		if m.Email == member.Email {
			return ErrDuplicate
		}
	}
	member.ID = s.id()
	s.stamp(&member.CreatedAt, &member.UpdatedAt)
	s.members[member.ID] = *member
	return nil
}

func (s *MemoryStore) GetMemberByID(ctx context.Context, id uint) (*model.Member, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (s *MemoryStore) GetMemberByEmail(ctx context.Context, email string) (*model.Member, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = model.NormalizeEmail(email)
	for _, m := range s.members {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SetMemberStatus(ctx context.Context, id uint, status string) error {
	return s.updateMember(ctx, id, func(m *model.Member) { m.Status = status })
}

func (s *MemoryStore) SetMemberRole(ctx context.Context, id uint, role string) error {
	return s.updateMember(ctx, id, func(m *model.Member) { m.Role = role })
}

func (s *MemoryStore) ResetMemberPassword(ctx context.Context, otpID, memberID uint, passwordHash string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.otps[otpID]
	if !ok || o.Used {
		return ErrOTPUsed
	}
	m, ok := s.members[memberID]
	if !ok {
		return ErrNotFound
	}
	o.Used = true
	s.otps[otpID] = o
	m.Password = passwordHash
	s.stamp(nil, &m.UpdatedAt)
	s.members[memberID] = m
	return nil
}

func (s *MemoryStore) SetMemberLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.updateMember(ctx, id, func(m *model.Member) { m.LastLogin = &at })
}

func (s *MemoryStore) updateMember(ctx context.Context, id uint, apply func(*model.Member)) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return ErrNotFound
	}
	apply(&m)
	s.stamp(nil, &m.UpdatedAt)
	s.members[id] = m
	return nil
}

func (s *MemoryStore) ListMembersByOrganization(ctx context.Context, organizationID uint, offset, limit int) ([]model.Member, int64, error) {
	if err := alive(ctx); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Member
	for _, m := range s.members {
		if m.OrganizationID != nil && *m.OrganizationID == organizationID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	start, end := window(len(out), offset, limit)
	return out[start:end], int64(len(out)), nil
}

func (s *MemoryStore) CountMembersByOrganization(ctx context.Context, organizationID uint) (int64, error) {
	if err := alive(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countMembers(organizationID), nil
}

func (s *MemoryStore) countMembers(organizationID uint) int64 {
	var n int64
	for _, m := range s.members {
		if m.OrganizationID != nil && *m.OrganizationID == organizationID {
			n++
		}
	}
	return n
}

// Organizations

func cloneOrganization(o model.Organization) model.Organization {
	o.AllowedDomains = copyStrings(o.AllowedDomains)
	return o
}

func (s *MemoryStore) CreateOrganization(ctx context.Context, org *model.Organization) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	org.ID = s.id()
	s.stamp(&org.CreatedAt, &org.UpdatedAt)
	s.organizations[org.ID] = cloneOrganization(*org)
	return nil
}

func (s *MemoryStore) GetOrganization(ctx context.Context, id uint) (*model.Organization, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.organizations[id]
	if !ok {
		return nil, ErrNotFound
	}
	o = cloneOrganization(o)
	return &o, nil
}

func (s *MemoryStore) FindOrganizationByDomain(ctx context.Context, domain string) (*model.Organization, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.Organization
	for _, o := range s.organizations {
		if !o.AllowsDomain(domain) {
			continue
		}
		if found == nil || o.ID < found.ID {
			o = cloneOrganization(o)
			found = &o
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) ListOrganizations(ctx context.Context, q Query) ([]model.OrganizationSummary, int64, error) {
	if err := alive(ctx); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(q.Search)
	var out []model.OrganizationSummary
	for _, o := range s.organizations {
		if search != "" &&
			!strings.Contains(strings.ToLower(o.Name), search) &&
			!strings.Contains(strings.ToLower(o.Description), search) &&
			!strings.Contains(strings.ToLower(strings.Join(o.AllowedDomains, ",")), search) {
			continue
		}
		out = append(out, model.OrganizationSummary{
			Organization: cloneOrganization(o),
			MemberCount:  s.countMembers(o.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	start, end := window(len(out), q.Offset, q.Limit)
	return out[start:end], int64(len(out)), nil
}

func (s *MemoryStore) UpdateOrganization(ctx context.Context, org *model.Organization) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.organizations[org.ID]
	if !ok {
		return ErrNotFound
	}
	org.CreatedAt = existing.CreatedAt
	s.stamp(nil, &org.UpdatedAt)
	s.organizations[org.ID] = cloneOrganization(*org)
	return nil
}

func (s *MemoryStore) DeleteOrganization(ctx context.Context, id uint) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.organizations[id]; !ok {
		return ErrNotFound
	}
	delete(s.organizations, id)
	return nil
}

// OTPs

func (s *MemoryStore) CreateOTP(ctx context.Context, otp *model.OTP) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	otp.ID = s.id()
	s.stamp(&otp.CreatedAt, nil)
	s.otps[otp.ID] = *otp
	return nil
}

func (s *MemoryStore) FindUsableOTP(ctx context.Context, email, codeHash, purpose string, now time.Time) (*model.OTP, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.OTP
	for _, o := range s.otps {
		if o.Email != email || o.CodeHash != codeHash || o.Purpose != purpose || !o.Usable(now) {
			continue
		}
		if found == nil || newestFirst(o.CreatedAt, found.CreatedAt, o.ID, found.ID) {
			o := o
			found = &o
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) MarkOTPUsed(ctx context.Context, id uint) (bool, error) {
	if err := alive(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.otps[id]
	if !ok || o.Used {
		return false, nil
	}
	o.Used = true
	s.otps[id] = o
	return true, nil
}

func (s *MemoryStore) CountOTPsSince(ctx context.Context, email, purpose string, since time.Time) (int64, error) {
	if err := alive(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, o := range s.otps {
		if o.Email == email && o.Purpose == purpose && o.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

// Settings

func (s *MemoryStore) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	setting, ok := s.settings[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &setting, nil
}

func (s *MemoryStore) PutSetting(ctx context.Context, key, value string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	setting, ok := s.settings[key]
	if !ok {
		setting = model.Setting{ID: s.id(), Key: key}
	}
	setting.Value = value
	s.stamp(nil, &setting.UpdatedAt)
	s.settings[key] = setting
	return nil
}

// Suppliers

func cloneSupplier(sup model.Supplier) model.Supplier {
	ingredients := make([]model.Ingredient, len(sup.Ingredients))
	for i, ing := range sup.Ingredients {
		ingredients[i] = cloneIngredient(ing)
	}
	sup.Ingredients = ingredients
	return sup
}

func cloneIngredient(ing model.Ingredient) model.Ingredient {
	claims := make([]model.Claim, len(ing.Claims))
	for i, c := range ing.Claims {
		c.Tags = copyStrings(c.Tags)
		claims[i] = c
	}
	ing.Claims = claims
	return ing
}

func (s *MemoryStore) ListSuppliers(ctx context.Context, q Query) ([]model.Supplier, int64, error) {
	if err := alive(ctx); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(q.Search)
	var out []model.Supplier
	for _, sup := range s.suppliers {
		if search != "" &&
			!strings.Contains(strings.ToLower(sup.Name), search) &&
			!strings.Contains(strings.ToLower(sup.Domain), search) {
			continue
		}
		out = append(out, cloneSupplier(sup))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	start, end := window(len(out), q.Offset, q.Limit)
	return out[start:end], int64(len(out)), nil
}

func (s *MemoryStore) GetSupplier(ctx context.Context, id uint) (*model.Supplier, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sup, ok := s.suppliers[id]
	if !ok {
		return nil, ErrNotFound
	}
	sup = cloneSupplier(sup)
	return &sup, nil
}

func (s *MemoryStore) supplierNameTaken(name string, except uint) bool {
	for _, sup := range s.suppliers {
		if sup.ID != except && sup.Name == name {
			return true
		}
	}
	return false
}

func (s *MemoryStore) assignIngredient(supplierID uint, ing *model.Ingredient) {
	ing.ID = s.id()
	ing.SupplierID = supplierID
	s.stamp(&ing.CreatedAt, &ing.UpdatedAt)
	for i := range ing.Claims {
		ing.Claims[i].ID = s.id()
		ing.Claims[i].IngredientID = ing.ID
	}
}

func (s *MemoryStore) CreateSupplier(ctx context.Context, supplier *model.Supplier) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.supplierNameTaken(supplier.Name, 0) {
		return ErrDuplicate
	}
	supplier.ID = s.id()
	s.stamp(&supplier.CreatedAt, &supplier.UpdatedAt)
	for i := range supplier.Ingredients {
		s.assignIngredient(supplier.ID, &supplier.Ingredients[i])
	}
	s.suppliers[supplier.ID] = cloneSupplier(*supplier)
	return nil
}

func (s *MemoryStore) UpdateSupplier(ctx context.Context, supplier *model.Supplier) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.suppliers[supplier.ID]
	if !ok {
		return ErrNotFound
	}
	if s.supplierNameTaken(supplier.Name, supplier.ID) {
		return ErrDuplicate
	}
	existing.Name = supplier.Name
	existing.Domain = supplier.Domain
	existing.OrganizationID = supplier.OrganizationID
	s.stamp(nil, &existing.UpdatedAt)
	s.suppliers[supplier.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteSupplier(ctx context.Context, id uint) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[id]; !ok {
		return ErrNotFound
	}
	delete(s.suppliers, id)
	return nil
}

func (s *MemoryStore) AddIngredient(ctx context.Context, supplierID uint, ingredient *model.Ingredient) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sup, ok := s.suppliers[supplierID]
	if !ok {
		return ErrNotFound
	}
	s.assignIngredient(supplierID, ingredient)
	sup.Ingredients = append(sup.Ingredients, cloneIngredient(*ingredient))
	s.suppliers[supplierID] = sup
	return nil
}

func (s *MemoryStore) ReplaceIngredient(ctx context.Context, supplierID uint, ingredient *model.Ingredient) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sup, ok := s.suppliers[supplierID]
	if !ok {
		return ErrNotFound
	}
	for i, ing := range sup.Ingredients {
		if ing.ID != ingredient.ID {
			continue
		}
		ingredient.SupplierID = supplierID
		ingredient.CreatedAt = ing.CreatedAt
		s.stamp(nil, &ingredient.UpdatedAt)
		for j := range ingredient.Claims {
			ingredient.Claims[j].ID = s.id()
			ingredient.Claims[j].IngredientID = ingredient.ID
		}
		sup.Ingredients[i] = cloneIngredient(*ingredient)
		s.suppliers[supplierID] = sup
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteIngredient(ctx context.Context, supplierID, ingredientID uint) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sup, ok := s.suppliers[supplierID]
	if !ok {
		return ErrNotFound
	}
	for i, ing := range sup.Ingredients {
		if ing.ID == ingredientID {
			sup.Ingredients = append(sup.Ingredients[:i:i], sup.Ingredients[i+1:]...)
			s.suppliers[supplierID] = sup
			return nil
		}
	}
	return ErrNotFound
}
