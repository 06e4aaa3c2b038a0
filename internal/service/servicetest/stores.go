// Package servicetest provides in-memory stores for service tests.
package servicetest

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/tailorone/backend/internal/domain"
)

// ErrInjected is returned by stores whose Fail flag is set.
var ErrInjected = errors.New("injected store failure")

// Users is an in-memory UserStore.
type Users struct {
	mu   sync.Mutex
	byID map[string]domain.User
}

func NewUsers() *Users { return &Users{byID: map[string]domain.User{}} }

func (s *Users) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return errors.New("duplicate email")
		}
	}
	s.byID[u.ID] = *u
	return nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Users) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *Users) Exists(ctx context.Context, email string) (bool, error) {
	u, _ := s.FindByEmail(ctx, email)
	return u != nil, nil
}

func (s *Users) ListAll(_ context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.User, 0, len(s.byID))
	for _, u := range s.byID {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Users) Update(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; ok {
		s.byID[u.ID] = *u
	}
	return nil
}

func (s *Users) RecordOTPFailure(_ context.Context, id string, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return 0, errors.New("user not found")
	}
	u.OTPAttempts++
	if u.OTPAttempts >= limit {
		u.OTPHash = ""
		u.OTPExpires = nil
	}
	s.byID[u.ID] = u
	return u.OTPAttempts, nil
}

func (s *Users) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

func (s *Users) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID), nil
}

// Plans is an in-memory PlanStore.
type Plans struct {
	mu   sync.Mutex
	byID map[string]domain.Plan
}

func NewPlans() *Plans { return &Plans{byID: map[string]domain.Plan{}} }

func (s *Plans) Create(_ context.Context, p *domain.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[p.ID] = *p
	return nil
}

func (s *Plans) FindByID(_ context.Context, id string) (*domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *Plans) ListActive(_ context.Context) ([]*domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Plan
	for _, p := range s.byID {
		if p.Active {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (s *Plans) Update(_ context.Context, p *domain.Plan) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; !ok {
		return false, nil
	}
	s.byID[p.ID] = *p
	return true, nil
}

func (s *Plans) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	return ok, nil
}

// Subscriptions is an in-memory UserSubscriptionStore.
type Subscriptions struct {
	mu     sync.Mutex
	byID   map[string]domain.UserSubscription
	Writes int
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{byID: map[string]domain.UserSubscription{}}
}

// Put stores s as-is, bypassing any service logic.
func (s *Subscriptions) Put(sub *domain.UserSubscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sub.ID] = *sub
}

func (s *Subscriptions) Create(_ context.Context, sub *domain.UserSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sub.ID] = *sub
	s.Writes++
	return nil
}

func (s *Subscriptions) FindByID(_ context.Context, id string) (*domain.UserSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.byID[id]; ok {
		return &sub, nil
	}
	return nil, nil
}

func (s *Subscriptions) list(match func(domain.UserSubscription) bool) []*domain.UserSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.UserSubscription
	for _, sub := range s.byID {
		if match(sub) {
			sub := sub
			out = append(out, &sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Subscriptions) ListAll(_ context.Context) ([]*domain.UserSubscription, error) {
	return s.list(func(domain.UserSubscription) bool { return true }), nil
}

func (s *Subscriptions) ListByUser(_ context.Context, userID string) ([]*domain.UserSubscription, error) {
	return s.list(func(sub domain.UserSubscription) bool { return sub.UserID == userID }), nil
}

func (s *Subscriptions) Mutate(_ context.Context, id string, fn func(*domain.UserSubscription) error) (*domain.UserSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	if err := fn(&sub); err != nil {
		return nil, err
	}
	s.byID[id] = sub
	s.Writes++
	return &sub, nil
}

// Orders is an in-memory OrderStore.
type Orders struct {
	mu     sync.Mutex
	byID   map[string]domain.Order
	Fail   bool
	Writes int
}

func NewOrders() *Orders { return &Orders{byID: map[string]domain.Order{}} }

// Len reports how many orders are stored.
func (s *Orders) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Put stores o as-is.
func (s *Orders) Put(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[o.ID] = *o
}

func (s *Orders) Create(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrInjected
	}
	s.byID[o.ID] = *o
	s.Writes++
	return nil
}

func (s *Orders) FindByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.byID[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *Orders) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.byID {
		if o.GatewayOrderID != nil && *o.GatewayOrderID == gatewayOrderID {
			return &o, nil
		}
	}
	return nil, nil
}

func (s *Orders) list(match func(domain.Order) bool) []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Order
	for _, o := range s.byID {
		if match(o) {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Orders) ListByCustomer(_ context.Context, customerID string) ([]*domain.Order, error) {
	return s.list(func(o domain.Order) bool { return o.CustomerID == customerID }), nil
}

func (s *Orders) ListAll(_ context.Context) ([]*domain.Order, error) {
	return s.list(func(domain.Order) bool { return true }), nil
}

func (s *Orders) Mutate(_ context.Context, id string, fn func(*domain.Order) error) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	if err := fn(&o); err != nil {
		return nil, err
	}
	s.byID[id] = o
	s.Writes++
	return &o, nil
}

func (s *Orders) Count(_ context.Context) (int, error) {
	return s.Len(), nil
}

// Offers is an in-memory OfferStore. Like the Postgres store it rejects
// offers that break the discount rule.
type Offers struct {
	mu   sync.Mutex
	byID map[string]domain.Offer
}

func NewOffers() *Offers { return &Offers{byID: map[string]domain.Offer{}} }

func (s *Offers) Create(_ context.Context, o *domain.Offer) error {
	if err := o.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[o.ID] = *o
	return nil
}

func (s *Offers) FindByID(_ context.Context, id string) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.byID[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *Offers) FindActiveByCode(_ context.Context, code string) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.byID {
		if o.Code == code && o.Active {
			return &o, nil
		}
	}
	return nil, nil
}

func (s *Offers) ListActive(_ context.Context) ([]*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Offer
	for _, o := range s.byID {
		if o.Active {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidTill.Before(out[j].ValidTill) })
	return out, nil
}

func (s *Offers) CodeTaken(_ context.Context, code, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.byID {
		if o.Code == code && o.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Offers) Update(_ context.Context, o *domain.Offer) (bool, error) {
	if err := o.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[o.ID]; !ok {
		return false, nil
	}
	s.byID[o.ID] = *o
	return true, nil
}

func (s *Offers) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	return ok, nil
}

// Carts is an in-memory CartStore.
type Carts struct {
	mu     sync.Mutex
	byUser map[string]domain.Cart
}

func NewCarts() *Carts { return &Carts{byUser: map[string]domain.Cart{}} }

func (s *Carts) Get(_ context.Context, userID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byUser[userID]; ok {
		c.Items = append([]domain.CartItem(nil), c.Items...)
		return &c, nil
	}
	return nil, nil
}

func (s *Carts) Save(_ context.Context, c *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	s.byUser[c.UserID] = cp
	return nil
}

func (s *Carts) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
	return nil
}

// Addresses is an in-memory AddressStore.
type Addresses struct {
	mu   sync.Mutex
	rows []domain.Address
}

func NewAddresses() *Addresses { return &Addresses{} }

func (s *Addresses) Create(_ context.Context, a *domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *a)
	return nil
}

func (s *Addresses) ListByUser(_ context.Context, userID string) ([]*domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Address
	for _, a := range s.rows {
		if a.UserID == userID {
			a := a
			out = append(out, &a)
		}
	}
	return out, nil
}

func (s *Addresses) DeleteOwned(_ context.Context, id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.rows {
		if a.ID == id && a.UserID == userID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Catalog is an in-memory CatalogStore.
type Catalog struct {
	mu   sync.Mutex
	byID map[string]domain.Service
}

func NewCatalog() *Catalog { return &Catalog{byID: map[string]domain.Service{}} }

func (s *Catalog) Create(_ context.Context, svc *domain.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[svc.ID] = *svc
	return nil
}

func (s *Catalog) List(_ context.Context) ([]*domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Service, 0, len(s.byID))
	for _, svc := range s.byID {
		svc := svc
		out = append(out, &svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Catalog) Update(_ context.Context, svc *domain.Service) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[svc.ID]
	if !ok {
		return false, nil
	}
	svc.CreatedAt = existing.CreatedAt
	s.byID[svc.ID] = *svc
	return true, nil
}

func (s *Catalog) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	return ok, nil
}

// Config is an in-memory ConfigStore.
type Config struct {
	mu   sync.Mutex
	data map[string]string
}

func NewConfig() *Config { return &Config{data: map[string]string{}} }

func (s *Config) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *Config) Set(_ context.Context, key, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

// Events records published events.
type Events struct {
	mu   sync.Mutex
	Keys []string
}

func (e *Events) Publish(_ context.Context, routingKey string, _ interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Keys = append(e.Keys, routingKey)
	return nil
}

// Published returns a copy of the routing keys seen so far.
func (e *Events) Published() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.Keys...)
}
