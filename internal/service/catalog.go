package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tailorone/backend/internal/domain"
)

// CartService manages the per-user cart.
type CartService struct {
	carts    CartStore
	validate *validator.Validate
	now      func() time.Time
}

func NewCartService(carts CartStore) *CartService {
	return &CartService{carts: carts, validate: newValidator(), now: time.Now}
}

// cartOwner resolves whose cart the caller acts on. Admins may name any user.
func cartOwner(caller domain.Principal, requested string) (string, error) {
	if requested == "" || requested == caller.ID {
		return caller.ID, nil
	}
	if !caller.IsAdmin() {
		return "", domain.ErrForbidden("not your cart")
	}
	return requested, nil
}

// Save replaces the cart items and recomputes the total.
func (s *CartService) Save(ctx context.Context, caller domain.Principal, req *domain.SaveCartRequest) (*domain.Cart, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	owner, err := cartOwner(caller, req.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]domain.CartItem, len(req.Items))
	for i, it := range req.Items {
		it.Name = sanitizeText(it.Name)
		items[i] = it
	}
	cart := &domain.Cart{
		UserID:        owner,
		Items:         items,
		Total:         domain.CartTotal(items),
		PaymentStatus: domain.CartPending,
		UpdatedAt:     s.now().UTC(),
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, domain.ErrInternal("failed to save cart", err)
	}
	return cart, nil
}

// Get returns the caller's cart, or an empty one.
func (s *CartService) Get(ctx context.Context, caller domain.Principal, userID string) (*domain.Cart, error) {
	owner, err := cartOwner(caller, userID)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.Get(ctx, owner)
	if err != nil {
		return nil, domain.ErrInternal("failed to load cart", err)
	}
	if cart == nil {
		return &domain.Cart{UserID: owner, Items: []domain.CartItem{}, PaymentStatus: domain.CartPending}, nil
	}
	return cart, nil
}

// MarkPaid flags the cart as paid.
func (s *CartService) MarkPaid(ctx context.Context, caller domain.Principal, req *domain.CartUserRequest) (*domain.Cart, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	owner, err := cartOwner(caller, req.UserID)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.Get(ctx, owner)
	if err != nil {
		return nil, domain.ErrInternal("failed to load cart", err)
	}
	if cart == nil {
		return nil, domain.ErrNotFound("Cart not found")
	}
	cart.PaymentStatus = domain.CartPaid
	cart.UpdatedAt = s.now().UTC()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, domain.ErrInternal("failed to save cart", err)
	}
	return cart, nil
}

// Count returns the total quantity of items in the cart.
func (s *CartService) Count(ctx context.Context, caller domain.Principal, userID string) (int, error) {
	cart, err := s.Get(ctx, caller, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range cart.Items {
		n += it.Quantity
	}
	return n, nil
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, caller domain.Principal, userID string) error {
	owner, err := cartOwner(caller, userID)
	if err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, owner); err != nil {
		return domain.ErrInternal("failed to clear cart", err)
	}
	return nil
}

// AddressService manages saved addresses.
type AddressService struct {
	addresses AddressStore
	validate  *validator.Validate
}

func NewAddressService(addresses AddressStore) *AddressService {
	return &AddressService{addresses: addresses, validate: newValidator()}
}

func (s *AddressService) Add(ctx context.Context, userID string, req *domain.AddressRequest) (*domain.Address, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	a := &domain.Address{
		ID:          domain.NewID(),
		UserID:      userID,
		Label:       sanitizeText(req.Label),
		AddressLine: sanitizeText(req.AddressLine),
		City:        sanitizeText(req.City),
		State:       sanitizeText(req.State),
		Pincode:     sanitizeText(req.Pincode),
		Phone:       sanitizeText(req.Phone),
	}
	if err := s.addresses.Create(ctx, a); err != nil {
		return nil, domain.ErrInternal("failed to save address", err)
	}
	return a, nil
}

func (s *AddressService) List(ctx context.Context, userID string) ([]*domain.Address, error) {
	out, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list addresses", err)
	}
	return nonNilSlice(out), nil
}

// Delete removes one of the user's own addresses.
func (s *AddressService) Delete(ctx context.Context, userID, id string) error {
	if !domain.ValidID(id) {
		return domain.ErrNotFound("Address not found")
	}
	found, err := s.addresses.DeleteOwned(ctx, id, userID)
	if err != nil {
		return domain.ErrInternal("failed to delete address", err)
	}
	if !found {
		return domain.ErrNotFound("Address not found")
	}
	return nil
}

// CatalogService manages the list of services offered.
type CatalogService struct {
	services CatalogStore
	validate *validator.Validate
	now      func() time.Time
}

func NewCatalogService(services CatalogStore) *CatalogService {
	return &CatalogService{services: services, validate: newValidator(), now: time.Now}
}

// List returns every service, newest first.
func (s *CatalogService) List(ctx context.Context) ([]*domain.Service, error) {
	out, err := s.services.List(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list services", err)
	}
	return nonNilSlice(out), nil
}

func (s *CatalogService) Add(ctx context.Context, req *domain.ServiceRequest) (*domain.Service, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	svc := &domain.Service{
		ID:          domain.NewID(),
		Name:        sanitizeText(req.Name),
		Description: sanitizeText(req.Description),
		Price:       req.Price,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, domain.ErrInternal("failed to add service", err)
	}
	return svc, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, req *domain.ServiceRequest) (*domain.Service, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound("Service not found")
	}
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	svc := &domain.Service{
		ID:          id,
		Name:        sanitizeText(req.Name),
		Description: sanitizeText(req.Description),
		Price:       req.Price,
	}
	found, err := s.services.Update(ctx, svc)
	if err != nil {
		return nil, domain.ErrInternal("failed to update service", err)
	}
	if !found {
		return nil, domain.ErrNotFound("Service not found")
	}
	return svc, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if !domain.ValidID(id) {
		return domain.ErrNotFound("Service not found")
	}
	found, err := s.services.Delete(ctx, id)
	if err != nil {
		return domain.ErrInternal("failed to delete service", err)
	}
	if !found {
		return domain.ErrNotFound("Service not found")
	}
	return nil
}
