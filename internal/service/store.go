package service

import (
	"context"

	"github.com/tailorone/backend/internal/domain"
)

// The stores below are implemented by internal/repository against Postgres
// and by internal/service/servicetest in memory. Finders return (nil, nil)
// when nothing matches. Mutate loads a document under a row lock, applies fn
// and persists the result atomically; it returns (nil, nil) for a missing
// document and writes nothing when fn fails.

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	// RecordOTPFailure atomically bumps the failed-attempt counter and
	// clears the OTP once it reaches limit. It returns the new count.
	RecordOTPFailure(ctx context.Context, id string, limit int) (int, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// PlanStore persists the subscription catalog.
type PlanStore interface {
	Create(ctx context.Context, p *domain.Plan) error
	FindByID(ctx context.Context, id string) (*domain.Plan, error)
	ListActive(ctx context.Context) ([]*domain.Plan, error)
	Update(ctx context.Context, p *domain.Plan) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// UserSubscriptionStore persists purchased subscription instances.
type UserSubscriptionStore interface {
	Create(ctx context.Context, s *domain.UserSubscription) error
	FindByID(ctx context.Context, id string) (*domain.UserSubscription, error)
	ListAll(ctx context.Context) ([]*domain.UserSubscription, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.UserSubscription, error)
	Mutate(ctx context.Context, id string, fn func(*domain.UserSubscription) error) (*domain.UserSubscription, error)
}

// OrderStore persists orders.
type OrderStore interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	Mutate(ctx context.Context, id string, fn func(*domain.Order) error) (*domain.Order, error)
	Count(ctx context.Context) (int, error)
}

// OfferStore persists promotional offers.
type OfferStore interface {
	Create(ctx context.Context, o *domain.Offer) error
	FindByID(ctx context.Context, id string) (*domain.Offer, error)
	FindActiveByCode(ctx context.Context, code string) (*domain.Offer, error)
	ListActive(ctx context.Context) ([]*domain.Offer, error)
	CodeTaken(ctx context.Context, code, excludeID string) (bool, error)
	Update(ctx context.Context, o *domain.Offer) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CartStore persists the single cart each user owns.
type CartStore interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, c *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// AddressStore persists address-book entries.
type AddressStore interface {
	Create(ctx context.Context, a *domain.Address) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Address, error)
	DeleteOwned(ctx context.Context, id, userID string) (bool, error)
}

// CatalogStore persists the service catalog.
type CatalogStore interface {
	Create(ctx context.Context, s *domain.Service) error
	List(ctx context.Context) ([]*domain.Service, error)
	Update(ctx context.Context, s *domain.Service) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ConfigStore persists opaque configuration blobs by key.
type ConfigStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, data string) error
}
