package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tailorone/backend/internal/domain"
)

// SubscriptionService manages the plan catalog and purchased instances.
type SubscriptionService struct {
	plans     PlanStore
	instances UserSubscriptionStore
	events    EventPublisher
	validate  *validator.Validate
	now       func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(plans PlanStore, instances UserSubscriptionStore, events EventPublisher) *SubscriptionService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &SubscriptionService{
		plans:     plans,
		instances: instances,
		events:    events,
		validate:  newValidator(),
		now:       time.Now,
	}
}

func (s *SubscriptionService) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// ListActivePlans returns the purchasable catalog.
func (s *SubscriptionService) ListActivePlans(ctx context.Context) ([]*domain.Plan, error) {
	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list plans", err)
	}
	return plans, nil
}

// CreatePlan adds a plan to the catalog (admin).
func (s *SubscriptionService) CreatePlan(ctx context.Context, req *domain.PlanRequest) (*domain.Plan, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	now := s.clock()
	p := &domain.Plan{
		ID:        domain.NewID(),
		CreatedAt: now,
	}
	applyPlanRequest(p, req, now)
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, domain.ErrInternal("failed to create plan", err)
	}
	return p, nil
}

// UpdatePlan replaces a catalog plan's fields (admin). Existing instances keep their snapshot.
func (s *SubscriptionService) UpdatePlan(ctx context.Context, id string, req *domain.PlanRequest) (*domain.Plan, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound("Subscription plan not found")
	}
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find plan", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound("Subscription plan not found")
	}
	applyPlanRequest(p, req, s.clock())
	found, err := s.plans.Update(ctx, p)
	if err != nil {
		return nil, domain.ErrInternal("failed to update plan", err)
	}
	if !found {
		return nil, domain.ErrNotFound("Subscription plan not found")
	}
	return p, nil
}

// DeletePlan removes a catalog plan (admin).
func (s *SubscriptionService) DeletePlan(ctx context.Context, id string) error {
	if !domain.ValidID(id) {
		return domain.ErrNotFound("Subscription plan not found")
	}
	found, err := s.plans.Delete(ctx, id)
	if err != nil {
		return domain.ErrInternal("failed to delete plan", err)
	}
	if !found {
		return domain.ErrNotFound("Subscription plan not found")
	}
	return nil
}

func applyPlanRequest(p *domain.Plan, req *domain.PlanRequest, now time.Time) {
	p.Name = req.Name
	p.Price = req.Price
	p.DurationDays = req.DurationDays
	p.ClothLimit = req.ClothLimit
	p.Benefits = req.Benefits
	if p.Benefits == nil {
		p.Benefits = []string{}
	}
	p.Active = true
	if req.Active != nil {
		p.Active = *req.Active
	}
	p.UpdatedAt = now
}

// Purchase activates a catalog plan for the caller. Admins may purchase on
// behalf of another user. Instances stack; nothing prevents duplicates.
func (s *SubscriptionService) Purchase(ctx context.Context, caller domain.Principal, req *domain.PurchaseRequest) (*domain.UserSubscription, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	userID := caller.ID
	if req.UserID != "" && req.UserID != caller.ID {
		if !caller.IsAdmin() {
			return nil, domain.ErrForbidden("cannot purchase for another user")
		}
		userID = req.UserID
	}

	if !domain.ValidID(req.SubscriptionID) {
		return nil, domain.ErrNotFound("Subscription plan not found")
	}
	plan, err := s.plans.FindByID(ctx, req.SubscriptionID)
	if err != nil {
		return nil, domain.ErrInternal("failed to find plan", err)
	}
	if plan == nil {
		return nil, domain.ErrNotFound("Subscription plan not found")
	}

	now := s.clock()
	sub := domain.NewUserSubscription(userID, plan, now)
	if req.Contact != nil {
		c := *req.Contact
		c.Name = sanitizeText(c.Name)
		c.Phone = sanitizeText(c.Phone)
		sub.Contact = &c
	}

	if err := s.instances.Create(ctx, sub); err != nil {
		return nil, domain.ErrInternal("failed to create subscription", err)
	}

	slog.Info("subscription purchased", "instance_id", sub.ID, "user_id", userID, "plan_id", plan.ID)
	publishEvent(ctx, s.events, domain.EventSubscriptionPurchased, domain.NewSubscriptionEvent(sub, now))
	return sub, nil
}

// RecordUsage adds used clothes to an instance and re-derives its status in
// the same atomic write. Negative or missing amounts count as zero and the
// counter saturates instead of overflowing.
func (s *SubscriptionService) RecordUsage(ctx context.Context, caller domain.Principal, id string, used int) (*domain.UserSubscriptionView, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound("User subscription not found")
	}
	now := s.clock()
	var expiredNow bool
	sub, err := s.instances.Mutate(ctx, id, func(sub *domain.UserSubscription) error {
		if sub.UserID != caller.ID && !caller.IsAdmin() {
			return domain.ErrForbidden("not your subscription")
		}
		before := sub.Status
		sub.AddUsage(used)
		domain.ApplyDerivedStatus(now, sub)
		expiredNow = before != domain.SubscriptionExpired && sub.Status == domain.SubscriptionExpired
		sub.UpdatedAt = now
		return nil
	})
	if err != nil {
		if _, ok := domain.AsAppError(err); ok {
			return nil, err
		}
		return nil, domain.ErrInternal("failed to update usage", err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound("User subscription not found")
	}

	if expiredNow {
		publishEvent(ctx, s.events, domain.EventSubscriptionExpired, domain.NewSubscriptionEvent(sub, now))
	}
	return &domain.UserSubscriptionView{UserSubscription: sub, DaysLeft: sub.DaysLeft(now)}, nil
}

// ListAll returns every instance newest first, correcting stale statuses on the way.
func (s *SubscriptionService) ListAll(ctx context.Context) ([]domain.UserSubscriptionView, error) {
	subs, err := s.instances.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list subscriptions", err)
	}
	return s.reconcile(ctx, subs)
}

// ListByUser returns one user's instances newest first (owner or admin).
func (s *SubscriptionService) ListByUser(ctx context.Context, caller domain.Principal, userID string) ([]domain.UserSubscriptionView, error) {
	if userID != caller.ID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden("not your subscriptions")
	}
	subs, err := s.instances.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list subscriptions", err)
	}
	return s.reconcile(ctx, subs)
}

// Get returns a single instance (owner or admin).
func (s *SubscriptionService) Get(ctx context.Context, caller domain.Principal, id string) (*domain.UserSubscriptionView, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound("User subscription not found")
	}
	sub, err := s.instances.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find subscription", err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound("User subscription not found")
	}
	if sub.UserID != caller.ID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden("not your subscription")
	}
	views, err := s.reconcile(ctx, []*domain.UserSubscription{sub})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ChangeStatus overwrites an instance's status (admin). Any enum value is
// accepted from any state.
func (s *SubscriptionService) ChangeStatus(ctx context.Context, id string, req *domain.SubscriptionStatusRequest) (*domain.UserSubscription, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound("User subscription not found")
	}
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	now := s.clock()
	sub, err := s.instances.Mutate(ctx, id, func(sub *domain.UserSubscription) error {
		sub.Status = req.Status
		sub.Active = req.Status == domain.SubscriptionActive
		sub.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to update subscription status", err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound("User subscription not found")
	}
	slog.Info("subscription status overridden", "instance_id", id, "status", req.Status)
	return sub, nil
}

// Stats counts instances by derived status (admin).
func (s *SubscriptionService) Stats(ctx context.Context) (*domain.SubscriptionStats, error) {
	views, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	stats := &domain.SubscriptionStats{Total: len(views)}
	for _, v := range views {
		switch v.Status {
		case domain.SubscriptionActive:
			stats.Active++
		case domain.SubscriptionExpired:
			stats.Expired++
		case domain.SubscriptionCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// ExpireDue writes back the derived status of every stale instance and
// returns how many were corrected.
func (s *SubscriptionService) ExpireDue(ctx context.Context) (int, error) {
	subs, err := s.instances.ListAll(ctx)
	if err != nil {
		return 0, domain.ErrInternal("failed to list subscriptions", err)
	}
	now := s.clock()
	corrected := 0
	for _, sub := range subs {
		if domain.DeriveStatus(now, sub) == sub.Status {
			continue
		}
		if _, err := s.correct(ctx, sub.ID, now); err != nil {
			return corrected, err
		}
		corrected++
	}
	return corrected, nil
}

// reconcile applies DeriveStatus to each instance, persisting any change
// before the views are returned.
func (s *SubscriptionService) reconcile(ctx context.Context, subs []*domain.UserSubscription) ([]domain.UserSubscriptionView, error) {
	now := s.clock()
	views := make([]domain.UserSubscriptionView, 0, len(subs))
	for _, sub := range subs {
		if domain.DeriveStatus(now, sub) != sub.Status {
			fresh, err := s.correct(ctx, sub.ID, now)
			if err != nil {
				return nil, err
			}
			if fresh != nil {
				sub = fresh
			}
		}
		views = append(views, domain.UserSubscriptionView{UserSubscription: sub, DaysLeft: sub.DaysLeft(now)})
	}
	return views, nil
}

func (s *SubscriptionService) correct(ctx context.Context, id string, now time.Time) (*domain.UserSubscription, error) {
	var expiredNow bool
	sub, err := s.instances.Mutate(ctx, id, func(sub *domain.UserSubscription) error {
		before := sub.Status
		if domain.ApplyDerivedStatus(now, sub) {
			sub.UpdatedAt = now
		}
		expiredNow = before != domain.SubscriptionExpired && sub.Status == domain.SubscriptionExpired
		return nil
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to expire subscription", err)
	}
	if expiredNow {
		slog.Info("subscription expired", "instance_id", id)
		publishEvent(ctx, s.events, domain.EventSubscriptionExpired, domain.NewSubscriptionEvent(sub, now))
	}
	return sub, nil
}
