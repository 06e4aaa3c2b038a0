package service

import (
	"context"
	"log/slog"

	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/pkg/crypto"
)

const emailJSConfigKey = "emailjs"

// SystemService handles app-wide settings and dashboard counters.
type SystemService struct {
	config        ConfigStore
	enc           *crypto.Encryptor
	users         UserStore
	orders        OrderStore
	subscriptions *SubscriptionService
	gatewayKeyID  string
}

// NewSystemService creates a new SystemService.
func NewSystemService(config ConfigStore, enc *crypto.Encryptor, users UserStore, orders OrderStore, subscriptions *SubscriptionService, gatewayKeyID string) *SystemService {
	return &SystemService{
		config:        config,
		enc:           enc,
		users:         users,
		orders:        orders,
		subscriptions: subscriptions,
		gatewayKeyID:  gatewayKeyID,
	}
}

// GetEmailJSConfig returns the stored EmailJS settings, or empty ones.
func (s *SystemService) GetEmailJSConfig(ctx context.Context) (*domain.EmailJSConfig, error) {
	sealed, err := s.config.Get(ctx, emailJSConfigKey)
	if err != nil {
		return nil, domain.ErrInternal("failed to load config", err)
	}
	cfg := &domain.EmailJSConfig{}
	if sealed == "" {
		return cfg, nil
	}
	if err := s.enc.OpenJSON(sealed, cfg); err != nil {
		// A rotated ENCRYPTION_KEY makes old entries unreadable; treat as unset.
		slog.Error("failed to decrypt emailjs config", "error", err)
		return &domain.EmailJSConfig{}, nil
	}
	return cfg, nil
}

// UpdateEmailJSConfig upserts the EmailJS settings (admin).
func (s *SystemService) UpdateEmailJSConfig(ctx context.Context, req *domain.EmailJSConfig) (*domain.EmailJSConfig, error) {
	cfg := &domain.EmailJSConfig{
		ServiceID:  sanitizeText(req.ServiceID),
		TemplateID: sanitizeText(req.TemplateID),
		PublicKey:  sanitizeText(req.PublicKey),
	}
	sealed, err := s.enc.SealJSON(cfg)
	if err != nil {
		return nil, domain.ErrInternal("failed to encrypt config", err)
	}
	if err := s.config.Set(ctx, emailJSConfigKey, sealed); err != nil {
		return nil, domain.ErrInternal("failed to save config", err)
	}
	return cfg, nil
}

// GatewayKeyID is the public payment key the storefront checkout needs.
func (s *SystemService) GatewayKeyID() string {
	return s.gatewayKeyID
}

// AdminStats is the dashboard summary.
type AdminStats struct {
	Users               int `json:"users"`
	Orders              int `json:"orders"`
	ActiveSubscriptions int `json:"activeSubscriptions"`
}

// Stats counts users, orders and active subscriptions (admin).
func (s *SystemService) Stats(ctx context.Context) (*AdminStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to count users", err)
	}
	orders, err := s.orders.Count(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to count orders", err)
	}
	subs, err := s.subscriptions.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminStats{Users: users, Orders: orders, ActiveSubscriptions: subs.Active}, nil
}
