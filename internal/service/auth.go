package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/pkg/crypto"
	"github.com/tailorone/backend/pkg/mailer"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig carries the settings AuthService needs.
type AuthConfig struct {
	JWTSecret           string
	JWTExpires          time.Duration
	AdminEmail          string
	AdminName           string
	AdminPassword       string
	RequireVerification bool
	OTPTTL              time.Duration
}

// AuthService handles registration, OTP flows, JWT issuance and user management.
type AuthService struct {
	cfg      AuthConfig
	users    UserStore
	mail     mailer.Mailer
	validate *validator.Validate
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthConfig, users UserStore, mail mailer.Mailer) *AuthService {
	if cfg.JWTExpires <= 0 {
		cfg.JWTExpires = 24 * time.Hour
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	cfg.AdminEmail = normalizeEmail(cfg.AdminEmail)
	if mail == nil {
		mail = mailer.LogMailer{}
	}
	return &AuthService{
		cfg:      cfg,
		users:    users,
		mail:     mail,
		validate: newValidator(),
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SeedAdmin makes sure the configured admin account exists, promoting an
// existing account with that e-mail if necessary.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		slog.Info("admin seeding skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, s.cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}
	if existing != nil {
		if existing.Role == domain.RoleAdmin && existing.IsVerified {
			slog.Info("admin user already exists", "email", s.cfg.AdminEmail)
			return nil
		}
		existing.Role = domain.RoleAdmin
		existing.IsVerified = true
		existing.UpdatedAt = s.now().UTC()
		if err := s.users.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to promote admin user: %w", err)
		}
		slog.Info("existing user promoted to admin", "email", s.cfg.AdminEmail)
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := s.now().UTC()
	name := s.cfg.AdminName
	if name == "" {
		name = "Admin"
	}
	admin := &domain.User{
		ID:         domain.NewID(),
		Name:       name,
		Email:      s.cfg.AdminEmail,
		Password:   string(hashed),
		Role:       domain.RoleAdmin,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	slog.Info("admin user created", "email", s.cfg.AdminEmail)
	return nil
}

// Register creates a customer account. The configured admin e-mail
// registers as admin. When verification is required an OTP is e-mailed and
// the account stays unverified until VerifyOTP succeeds.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return nil, domain.ErrInternal("failed to check user", err)
	}
	if exists {
		return nil, domain.ErrConflict("User already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("failed to hash password", err)
	}

	role := domain.RoleCustomer
	if email == s.cfg.AdminEmail {
		role = domain.RoleAdmin
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:         domain.NewID(),
		Name:       sanitizeText(req.Name),
		Email:      email,
		Password:   string(hashed),
		Phone:      strings.TrimSpace(req.Phone),
		Role:       role,
		IsVerified: !s.cfg.RequireVerification,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var otp string
	if s.cfg.RequireVerification {
		otp, err = s.armOTP(user, now)
		if err != nil {
			return nil, err
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}

	if otp != "" {
		if err := s.sendOTP(ctx, user.Email, "verify", otp); err != nil {
			return nil, err
		}
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *AuthService) armOTP(u *domain.User, now time.Time) (string, error) {
	otp, err := crypto.GenerateOTP()
	if err != nil {
		return "", domain.ErrInternal("failed to generate otp", err)
	}
	expires := now.Add(s.cfg.OTPTTL)
	u.OTPHash = crypto.HashOTP(otp)
	u.OTPExpires = &expires
	u.OTPAttempts = 0
	u.UpdatedAt = now
	return otp, nil
}

func (s *AuthService) sendOTP(ctx context.Context, to, purpose, otp string) error {
	subject, plain, html := mailer.OTPMessage(purpose, otp, int(s.cfg.OTPTTL/time.Minute))
	if err := s.mail.Send(ctx, to, subject, plain, html); err != nil {
		slog.Error("failed to send otp email", "to", to, "error", err)
		return domain.ErrUpstream("Failed to send email", err)
	}
	return nil
}

// MaxOTPAttempts is how many wrong codes an account may submit before its
// pending OTP is burned and a new one must be requested.
const MaxOTPAttempts = 5

// consumeOTP checks otp against u and clears it on success. Misses are
// counted on the account; the OTP stops working after MaxOTPAttempts.
func (s *AuthService) consumeOTP(ctx context.Context, u *domain.User, otp string, now time.Time) error {
	invalid := domain.ErrBadRequest("Invalid or expired OTP")
	if u == nil || u.OTPExpires == nil || !now.Before(*u.OTPExpires) {
		return invalid
	}
	if u.OTPAttempts >= MaxOTPAttempts {
		return invalid
	}
	if !crypto.CheckOTP(otp, u.OTPHash) {
		attempts, err := s.users.RecordOTPFailure(ctx, u.ID, MaxOTPAttempts)
		if err != nil {
			return domain.ErrInternal("failed to record otp attempt", err)
		}
		if attempts >= MaxOTPAttempts {
			slog.Warn("otp burned after repeated failures", "user_id", u.ID, "attempts", attempts)
		}
		return invalid
	}
	u.OTPHash = ""
	u.OTPExpires = nil
	u.OTPAttempts = 0
	u.UpdatedAt = now
	return nil
}

// VerifyOTP confirms a registration OTP and logs the user in.
func (s *AuthService) VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*domain.LoginResponse, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if err := s.consumeOTP(ctx, user, req.OTP, s.now().UTC()); err != nil {
		return nil, err
	}
	user.IsVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to verify user", err)
	}
	return s.issue(user)
}

// Login validates credentials against the database and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	if !user.IsVerified {
		return nil, domain.ErrForbidden("Please verify your email before logging in")
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*domain.LoginResponse, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   now.Add(s.cfg.JWTExpires).Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, domain.ErrInternal("failed to sign token", err)
	}

	return &domain.LoginResponse{Token: signed, User: user.ToResponse()}, nil
}

// ForgotPassword e-mails a reset OTP. Unknown addresses get the same
// silent success so accounts cannot be enumerated.
func (s *AuthService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) error {
	if err := validateStruct(s.validate, req); err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		slog.Info("password reset requested for unknown email")
		return nil
	}

	otp, err := s.armOTP(user, s.now().UTC())
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return domain.ErrInternal("failed to store otp", err)
	}
	return s.sendOTP(ctx, user.Email, "reset", otp)
}

// ResetPassword sets a new password once the reset OTP checks out.
func (s *AuthService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error {
	if err := validateStruct(s.validate, req); err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return domain.ErrInternal("failed to find user", err)
	}
	if err := s.consumeOTP(ctx, user, req.OTP, s.now().UTC()); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.ErrInternal("failed to hash password", err)
	}
	user.Password = string(hashed)
	// Receiving the OTP proves control of the mailbox.
	user.IsVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return domain.ErrInternal("failed to reset password", err)
	}
	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// VerifyToken validates a JWT token and returns the claims.
func (s *AuthService) VerifyToken(tokenStr string) (*domain.JWTClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, domain.ErrUnauthorized("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized("invalid token claims")
	}

	out := &domain.JWTClaims{
		Sub:   getClaimString(claims, "sub"),
		Email: getClaimString(claims, "email"),
		Role:  getClaimString(claims, "role"),
	}
	if out.Sub == "" {
		return nil, domain.ErrUnauthorized("invalid token claims")
	}
	return out, nil
}

func getClaimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// ListUsers returns all users (admin only).
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.UserResponse, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list users", err)
	}

	responses := make([]domain.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	return responses, nil
}

// CreateUser creates a verified account with the given role (admin only).
func (s *AuthService) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserResponse, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return nil, domain.ErrInternal("failed to check user", err)
	}
	if exists {
		return nil, domain.ErrConflict("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("failed to hash password", err)
	}

	role := req.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:         domain.NewID(),
		Name:       sanitizeText(req.Name),
		Email:      email,
		Password:   string(hashed),
		Role:       role,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}

	resp := user.ToResponse()
	return &resp, nil
}

// DeleteUser removes a user by ID (admin only). Admin accounts are protected.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	if !domain.ValidID(id) {
		return domain.ErrNotFound("user not found")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return domain.ErrNotFound("user not found")
	}
	if user.Role == domain.RoleAdmin {
		return domain.ErrBadRequest("cannot delete admin user")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return domain.ErrInternal("failed to delete user", err)
	}
	return nil
}

// GetUserByID returns a user profile by ID (for /api/auth/me).
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.UserResponse, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound("user not found")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	resp := user.ToResponse()
	return &resp, nil
}
