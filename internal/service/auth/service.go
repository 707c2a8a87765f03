package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/smarthealth/healthconnect-api/internal/email"
	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/repository"
	"github.com/smarthealth/healthconnect-api/pkg/auth"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/logger"
	"github.com/smarthealth/healthconnect-api/pkg/security"
)

const (
	resetTokenExpiry  = 1 * time.Hour
	verifyTokenExpiry = 48 * time.Hour
	maxLoginAttempts  = 5
	lockoutDuration   = 15 * time.Minute
	bcryptCost        = 12
)

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	emailSvc  email.Service
	// revoked holds logged-out access tokens until their natural expiry.
	revoked *cache.Cache
	logger  *logger.Logger
}

func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService,
	emailSvc email.Service,
	tokenExpiry time.Duration,
	logger *logger.Logger,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    security.NewBcryptHasher(bcryptCost),
		emailSvc:  emailSvc,
		revoked:   cache.New(tokenExpiry, 10*time.Minute),
		logger:    logger,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, errors.InvalidArgument("invalid role", err)
	}
	if role == model.RoleAdmin {
		return nil, errors.Forbidden("admin accounts cannot self-register")
	}

	if taken, err := s.userRepo.ExistsByUsername(ctx, req.Username); err != nil {
		return nil, errors.Internal(err)
	} else if taken {
		return nil, errors.Conflict("username already taken", nil)
	}
	if taken, err := s.userRepo.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, errors.Internal(err)
	} else if taken {
		return nil, errors.Conflict("email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.InvalidArgument("invalid password", err)
	}

	now := time.Now()
	user := &model.User{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hash,
		Role:           role,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Specialization: req.Specialization,
		IsActive:       true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, errors.Internal(err)
	}

	// Email failures never fail registration.
	token := uuid.New().String()
	if err := s.tokenRepo.StoreVerificationToken(ctx, user.ID, token, now.Add(verifyTokenExpiry)); err != nil {
		s.logger.Error(err, "failed to store verification token", "user_id", user.ID.String())
	} else if err := s.emailSvc.SendVerification(ctx, user.Email, token); err != nil {
		s.logger.Error(err, "failed to send verification email", "user_id", user.ID.String())
	}
	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.FullName()); err != nil {
		s.logger.Error(err, "failed to send welcome email", "user_id", user.ID.String())
	}

	return s.generateTokens(user)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByUsernameOrEmail(ctx, req.Username)
	if err != nil {
		return nil, errors.Unauthorized("invalid credentials")
	}

	if !user.IsActive {
		return nil, errors.Forbidden("account is deactivated")
	}

	if user.LockedUntil != nil {
		if time.Now().Before(*user.LockedUntil) {
			return nil, errors.Forbidden("account is locked, please try again later")
		}
		user.LockedUntil = nil
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		user.LoginAttempts++
		if user.LoginAttempts >= maxLoginAttempts {
			lockedUntil := time.Now().Add(lockoutDuration)
			user.LockedUntil = &lockedUntil
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, errors.Internal(err)
		}
		return nil, errors.Unauthorized("invalid credentials")
	}

	user.LoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Internal(err)
	}

	return s.generateTokens(user)
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("invalid refresh token")
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("invalid refresh token")
	}
	if !user.IsActive {
		return nil, errors.Forbidden("account is deactivated")
	}

	return s.generateTokens(user)
}

// Logout revokes the presented access token for the remainder of its lifetime.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return errors.Unauthorized("invalid token")
	}
	ttl := cache.DefaultExpiration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	s.revoked.Set(token, struct{}{}, ttl)
	return nil
}

// IsRevoked reports whether a token was logged out before its expiry.
func (s *Service) IsRevoked(token string) bool {
	_, found := s.revoked.Get(token)
	return found
}

func (s *Service) CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("user", err)
	}
	return user, nil
}

func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByUsernameOrEmail(ctx, emailAddr)
	if err != nil {
		// Unknown addresses are not disclosed.
		return nil
	}

	token := uuid.New().String()
	if err := s.tokenRepo.StoreResetToken(ctx, user.ID, token, time.Now().Add(resetTokenExpiry)); err != nil {
		return errors.Internal(err)
	}

	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, token); err != nil {
		return errors.Internal(err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokenRepo.ValidateResetToken(ctx, token)
	if err != nil {
		return errors.Unauthorized("invalid or expired reset token")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errors.InvalidArgument("invalid password", err)
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return errors.NotFound("user", err)
	}

	user.PasswordHash = hash
	user.LoginAttempts = 0
	user.LockedUntil = nil
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return errors.Internal(err)
	}

	return s.tokenRepo.InvalidateResetToken(ctx, token)
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokenRepo.ValidateVerificationToken(ctx, token)
	if err != nil {
		return errors.Unauthorized("invalid or expired verification token")
	}

	if err := s.userRepo.UpdateEmailVerified(ctx, userID, true); err != nil {
		return errors.Internal(err)
	}

	return s.tokenRepo.InvalidateVerificationToken(ctx, token)
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	accessToken, expiresAt, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal(err)
	}

	refreshToken, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, errors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}
