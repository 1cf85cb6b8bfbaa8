package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/internal/users"
	"github.com/nearmarket/nearmarket-backend/internal/vendors"
	pkgAuth "github.com/nearmarket/nearmarket-backend/pkg/auth"
	"github.com/nearmarket/nearmarket-backend/pkg/config"
	"github.com/nearmarket/nearmarket-backend/pkg/db"
	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error)
}

type service struct {
	dbClient *db.Client
	users    *users.Repository
	tokens   *TokenRepository
	profiles *vendors.ProfileRepository
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	DBClient    *db.Client
	UserRepo    *users.Repository
	TokenRepo   *TokenRepository
	ProfileRepo *vendors.ProfileRepository
	JWTConfig   config.JWTConfig
	Password    config.PasswordConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DBClient == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.TokenRepo == nil {
		return nil, fmt.Errorf("token repository is required")
	}
	if params.ProfileRepo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	return &service{
		dbClient: params.DBClient,
		users:    params.UserRepo,
		tokens:   params.TokenRepo,
		profiles: params.ProfileRepo,
		jwtCfg:   params.JWTConfig,
		pwCfg:    params.Password,
		now:      time.Now,
	}, nil
}

// Register creates the account, vendor profile when applicable, and issues the
// first token pair.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	role := enums.UserRoleCustomer
	if req.Role != "" {
		parsed, err := enums.ParseUserRole(req.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be customer or vendor")
		}
		role = parsed
	}
	if role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be customer or vendor")
	}

	email := normalizeEmail(req.Email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup email")
	}

	hash, err := security.HashPassword(req.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txUsers := s.users.WithTx(tx)

		user, err := txUsers.Create(ctx, users.CreateUserDTO{
			Name:         strings.TrimSpace(req.Name),
			Email:        email,
			PasswordHash: hash,
			Role:         role,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "idx_users_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert user")
		}
		created = user

		// Vendor accounts get a profile immediately; shop name defaults to the
		// registrant's name until they update it.
		if role == enums.UserRoleVendor {
			profile := &models.VendorProfile{
				UserID:   user.ID,
				ShopName: user.Name,
			}
			if _, err := s.profiles.WithTx(tx).Create(ctx, profile); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert vendor profile")
			}
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register user")
	}

	pair, err := s.issuePair(ctx, created)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: users.FromModel(created), Tokens: *pair}, nil
}

// Login verifies the password and issues a fresh token pair.
func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup email")
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: users.FromModel(user), Tokens: *pair}, nil
}

// Refresh rotates the presented refresh token and mints a new access token.
// The old row is revoked in the same transaction that inserts its successor.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token required")
	}

	stored, err := s.tokens.FindByHash(ctx, pkgAuth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup refresh token")
	}

	now := s.now()
	if stored.Revoked || now.After(stored.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token expired or revoked")
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}

	rawRefresh, refreshHash, err := pkgAuth.GenerateRefreshToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate refresh token")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txTokens := s.tokens.WithTx(tx)
		if err := txTokens.Revoke(ctx, stored.ID); err != nil {
			return err
		}
		_, err := txTokens.Create(ctx, &models.RefreshToken{
			UserID:    user.ID,
			TokenHash: refreshHash,
			ExpiresAt: now.Add(s.jwtCfg.RefreshTokenTTL()),
		})
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}

	access, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: rawRefresh}, nil
}

// Logout revokes the presented refresh token. Access tokens already issued
// stay valid until natural expiry. Unknown tokens are treated as a no-op.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	stored, err := s.tokens.FindByHash(ctx, pkgAuth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup refresh token")
	}
	if stored.Revoked {
		return nil
	}
	if err := s.tokens.Revoke(ctx, stored.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: revoke refresh token")
	}
	return nil
}

// Me returns the current user with their vendor profile summary when present.
func (s *service) Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}

	resp := &MeResponse{User: users.FromModel(user)}
	if user.Role == enums.UserRoleVendor {
		profile, err := s.profiles.FindByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor profile")
		}
		if profile != nil {
			resp.Vendor = &VendorProfileSummary{
				ID:         profile.ID,
				ShopName:   profile.ShopName,
				Verified:   profile.Verified,
				City:       profile.City,
				CreatedAt:  profile.CreatedAt,
				VerifiedAt: profile.VerifiedAt,
			}
		}
	}
	return resp, nil
}

func (s *service) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := s.now()

	access, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	rawRefresh, refreshHash, err := pkgAuth.GenerateRefreshToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate refresh token")
	}

	if _, err := s.tokens.Create(ctx, &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: refreshHash,
		ExpiresAt: now.Add(s.jwtCfg.RefreshTokenTTL()),
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store refresh token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: rawRefresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
