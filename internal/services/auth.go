package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/lebbnb/apiserver/internal/auth"
	"github.com/lebbnb/apiserver/internal/store"
	"github.com/lebbnb/apiserver/types"
)

// Lockout policy: an account locks for two hours after five consecutive
// failed logins. Per-account counters keep one attacker from rate-limiting
// everyone and give a clear audit trail.
const (
	maxLoginAttempts = 5
	lockWindow       = 2 * time.Hour
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// AdminRepository defines persistence operations for admin accounts.
type AdminRepository interface {
	GetByID(ctx context.Context, id int) (types.Admin, error)
	GetByEmail(ctx context.Context, email string) (types.Admin, error)
	Create(ctx context.Context, admin types.Admin) (types.Admin, error)
	RecordFailedLogin(ctx context.Context, id int, threshold int, lockWindow time.Duration) error
	RecordLogin(ctx context.Context, id int, refreshToken string, at time.Time) error
	SetRefreshToken(ctx context.Context, id int, refreshToken string) error
	ClearRefreshToken(ctx context.Context, id int) error
	UpdatePassword(ctx context.Context, id int, passwordHash string, changedAt time.Time) error
}

// TokenPair is an access/refresh token set minted at login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService implements the admin authentication flows: registration,
// login with account lockout, token refresh with rotation, logout, and
// password change.
type AuthService struct {
	repo   AdminRepository
	tokens *auth.TokenManager
	now    func() time.Time
}

func NewAuthService(repo AdminRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register creates a new admin account. The password must pass the policy
// check; a duplicate email surfaces as store.ErrDuplicate.
func (s *AuthService) Register(ctx context.Context, email, name, role, password string) (types.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return types.Admin{}, ErrInvalidEmail
	}
	if role == "" {
		role = types.RoleAdmin
	}
	if role != types.RoleAdmin && role != types.RoleSuperAdmin {
		return types.Admin{}, ErrInvalidRole
	}
	if err := auth.ValidatePassword(password); err != nil {
		return types.Admin{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return types.Admin{}, err
	}

	return s.repo.Create(ctx, types.Admin{
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
	})
}

// Login verifies credentials and mints a token pair. Failures are reported
// with three distinct reasons: bad credentials (which also covers unknown
// email), a lockout window in effect, and a deactivated account. A failed
// password check counts toward the lockout threshold; a successful login
// resets the counter and persists the new refresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (types.Admin, TokenPair, error) {
	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Admin{}, TokenPair{}, auth.ErrInvalidCredentials
		}
		return types.Admin{}, TokenPair{}, err
	}

	now := s.now()
	if locked(admin, now) {
		return types.Admin{}, TokenPair{}, auth.ErrAccountLocked
	}
	if !admin.IsActive {
		return types.Admin{}, TokenPair{}, auth.ErrAccountDeactivated
	}

	ok, err := auth.CheckPassword(password, admin.PasswordHash)
	if err != nil {
		return types.Admin{}, TokenPair{}, err
	}
	if !ok {
		if err := s.repo.RecordFailedLogin(ctx, admin.ID, maxLoginAttempts, lockWindow); err != nil {
			return types.Admin{}, TokenPair{}, err
		}
		return types.Admin{}, TokenPair{}, auth.ErrInvalidCredentials
	}

	pair, err := s.mintPair(admin)
	if err != nil {
		return types.Admin{}, TokenPair{}, err
	}

	if err := s.repo.RecordLogin(ctx, admin.ID, pair.RefreshToken, now); err != nil {
		return types.Admin{}, TokenPair{}, err
	}

	admin.LoginAttempts = 0
	admin.LockUntil = nil
	admin.LastLogin = &now
	return admin, pair, nil
}

// Logout clears the stored refresh token so any later refresh attempt fails
// the equality check. Access tokens remain valid until they expire.
func (s *AuthService) Logout(ctx context.Context, adminID int) error {
	err := s.repo.ClearRefreshToken(ctx, adminID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Refresh rotates a token pair. The presented token must verify and exactly
// match the stored refresh token; a superseded token is rejected even if it
// has not yet expired. The new refresh token is persisted, invalidating the
// presented one.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, auth.ErrTokenInvalid
	}
	adminID, err := claims.AdminID()
	if err != nil {
		return TokenPair{}, auth.ErrTokenInvalid
	}

	admin, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, auth.ErrTokenInvalid
		}
		return TokenPair{}, err
	}
	if admin.RefreshToken == nil || *admin.RefreshToken != refreshToken {
		return TokenPair{}, auth.ErrTokenInvalid
	}
	if !admin.IsActive {
		return TokenPair{}, auth.ErrAccountDeactivated
	}

	pair, err := s.mintPair(admin)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.repo.SetRefreshToken(ctx, admin.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// ChangePassword verifies the current password, installs the new hash, and
// clears the stored refresh token. password_changed_at is backdated by one
// second so tokens minted in the same instant are still rejected.
func (s *AuthService) ChangePassword(ctx context.Context, adminID int, currentPassword, newPassword string) error {
	admin, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(currentPassword, admin.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrInvalidCredentials
	}

	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	changedAt := s.now().Add(-time.Second)
	return s.repo.UpdatePassword(ctx, adminID, hash, changedAt)
}

// Authenticate validates an access token for a request. The account is
// loaded fresh from the store on every call: claims alone are never trusted.
// It rejects missing accounts, deactivated accounts, and tokens issued
// before the most recent password change.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (types.Admin, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return types.Admin{}, auth.ErrTokenInvalid
	}
	adminID, err := claims.AdminID()
	if err != nil {
		return types.Admin{}, auth.ErrTokenInvalid
	}

	admin, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Admin{}, auth.ErrTokenInvalid
		}
		return types.Admin{}, err
	}
	if !admin.IsActive {
		return types.Admin{}, auth.ErrAccountDeactivated
	}
	if admin.PasswordChangedAt != nil && claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(*admin.PasswordChangedAt) {
		return types.Admin{}, auth.ErrTokenInvalid
	}
	return admin, nil
}

// GetByID loads an admin account.
func (s *AuthService) GetByID(ctx context.Context, id int) (types.Admin, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AuthService) mintPair(admin types.Admin) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// locked reports whether a lockout window is currently in effect. A stored
// lock_until in the past means the lock has expired, even though the value
// is only cleared on the next counted attempt.
func locked(admin types.Admin, now time.Time) bool {
	return admin.LockUntil != nil && admin.LockUntil.After(now)
}
