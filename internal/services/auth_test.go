package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lebbnb/apiserver/config"
	"github.com/lebbnb/apiserver/internal/auth"
	"github.com/lebbnb/apiserver/internal/store"
	"github.com/lebbnb/apiserver/types"
)

// fakeAdminRepo is an in-memory AdminRepository mirroring the store's
// conditional-update lockout semantics.
type fakeAdminRepo struct {
	admins map[int]*types.Admin
	nextID int
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: map[int]*types.Admin{}, nextID: 1}
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id int) (types.Admin, error) {
	admin, ok := r.admins[id]
	if !ok {
		return types.Admin{}, store.ErrNotFound
	}
	return *admin, nil
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (types.Admin, error) {
	for _, admin := range r.admins {
		if admin.Email == email {
			return *admin, nil
		}
	}
	return types.Admin{}, store.ErrNotFound
}

func (r *fakeAdminRepo) Create(_ context.Context, admin types.Admin) (types.Admin, error) {
	for _, existing := range r.admins {
		if existing.Email == admin.Email {
			return types.Admin{}, store.ErrDuplicate
		}
	}
	admin.ID = r.nextID
	r.nextID++
	r.admins[admin.ID] = &admin
	return admin, nil
}

func (r *fakeAdminRepo) RecordFailedLogin(_ context.Context, id int, threshold int, lockWindow time.Duration) error {
	admin, ok := r.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now()
	if admin.LockUntil != nil && !admin.LockUntil.After(now) {
		admin.LoginAttempts = 1
		admin.LockUntil = nil
		return nil
	}
	admin.LoginAttempts++
	if admin.LoginAttempts >= threshold && admin.LockUntil == nil {
		until := now.Add(lockWindow)
		admin.LockUntil = &until
	}
	return nil
}

func (r *fakeAdminRepo) RecordLogin(_ context.Context, id int, refreshToken string, at time.Time) error {
	admin, ok := r.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	admin.LoginAttempts = 0
	admin.LockUntil = nil
	admin.RefreshToken = &refreshToken
	admin.LastLogin = &at
	return nil
}

func (r *fakeAdminRepo) SetRefreshToken(_ context.Context, id int, refreshToken string) error {
	admin, ok := r.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	admin.RefreshToken = &refreshToken
	return nil
}

func (r *fakeAdminRepo) ClearRefreshToken(_ context.Context, id int) error {
	admin, ok := r.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	admin.RefreshToken = nil
	return nil
}

func (r *fakeAdminRepo) UpdatePassword(_ context.Context, id int, passwordHash string, changedAt time.Time) error {
	admin, ok := r.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	admin.PasswordHash = passwordHash
	admin.PasswordChangedAt = &changedAt
	admin.RefreshToken = nil
	return nil
}

const testPassword = "Sup3rSecret!"

func newTestAuthService(t *testing.T) (*AuthService, *fakeAdminRepo) {
	t.Helper()
	tokens, err := auth.NewTokenManager(config.JWTConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	repo := newFakeAdminRepo()
	return NewAuthService(repo, tokens), repo
}

func seedAdmin(t *testing.T, repo *fakeAdminRepo, email string) types.Admin {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin, err := repo.Create(context.Background(), types.Admin{
		Email:        email,
		Name:         "Test Admin",
		Role:         types.RoleAdmin,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return admin
}

func TestRegisterValidatesInput(t *testing.T) {
	service, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, "not-an-email", "X", "", testPassword); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := service.Register(ctx, "a@b.com", "X", "root", testPassword); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := service.Register(ctx, "a@b.com", "X", "", "weak"); !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRegisterNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	service, _ := newTestAuthService(t)
	ctx := context.Background()

	admin, err := service.Register(ctx, "  Admin@Example.COM ", "Test Admin", "", testPassword)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if admin.Email != "admin@example.com" {
		t.Fatalf("expected normalized email, got %q", admin.Email)
	}
	if admin.Role != types.RoleAdmin {
		t.Fatalf("expected default role, got %q", admin.Role)
	}

	if _, err := service.Register(ctx, "admin@example.com", "Other", "", testPassword); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seeded := seedAdmin(t, repo, "admin@example.com")

	admin, pair, err := service.Login(ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if admin.ID != seeded.ID {
		t.Fatalf("unexpected admin id %d", admin.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens to be minted")
	}

	stored := repo.admins[seeded.ID]
	if stored.RefreshToken == nil || *stored.RefreshToken != pair.RefreshToken {
		t.Fatalf("expected refresh token to be persisted")
	}
	if stored.LastLogin == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestLoginUnknownEmailLooksLikeBadCredentials(t *testing.T) {
	service, _ := newTestAuthService(t)

	_, _, err := service.Login(context.Background(), "nobody@example.com", testPassword)
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seeded := seedAdmin(t, repo, "admin@example.com")

	for i := 0; i < maxLoginAttempts; i++ {
		_, _, err := service.Login(ctx, "admin@example.com", "WrongPass1!")
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	if repo.admins[seeded.ID].LockUntil == nil {
		t.Fatalf("expected account to be locked after %d failures", maxLoginAttempts)
	}

	// Even the correct password is rejected while the lock holds.
	_, _, err := service.Login(ctx, "admin@example.com", testPassword)
	if !errors.Is(err, auth.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

func TestLoginAfterLockExpiry(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seeded := seedAdmin(t, repo, "admin@example.com")

	expired := time.Now().Add(-time.Minute)
	repo.admins[seeded.ID].LoginAttempts = maxLoginAttempts
	repo.admins[seeded.ID].LockUntil = &expired

	_, _, err := service.Login(ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("expected login to succeed after lock expiry, got %v", err)
	}
	if repo.admins[seeded.ID].LoginAttempts != 0 || repo.admins[seeded.ID].LockUntil != nil {
		t.Fatalf("expected counters to reset on success")
	}
}

func TestFailedLoginAfterLockExpiryRestartsCounter(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seeded := seedAdmin(t, repo, "admin@example.com")

	expired := time.Now().Add(-time.Minute)
	repo.admins[seeded.ID].LoginAttempts = maxLoginAttempts
	repo.admins[seeded.ID].LockUntil = &expired

	// A wrong password after the lock has expired is a plain bad-credentials
	// failure: the counter restarts at 1 and the stale lock is cleared, it
	// must not relock on attempts carried over from the previous window.
	_, _, err := service.Login(ctx, "admin@example.com", "WrongPass1!")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	stored := repo.admins[seeded.ID]
	if stored.LoginAttempts != 1 {
		t.Fatalf("expected attempts to restart at 1, got %d", stored.LoginAttempts)
	}
	if stored.LockUntil != nil {
		t.Fatalf("expected stale lock to be cleared")
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seeded := seedAdmin(t, repo, "admin@example.com")
	repo.admins[seeded.ID].IsActive = false

	_, _, err := service.Login(ctx, "admin@example.com", testPassword)
	if !errors.Is(err, auth.ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seedAdmin(t, repo, "admin@example.com")

	_, pair, err := service.Login(ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := service.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatalf("expected a new refresh token")
	}

	// The superseded token no longer matches the stored one.
	if _, err := service.Refresh(ctx, pair.RefreshToken); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected superseded token to be rejected, got %v", err)
	}

	// The current one still works.
	if _, err := service.Refresh(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("refresh with current token: %v", err)
	}
}

func TestRefreshRejectsGarbageAndLoggedOutSessions(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seeded := seedAdmin(t, repo, "admin@example.com")

	if _, err := service.Refresh(ctx, "garbage"); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	_, pair, err := service.Login(ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := service.Logout(ctx, seeded.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := service.Refresh(ctx, pair.RefreshToken); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected refresh after logout to fail, got %v", err)
	}
}

func TestLogoutUnknownAdminIsNoop(t *testing.T) {
	service, _ := newTestAuthService(t)
	if err := service.Logout(context.Background(), 999); err != nil {
		t.Fatalf("expected logout of unknown admin to succeed, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seeded := seedAdmin(t, repo, "admin@example.com")

	_, pair, err := service.Login(ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := service.ChangePassword(ctx, seeded.ID, "WrongPass1!", "NewSecret1!"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := service.ChangePassword(ctx, seeded.ID, testPassword, "weak"); !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := service.ChangePassword(ctx, seeded.ID, testPassword, "NewSecret1!"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if repo.admins[seeded.ID].RefreshToken != nil {
		t.Fatalf("expected stored refresh token to be cleared")
	}
	if _, err := service.Refresh(ctx, pair.RefreshToken); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected old session refresh to fail, got %v", err)
	}

	if _, _, err := service.Login(ctx, "admin@example.com", testPassword); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
	if _, _, err := service.Login(ctx, "admin@example.com", "NewSecret1!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seeded := seedAdmin(t, repo, "admin@example.com")

	_, pair, err := service.Login(ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	admin, err := service.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if admin.ID != seeded.ID {
		t.Fatalf("unexpected admin id %d", admin.ID)
	}

	if _, err := service.Authenticate(ctx, pair.RefreshToken); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected refresh token to be rejected by the gate, got %v", err)
	}
	if _, err := service.Authenticate(ctx, "garbage"); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthenticateDeactivatedAccount(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seeded := seedAdmin(t, repo, "admin@example.com")

	_, pair, err := service.Login(ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	repo.admins[seeded.ID].IsActive = false
	if _, err := service.Authenticate(ctx, pair.AccessToken); !errors.Is(err, auth.ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestAuthenticateRejectsTokensFromBeforePasswordChange(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()
	seeded := seedAdmin(t, repo, "admin@example.com")

	_, pair, err := service.Login(ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Simulate the password change happening strictly after the token was
	// issued.
	service.now = func() time.Time { return time.Now().Add(5 * time.Second) }
	if err := service.ChangePassword(ctx, seeded.ID, testPassword, "NewSecret1!"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := service.Authenticate(ctx, pair.AccessToken); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected pre-change token to be rejected, got %v", err)
	}
}
