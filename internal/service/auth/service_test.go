package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthealth/healthconnect-api/internal/email"
	"github.com/smarthealth/healthconnect-api/internal/model"
	pkgauth "github.com/smarthealth/healthconnect-api/pkg/auth"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/logger"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == usernameOrEmail || u.Email == usernameOrEmail {
			return u, nil
		}
	}
	return nil, errors.NotFound("user", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, emailAddr string) (bool, error) {
	for _, u := range r.users {
		if u.Email == emailAddr {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return errors.NotFound("user", nil)
	}
	u.IsActive = active
	return nil
}

func (r *fakeUserRepo) UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	u, ok := r.users[id]
	if !ok {
		return errors.NotFound("user", nil)
	}
	u.EmailVerified = verified
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountActiveByRole(ctx context.Context, role model.Role) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role == role && u.IsActive {
			n++
		}
	}
	return n, nil
}

type storedToken struct {
	userID uuid.UUID
	expiry time.Time
	used   bool
}

type fakeTokenRepo struct {
	reset  map[string]*storedToken
	verify map[string]*storedToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		reset:  make(map[string]*storedToken),
		verify: make(map[string]*storedToken),
	}
}

func (r *fakeTokenRepo) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	r.reset[token] = &storedToken{userID: userID, expiry: expiry}
	return nil
}

func (r *fakeTokenRepo) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	return validate(r.reset, token)
}

func (r *fakeTokenRepo) InvalidateResetToken(ctx context.Context, token string) error {
	if st, ok := r.reset[token]; ok {
		st.used = true
	}
	return nil
}

func (r *fakeTokenRepo) StoreVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	r.verify[token] = &storedToken{userID: userID, expiry: expiry}
	return nil
}

func (r *fakeTokenRepo) ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error) {
	return validate(r.verify, token)
}

func (r *fakeTokenRepo) InvalidateVerificationToken(ctx context.Context, token string) error {
	if st, ok := r.verify[token]; ok {
		st.used = true
	}
	return nil
}

func validate(store map[string]*storedToken, token string) (uuid.UUID, error) {
	st, ok := store[token]
	if !ok || st.used || time.Now().After(st.expiry) {
		return uuid.Nil, errors.Unauthorized("invalid token")
	}
	return st.userID, nil
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *fakeTokenRepo) {
	t.Helper()
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	log := logger.NewLogger(nil)
	jwtSvc := pkgauth.NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	svc := NewService(users, tokens, jwtSvc, email.NewNoopService(log), time.Hour, log)
	return svc, users, tokens
}

func registerRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		Username:  "jdoe",
		Email:     "jdoe@example.com",
		Password:  "correct-horse",
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      "patient",
	}
}

func TestRegister_CreatesActiveUser(t *testing.T) {
	svc, users, _ := newTestService(t)

	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	require.NotNil(t, resp.User)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, model.RolePatient, resp.User.Role)
	assert.True(t, resp.User.IsActive)
	assert.NotEqual(t, "correct-horse", resp.User.PasswordHash)

	stored, err := users.Get(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", stored.Username)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Email = "other@example.com"
	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestRegister_InvalidRole(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := registerRequest()
	req.Role = "superuser"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestRegister_AdminRoleForbidden(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := registerRequest()
	req.Role = "admin"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
}

func TestLogin_ByUsernameAndByEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{Username: "jdoe", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	resp, err = svc.Login(context.Background(), &model.LoginRequest{Username: "jdoe@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.NotNil(t, resp.User.LastLoginAt)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{Username: "jdoe", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	svc, users, _ := newTestService(t)
	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	for i := 0; i < maxLoginAttempts; i++ {
		_, err = svc.Login(context.Background(), &model.LoginRequest{Username: "jdoe", Password: "wrong"})
		require.Error(t, err)
	}

	stored, err := users.Get(context.Background(), resp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LockedUntil)

	// Even the correct password is rejected while locked.
	_, err = svc.Login(context.Background(), &model.LoginRequest{Username: "jdoe", Password: "correct-horse"})
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
}

func TestLogin_LockExpires(t *testing.T) {
	svc, users, _ := newTestService(t)
	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	stored, err := users.Get(context.Background(), resp.User.ID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute)
	stored.LockedUntil = &past
	stored.LoginAttempts = maxLoginAttempts

	_, err = svc.Login(context.Background(), &model.LoginRequest{Username: "jdoe", Password: "correct-horse"})
	assert.NoError(t, err)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc, users, _ := newTestService(t)
	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	require.NoError(t, users.SetActive(context.Background(), resp.User.ID, false))

	_, err = svc.Login(context.Background(), &model.LoginRequest{Username: "jdoe", Password: "correct-horse"})
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken(context.Background(), resp.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
}

func TestLogout_RevokesToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	assert.False(t, svc.IsRevoked(resp.AccessToken))
	require.NoError(t, svc.Logout(context.Background(), resp.AccessToken))
	assert.True(t, svc.IsRevoked(resp.AccessToken))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, tokens := newTestService(t)
	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "jdoe@example.com"))
	require.Len(t, tokens.reset, 1)

	var token string
	for tok := range tokens.reset {
		token = tok
	}

	require.NoError(t, svc.ResetPassword(context.Background(), token, "new-password-1"))

	_, err = svc.Login(context.Background(), &model.LoginRequest{Username: "jdoe", Password: "correct-horse"})
	require.Error(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{Username: "jdoe", Password: "new-password-1"})
	assert.NoError(t, err)

	// Token is single use.
	err = svc.ResetPassword(context.Background(), token, "another-password")
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	svc, _, tokens := newTestService(t)

	require.NoError(t, svc.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, tokens.reset)
}

func TestVerifyEmail(t *testing.T) {
	svc, users, tokens := newTestService(t)
	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	require.Len(t, tokens.verify, 1)
	var token string
	for tok := range tokens.verify {
		token = tok
	}

	require.NoError(t, svc.VerifyEmail(context.Background(), token))

	stored, err := users.Get(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
}
