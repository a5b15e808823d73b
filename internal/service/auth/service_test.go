package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalize/scheduler-api/internal/model"
	pkgauth "github.com/dentalize/scheduler-api/pkg/auth"
	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
	"github.com/dentalize/scheduler-api/pkg/logger"
	"github.com/dentalize/scheduler-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFound("user", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

type fakeTokenRepo struct {
	tokens map[string]uuid.UUID
	used   map[string]bool
}

func (r *fakeTokenRepo) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	r.tokens[token] = userID
	return nil
}

func (r *fakeTokenRepo) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	id, ok := r.tokens[token]
	if !ok || r.used[token] {
		return uuid.Nil, apperrors.NewNotFound("token", nil)
	}
	return id, nil
}

func (r *fakeTokenRepo) InvalidateToken(ctx context.Context, token string) error {
	r.used[token] = true
	return nil
}

type fakeMailer struct {
	sentTo    string
	sentToken string
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	m.sentTo = to
	m.sentToken = token
	return nil
}

func newTestAuth(t *testing.T) (*Service, *fakeUserRepo, *fakeMailer, *security.Hasher) {
	t.Helper()

	users := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	tokens := &fakeTokenRepo{tokens: make(map[string]uuid.UUID), used: make(map[string]bool)}
	mailer := &fakeMailer{}
	hasher := security.NewHasher(4)
	jwtService := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})

	svc := NewService(users, tokens, jwtService, hasher, mailer, time.Hour, logger.NewLogger(nil))
	return svc, users, mailer, hasher
}

func seedUser(t *testing.T, users *fakeUserRepo, hasher *security.Hasher, email, password string) *model.User {
	t.Helper()

	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	user := &model.User{Email: email, Name: "Dr. Test", PasswordHash: hash}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestLogin(t *testing.T) {
	svc, users, _, hasher := newTestAuth(t)
	seedUser(t, users, hasher, "dentist@example.com", "correct-horse")

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "dentist@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, users, _, hasher := newTestAuth(t)
	seedUser(t, users, hasher, "dentist@example.com", "correct-horse")

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "dentist@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))

	// Unknown email gets the same answer as a wrong password.
	_, err2 := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "wrong",
	})
	require.Error(t, err2)
	assert.Equal(t, err.Error(), err2.Error())
}

func TestRefresh(t *testing.T) {
	svc, users, _, hasher := newTestAuth(t)
	seedUser(t, users, hasher, "dentist@example.com", "correct-horse")

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "dentist@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: tokens.AccessToken,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, users, mailer, hasher := newTestAuth(t)
	seedUser(t, users, hasher, "dentist@example.com", "correct-horse")

	require.NoError(t, svc.RequestPasswordReset(context.Background(), &model.ResetRequest{
		Email: "dentist@example.com",
	}))
	require.NotEmpty(t, mailer.sentToken)
	assert.Equal(t, "dentist@example.com", mailer.sentTo)

	require.NoError(t, svc.ResetPassword(context.Background(), mailer.sentToken, "new-password-1"))

	// Old password no longer works, new one does.
	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "dentist@example.com",
		Password: "correct-horse",
	})
	assert.Error(t, err)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "dentist@example.com",
		Password: "new-password-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	// The token is single use.
	err = svc.ResetPassword(context.Background(), mailer.sentToken, "another-password")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	svc, _, mailer, _ := newTestAuth(t)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), &model.ResetRequest{
		Email: "nobody@example.com",
	}))
	assert.Empty(t, mailer.sentToken)
}

func TestResetPasswordRejectsShortPassword(t *testing.T) {
	svc, users, mailer, hasher := newTestAuth(t)
	seedUser(t, users, hasher, "dentist@example.com", "correct-horse")

	require.NoError(t, svc.RequestPasswordReset(context.Background(), &model.ResetRequest{
		Email: "dentist@example.com",
	}))

	err := svc.ResetPassword(context.Background(), mailer.sentToken, "short")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}
