package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
)

type userStoreStub struct {
	users map[string]*models.User
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{users: make(map[string]*models.User)}
}

func (s *userStoreStub) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, &appErrors.ItemRetrievalError{Entity: "user", ID: id}
}

func (s *userStoreStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, &appErrors.ItemRetrievalError{Entity: "user", ID: email}
}

func (s *userStoreStub) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

type inviteStoreStub struct {
	key     *models.InviteKey
	wantTok string
}

func (s *inviteStoreStub) Issue(_ context.Context, businessID *string, _ time.Duration) (string, *models.InviteKey, error) {
	s.key = &models.InviteKey{ID: "inv-1", BusinessID: businessID, ExpiresAt: time.Now().Add(time.Hour)}
	s.wantTok = "inv-1.secret"
	return s.wantTok, s.key, nil
}

func (s *inviteStoreStub) Redeem(_ context.Context, token string, _ time.Time) (*models.InviteKey, error) {
	if s.key == nil || token != s.wantTok {
		return nil, appErrors.ErrForbidden
	}
	return s.key, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *userStoreStub, *inviteStoreStub) {
	t.Helper()
	users := newUserStoreStub()
	invites := &inviteStoreStub{}
	svc := NewAuthService(users, invites, "test-secret", time.Hour, time.Hour, zap.NewNop())
	return svc, users, invites
}

func TestTokenRoundTrip(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	user := &models.User{ID: "u-1", Email: "a@b.c", FullName: "A B", Role: models.RoleStudent}
	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.UserID)
	require.Equal(t, models.RoleStudent, claims.Role)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not.a.token")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestRegisterWithInviteGrantsSupervisor(t *testing.T) {
	svc, _, invites := newAuthFixture(t)

	businessID := "biz-1"
	token, _, err := svc.IssueInvite(context.Background(), &businessID)
	require.NoError(t, err)
	require.Equal(t, invites.wantTok, token)

	user, err := svc.RegisterWithInvite(context.Background(), token, "sup@b.c", "Sup Visor")
	require.NoError(t, err)
	require.Equal(t, models.RoleSupervisor, user.Role)
	require.NotNil(t, user.BusinessID)
	require.Equal(t, "biz-1", *user.BusinessID)
}

func TestRegisterWithInviteGrantsTeacher(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	token, _, err := svc.IssueInvite(context.Background(), nil)
	require.NoError(t, err)

	user, err := svc.RegisterWithInvite(context.Background(), token, "t@b.c", "Tea Cher")
	require.NoError(t, err)
	require.Equal(t, models.RoleTeacher, user.Role)
	require.Nil(t, user.BusinessID)
}

func TestRegisterWithBadInvite(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.RegisterWithInvite(context.Background(), "inv-1.wrong", "x@b.c", "X")
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}
