package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
)

type userStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type inviteStore interface {
	Issue(ctx context.Context, businessID *string, ttl time.Duration) (string, *models.InviteKey, error)
	Redeem(ctx context.Context, token string, now time.Time) (*models.InviteKey, error)
}

// AuthService issues and validates access tokens and handles invite-based
// onboarding. Students sign up with their school account; supervisors and
// teachers need a one-time invite key.
type AuthService struct {
	users      userStore
	invites    inviteStore
	secret     []byte
	expiration time.Duration
	inviteTTL  time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService constructs the service.
func NewAuthService(users userStore, invites inviteStore, secret string, expiration, inviteTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		invites:    invites,
		secret:     []byte(secret),
		expiration: expiration,
		inviteTTL:  inviteTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterStudent creates a student account tied to a school account name.
func (s *AuthService) RegisterStudent(ctx context.Context, email, fullName, schoolAccountName string) (*models.User, error) {
	user := &models.User{
		Email:             email,
		FullName:          fullName,
		Role:              models.RoleStudent,
		SchoolAccountName: &schoolAccountName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterWithInvite redeems an invite key and creates the account it
// grants: business-scoped keys mint supervisors, unscoped keys mint
// teachers.
func (s *AuthService) RegisterWithInvite(ctx context.Context, token, email, fullName string) (*models.User, error) {
	key, err := s.invites.Redeem(ctx, token, s.now().UTC())
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		FullName: fullName,
	}
	if key.BusinessID != nil {
		user.Role = models.RoleSupervisor
		user.BusinessID = key.BusinessID
	} else {
		user.Role = models.RoleTeacher
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("invite redeemed",
		zap.String("invite_id", key.ID),
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// IssueInvite mints a new invite key. A nil business id produces a teacher
// invite.
func (s *AuthService) IssueInvite(ctx context.Context, businessID *string) (string, *models.InviteKey, error) {
	return s.invites.Issue(ctx, businessID, s.inviteTTL)
}

// IssueToken signs an access token for the user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now().UTC()
	claims := models.JWTClaims{
		UserID:   user.ID,
		Role:     user.Role,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

// GetUser loads the full user behind a token's subject.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
