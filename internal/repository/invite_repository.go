package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
	"github.com/skillmatch-hu/skillmatch-api/pkg/typedb"
)

// InviteRepository persists one-time invite keys. Tokens are "<id>.<secret>";
// only the bcrypt hash of the secret is stored, the id part makes the lookup
// cheap.
type InviteRepository struct {
	db typedb.Executor
}

// NewInviteRepository constructs the repository.
func NewInviteRepository(db typedb.Executor) *InviteRepository {
	return &InviteRepository{db: db}
}

const inviteFetch = `
fetch {
  "id": $k.id,
  "key_hash": $k.key-hash,
  "business_id": $k.business-id,
  "expires_at": $k.expires-at,
  "used_at": $k.used-at
};`

const inviteByIDQuery = `
match
$k isa invite-key, has id ~id;` + inviteFetch

const inviteInsertQuery = `
insert
$k isa invite-key,
  has id ~id,
  has key-hash ~key_hash,
  has business-id ~business_id,
  has expires-at ~expires_at;`

const inviteMarkUsedQuery = `
match
$k isa invite-key, has id ~id;
not { $k has used-at $used; };
insert
$k has used-at ~used_at;`

// Issue creates an invite key and returns the one-time token. The raw secret
// never touches the store.
func (r *InviteRepository) Issue(ctx context.Context, businessID *string, ttl time.Duration) (string, *models.InviteKey, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", nil, fmt.Errorf("generate invite secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash invite secret: %w", err)
	}

	key := &models.InviteKey{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		ExpiresAt:  time.Now().UTC().Add(ttl),
	}
	err = r.db.Write(ctx, inviteInsertQuery, typedb.Params{
		"id":          key.ID,
		"key_hash":    string(hash),
		"business_id": businessID,
		"expires_at":  key.ExpiresAt,
	})
	if err != nil {
		return "", nil, fmt.Errorf("create invite key: %w", err)
	}
	return key.ID + "." + secret, key, nil
}

// Redeem validates a token and burns the key. Unknown, expired, used and
// forged tokens all come back as ErrForbidden so callers leak nothing about
// which check failed.
func (r *InviteRepository) Redeem(ctx context.Context, token string, now time.Time) (*models.InviteKey, error) {
	id, secret, ok := strings.Cut(token, ".")
	if !ok {
		return nil, appErrors.ErrForbidden
	}

	docs, err := r.db.Read(ctx, inviteByIDQuery, typedb.Params{"id": id})
	if err != nil {
		return nil, fmt.Errorf("look up invite key: %w", err)
	}
	if len(docs) == 0 {
		return nil, appErrors.ErrForbidden
	}
	doc := docs[0]

	key := &models.InviteKey{
		ID:         doc.String("id"),
		BusinessID: doc.StringPtr("business_id"),
		ExpiresAt:  doc.Time("expires_at"),
		UsedAt:     doc.TimePtr("used_at"),
	}
	if !key.Usable(now) {
		return nil, appErrors.ErrForbidden
	}
	if bcrypt.CompareHashAndPassword([]byte(doc.String("key_hash")), []byte(secret)) != nil {
		return nil, appErrors.ErrForbidden
	}

	if err := r.db.Write(ctx, inviteMarkUsedQuery, typedb.Params{"id": id, "used_at": now}); err != nil {
		return nil, fmt.Errorf("mark invite key used: %w", err)
	}
	used := now
	key.UsedAt = &used
	return key, nil
}
