package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
	"github.com/skillmatch-hu/skillmatch-api/pkg/typedb"
)

// UserRepository persists students, supervisors and teachers. The three user
// kinds are distinct entity types in the graph, so lookups try each subtype
// and report the matching one as the user's role.
type UserRepository struct {
	db typedb.Executor
}

// NewUserRepository constructs the repository.
func NewUserRepository(db typedb.Executor) *UserRepository {
	return &UserRepository{db: db}
}

const userFetch = `
fetch {
  "id": $u.id,
  "email": $u.email,
  "full_name": $u.full-name,
  "image_path": $u.image-path,
  "school_account_name": $u.school-account-name,
  "business_id": $u.business-id
};`

const userByIDQuery = `
match
$u isa %s, has id ~id;` + userFetch

const userByEmailQuery = `
match
$u isa %s, has email ~email;` + userFetch

const userInsertQuery = `
insert
$u isa %s,
  has id ~id,
  has email ~email,
  has full-name ~full_name,
  has image-path ~image_path,
  has school-account-name ~school_account_name,
  has business-id ~business_id;`

// roleLabel maps a role onto its fixed entity label. Labels never come from
// request input; only these three constants reach a query string.
func roleLabel(role models.UserRole) (string, error) {
	switch role {
	case models.RoleStudent:
		return "student", nil
	case models.RoleSupervisor:
		return "supervisor", nil
	case models.RoleTeacher:
		return "teacher", nil
	default:
		return "", fmt.Errorf("unknown user role %q", role)
	}
}

// GetByID resolves a user across all three subtypes.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, role := range []models.UserRole{models.RoleStudent, models.RoleSupervisor, models.RoleTeacher} {
		user, err := r.getOne(ctx, role, userByIDQuery, typedb.Params{"id": id})
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, &appErrors.ItemRetrievalError{Entity: "user", ID: id}
}

// GetByEmail resolves a user by email across all three subtypes.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, role := range []models.UserRole{models.RoleStudent, models.RoleSupervisor, models.RoleTeacher} {
		user, err := r.getOne(ctx, role, userByEmailQuery, typedb.Params{"email": email})
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, &appErrors.ItemRetrievalError{Entity: "user", ID: email}
}

func (r *UserRepository) getOne(ctx context.Context, role models.UserRole, template string, params typedb.Params) (*models.User, error) {
	label, err := roleLabel(role)
	if err != nil {
		return nil, err
	}
	docs, err := r.db.Read(ctx, fmt.Sprintf(template, label), params)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", label, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return mapUser(docs[0], role), nil
}

// Create inserts a user under the subtype matching its role. Role-specific
// attributes absent from the model are elided from the insert.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	label, err := roleLabel(user.Role)
	if err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if existing, err := r.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		return &appErrors.KeyConstraintError{Entity: "user", Key: "email", Value: user.Email}
	}

	err = r.db.Write(ctx, fmt.Sprintf(userInsertQuery, label), typedb.Params{
		"id":                  user.ID,
		"email":               user.Email,
		"full_name":           user.FullName,
		"image_path":          user.ImagePath,
		"school_account_name": user.SchoolAccountName,
		"business_id":         user.BusinessID,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", label, err)
	}
	return nil
}

func mapUser(doc typedb.Document, role models.UserRole) *models.User {
	return &models.User{
		ID:                doc.String("id"),
		Role:              role,
		Email:             doc.String("email"),
		FullName:          doc.String("full_name"),
		ImagePath:         doc.StringPtr("image_path"),
		SchoolAccountName: doc.StringPtr("school_account_name"),
		BusinessID:        doc.StringPtr("business_id"),
	}
}
