package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
	"github.com/skillmatch-hu/skillmatch-api/pkg/typedb"
)

// BusinessRepository persists businesses in the graph.
type BusinessRepository struct {
	db typedb.Executor
}

// NewBusinessRepository constructs the repository.
func NewBusinessRepository(db typedb.Executor) *BusinessRepository {
	return &BusinessRepository{db: db}
}

const businessFetch = `
fetch {
  "id": $b.id,
  "name": $b.name,
  "description": $b.description,
  "image_path": $b.image-path,
  "locations": [ $b.location ],
  "archived": $b.archived
};`

const businessByIDQuery = `
match
$b isa business, has id ~id;` + businessFetch

const businessAllQuery = `
match
$b isa business;` + businessFetch

const businessInsertQuery = `
insert
$b isa business,
  has id ~id,
  has name ~name,
  has description ~description,
  has image-path ~image_path,
  has archived false;`

const businessLocationInsertQuery = `
match
$b isa business, has id ~id;
insert
$b has location ~location;`

const businessArchiveQuery = `
match
$b isa business, has id ~id;
update
$b has archived ~archived;`

// GetByID loads a business expected to exist.
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*models.Business, error) {
	docs, err := r.db.Read(ctx, businessByIDQuery, typedb.Params{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}
	if len(docs) == 0 {
		return nil, &appErrors.ItemRetrievalError{Entity: "business", ID: id}
	}
	return mapBusiness(docs[0]), nil
}

// GetAll returns every business; an empty catalog is not an error.
func (r *BusinessRepository) GetAll(ctx context.Context) ([]models.Business, error) {
	docs, err := r.db.Read(ctx, businessAllQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	out := make([]models.Business, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *mapBusiness(doc))
	}
	return out, nil
}

// Create inserts a business with at least one location.
func (r *BusinessRepository) Create(ctx context.Context, business *models.Business) error {
	if business.ID == "" {
		business.ID = uuid.NewString()
	}
	if existing, _ := r.GetByID(ctx, business.ID); existing != nil {
		return &appErrors.KeyConstraintError{Entity: "business", Key: "id", Value: business.ID}
	}

	err := r.db.Write(ctx, businessInsertQuery, typedb.Params{
		"id":          business.ID,
		"name":        business.Name,
		"description": business.Description,
		"image_path":  business.ImagePath,
	})
	if err != nil {
		return fmt.Errorf("create business: %w", err)
	}
	for _, loc := range business.Locations {
		err := r.db.Write(ctx, businessLocationInsertQuery, typedb.Params{
			"id":       business.ID,
			"location": loc,
		})
		if err != nil {
			return fmt.Errorf("attach business location: %w", err)
		}
	}
	return nil
}

// SetArchived flips the archive flag.
func (r *BusinessRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	err := r.db.Write(ctx, businessArchiveQuery, typedb.Params{"id": id, "archived": archived})
	if err != nil {
		return fmt.Errorf("archive business: %w", err)
	}
	return nil
}

func mapBusiness(doc typedb.Document) *models.Business {
	return &models.Business{
		ID:          doc.String("id"),
		Name:        doc.String("name"),
		Description: doc.String("description"),
		ImagePath:   doc.String("image_path"),
		Locations:   doc.Strings("locations"),
		Archived:    doc.Bool("archived"),
	}
}
