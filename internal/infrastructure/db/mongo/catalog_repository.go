package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// CatalogRepository stores departments and categories in two collections.
type CatalogRepository struct {
	departments *mongo.Collection
	categories  *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		departments: db.Collection(collectionDepartments),
		categories:  db.Collection(collectionCategories),
	}
}

func (r *CatalogRepository) CreateDepartment(ctx context.Context, d *domain.Department) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.departments.InsertOne(ctx, d)
	return err
}

func (r *CatalogRepository) FindDepartment(ctx context.Context, id string) (*domain.Department, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Department
	if err := r.departments.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *CatalogRepository) ListDepartments(ctx context.Context) ([]*domain.Department, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.departments.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*domain.Department, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepository) DeleteDepartment(ctx context.Context, id string) error {
	return deleteByID(ctx, r.departments, id)
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.categories.InsertOne(ctx, c)
	return err
}

// ListCategories returns every category, or only those of departmentID when set.
func (r *CatalogRepository) ListCategories(ctx context.Context, departmentID string) ([]*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if departmentID != "" {
		filter["department_id"] = departmentID
	}
	cur, err := r.categories.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*domain.Category, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepository) DeleteCategory(ctx context.Context, id string) error {
	return deleteByID(ctx, r.categories, id)
}

func deleteByID(ctx context.Context, col *mongo.Collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
