package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/errs"
	"storefront/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const categoryCollectionName = "categories"

type categoryDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d categoryDocument) model() models.Category {
	return models.Category{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type mongoCategoryRepository struct {
	collection *mongo.Collection
	log        *logrus.Logger
}

func NewMongoCategoryRepository(database *mongo.Database, logger *logrus.Logger) CategoryRepository {
	return &mongoCategoryRepository{collection: database.Collection(categoryCollectionName), log: logger}
}

func (r *mongoCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		r.log.Errorf("Failed to list categories: %v", err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	categories := make([]models.Category, 0, len(docs))
	for _, d := range docs {
		categories = append(categories, d.model())
	}
	return categories, nil
}

func (r *mongoCategoryRepository) Get(ctx context.Context, id string) (*models.Category, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.NotFound("Category not found")
	}

	var doc categoryDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.Wrap(errs.ErrNotFound, err, "Category not found")
		}
		r.log.Errorf("Failed to get category %s: %v", id, err)
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	category := doc.model()
	return &category, nil
}

func (r *mongoCategoryRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	filter := bson.M{"name": name}
	if excludeID != "" {
		if objID, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			filter["_id"] = bson.M{"$ne": objID}
		}
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return count > 0, nil
}

func (r *mongoCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	now := time.Now().UTC()
	doc := categoryDocument{
		ID:          primitive.NewObjectID(),
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.log.Warnf("Attempted to create category with duplicate name: %s", category.Name)
			return errs.Wrap(errs.ErrConflict, err, "Category name already exists")
		}
		r.log.Errorf("Failed to insert category '%s': %v", category.Name, err)
		return fmt.Errorf("failed to insert category: %w", err)
	}
	*category = doc.model()
	return nil
}

func (r *mongoCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	objID, err := primitive.ObjectIDFromHex(category.ID)
	if err != nil {
		return errs.NotFound("Category not found")
	}

	update := bson.M{"$set": bson.M{
		"name":        category.Name,
		"description": category.Description,
		"updatedAt":   time.Now().UTC(),
	}}
	var doc categoryDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errs.Wrap(errs.ErrNotFound, err, "Category not found")
		}
		if mongo.IsDuplicateKeyError(err) {
			return errs.Wrap(errs.ErrConflict, err, "Category name already exists")
		}
		r.log.Errorf("Failed to update category %s: %v", category.ID, err)
		return fmt.Errorf("failed to update category: %w", err)
	}
	*category = doc.model()
	return nil
}

func (r *mongoCategoryRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.NotFound("Category not found")
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		r.log.Errorf("Failed to delete category %s: %v", id, err)
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if result.DeletedCount == 0 {
		return errs.NotFound("Category not found")
	}
	return nil
}
