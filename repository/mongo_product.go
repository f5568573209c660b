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

const productCollectionName = "products"

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Price       float64            `bson:"price"`
	Description string             `bson:"description"`
	Img         string             `bson:"img"`
	ImgTitle    string             `bson:"imgTitle"`
	Alt         string             `bson:"alt"`
	CategoryID  primitive.ObjectID `bson:"categoryId"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d productDocument) model() models.Product {
	return models.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Img:         d.Img,
		ImgTitle:    d.ImgTitle,
		Alt:         d.Alt,
		CategoryID:  d.CategoryID.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type mongoProductRepository struct {
	products   *mongo.Collection
	categories *mongo.Collection
	log        *logrus.Logger
}

func NewMongoProductRepository(database *mongo.Database, logger *logrus.Logger) ProductRepository {
	return &mongoProductRepository{
		products:   database.Collection(productCollectionName),
		categories: database.Collection(categoryCollectionName),
		log:        logger,
	}
}

// productFilter returns ok=false when the category id cannot match any
// document, so callers can short-circuit to an empty result.
func productFilter(filter models.ProductFilter) (bson.M, bool) {
	query := bson.M{}
	if filter.CategoryID != "" {
		objID, err := primitive.ObjectIDFromHex(filter.CategoryID)
		if err != nil {
			return nil, false
		}
		query["categoryId"] = objID
	}
	return query, true
}

func (r *mongoProductRepository) List(ctx context.Context, filter models.ProductFilter, offset, limit int) ([]models.Product, int64, error) {
	query, ok := productFilter(filter)
	if !ok {
		return []models.Product{}, 0, nil
	}

	total, err := r.products.CountDocuments(ctx, query)
	if err != nil {
		r.log.Errorf("Failed to count products: %v", err)
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.products.Find(ctx, query, findOptions)
	if err != nil {
		r.log.Errorf("Failed to list products: %v", err)
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}
	products := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.model())
	}
	if err := r.expand(ctx, products, false); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *mongoProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.NotFound("Product not found")
	}

	var doc productDocument
	if err := r.products.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.Wrap(errs.ErrNotFound, err, "Product not found")
		}
		r.log.Errorf("Failed to get product %s: %v", id, err)
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	products := []models.Product{doc.model()}
	if err := r.expand(ctx, products, true); err != nil {
		return nil, err
	}
	return &products[0], nil
}

func (r *mongoProductRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	query, ok := productFilter(models.ProductFilter{CategoryID: categoryID})
	if !ok {
		return 0, nil
	}
	count, err := r.products.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count products for category: %w", err)
	}
	return count, nil
}

func (r *mongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	categoryID, err := primitive.ObjectIDFromHex(product.CategoryID)
	if err != nil {
		return errs.Validation("Category not found")
	}
	now := time.Now().UTC()
	doc := productDocument{
		ID:          primitive.NewObjectID(),
		Name:        product.Name,
		Price:       product.Price,
		Description: product.Description,
		Img:         product.Img,
		ImgTitle:    product.ImgTitle,
		Alt:         product.Alt,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.products.InsertOne(ctx, doc); err != nil {
		r.log.Errorf("Failed to insert product '%s': %v", product.Name, err)
		return fmt.Errorf("failed to insert product: %w", err)
	}
	*product = doc.model()
	return nil
}

func (r *mongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	objID, err := primitive.ObjectIDFromHex(product.ID)
	if err != nil {
		return errs.NotFound("Product not found")
	}
	categoryID, err := primitive.ObjectIDFromHex(product.CategoryID)
	if err != nil {
		return errs.Validation("Category not found")
	}

	set := bson.M{
		"name":        product.Name,
		"price":       product.Price,
		"description": product.Description,
		"categoryId":  categoryID,
		"imgTitle":    product.ImgTitle,
		"alt":         product.Alt,
		"updatedAt":   time.Now().UTC(),
	}
	if product.Img != "" {
		set["img"] = product.Img
	}

	var doc productDocument
	err = r.products.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errs.Wrap(errs.ErrNotFound, err, "Product not found")
		}
		r.log.Errorf("Failed to update product %s: %v", product.ID, err)
		return fmt.Errorf("failed to update product: %w", err)
	}
	*product = doc.model()
	return nil
}

func (r *mongoProductRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.NotFound("Product not found")
	}
	result, err := r.products.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		r.log.Errorf("Failed to delete product %s: %v", id, err)
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return errs.NotFound("Product not found")
	}
	return nil
}

func (r *mongoProductRepository) expand(ctx context.Context, products []models.Product, withDescription bool) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, 0, len(products))
	for _, p := range products {
		if objID, err := primitive.ObjectIDFromHex(p.CategoryID); err == nil {
			ids = append(ids, objID)
		}
	}

	projection := bson.M{"name": 1}
	if withDescription {
		projection["description"] = 1
	}
	cursor, err := r.categories.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(projection))
	if err != nil {
		return fmt.Errorf("failed to load product categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return fmt.Errorf("failed to decode product categories: %w", err)
	}
	refs := make(map[string]*models.CategoryRef, len(docs))
	for _, d := range docs {
		refs[d.ID.Hex()] = &models.CategoryRef{ID: d.ID.Hex(), Name: d.Name, Description: d.Description}
	}
	for i := range products {
		products[i].Category = refs[products[i].CategoryID]
	}
	return nil
}
