// Package catalog is the read-only product directory the cart core consults
// for price, availability and inventory.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductDirectory returns domain.ErrProductNotFound for unknown ids.
type ProductDirectory interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ProductExists(ctx context.Context, id string) (bool, error)
}

type mongoDirectory struct {
	products *mongo.Collection
}

func NewMongoDirectory(db *mongo.Database) ProductDirectory {
	return &mongoDirectory{products: db.Collection("products")}
}

func (d *mongoDirectory) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := d.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (d *mongoDirectory) ProductExists(ctx context.Context, id string) (bool, error) {
	n, err := d.products.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count products: %w", err)
	}
	return n > 0, nil
}
