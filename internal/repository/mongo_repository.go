package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection(cartsCollection),
	}
}

func (m *mongoCartRepository) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"session_id": sessionID}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := m.collection.FindOne(ctx, filter, opts).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *mongoCartRepository) CreateCart(ctx context.Context, cart *domain.Cart) error {
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	_, err := m.collection.InsertOne(ctx, cart)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrCartExists
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}

	return nil
}

func (m *mongoCartRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	filter := bson.M{"_id": cart.ID, "version": cart.Version}

	next := *cart
	next.Version = cart.Version + 1

	result, err := m.collection.ReplaceOne(ctx, filter, next)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrCartExists
		}
		return fmt.Errorf("failed to save cart: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrCartModified
	}

	cart.Version = next.Version
	return nil
}

func (m *mongoCartRepository) DeleteCart(ctx context.Context, cartID string) error {
	filter := bson.M{"_id": cartID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return domain.ErrCartNotFound
	}

	return nil
}

func (m *mongoCartRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"status":     string(domain.CartStatusActive),
		"updated_at": bson.M{"$lt": cutoff},
	}
	update := bson.M{
		"$set": bson.M{"status": string(domain.CartStatusExpired)},
		"$inc": bson.M{"version": 1},
	}

	result, err := m.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale carts: %w", err)
	}

	return result.ModifiedCount, nil
}

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection(ordersCollection),
	}
}

func (m *mongoOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	_, err := m.collection.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrOrderExists
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (m *mongoOrderRepository) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var order domain.Order

	err := m.collection.FindOne(ctx, bson.M{"order_number": orderNumber}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("query order by number: %w", err)
	}

	return &order, nil
}

func (m *mongoOrderRepository) UpdateOrderStatus(ctx context.Context, orderNumber string, update domain.OrderStatusUpdate) error {
	filter := bson.M{"order_number": orderNumber}

	result, err := m.collection.UpdateOne(ctx, filter, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
