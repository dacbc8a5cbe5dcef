package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"shopfront/internal/domain"
	"shopfront/internal/repository"
)

type cartDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	BuyerID         primitive.ObjectID `bson:"buyerId"`
	ProductID       primitive.ObjectID `bson:"productId"`
	OrderedQuantity int                `bson:"orderedQuantity"`
	CreatedAt       time.Time          `bson:"createdAt"`
}

type CartRepository struct {
	coll *mongo.Collection
}

func NewCartRepository(db *mongo.Database) repository.CartRepository {
	return &CartRepository{coll: db.Collection(cartsCollection)}
}

func (r *CartRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "buyerId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create carts buyer index: %w", err)
	}
	return nil
}

func (r *CartRepository) Add(ctx context.Context, item *domain.CartItem) error {
	if item.ID.IsZero() {
		item.ID = domain.NewID()
	}
	item.CreatedAt = time.Now().UTC()

	_, err := r.coll.InsertOne(ctx, cartDoc{
		ID:              item.ID.ObjectID(),
		BuyerID:         item.BuyerID.ObjectID(),
		ProductID:       item.ProductID.ObjectID(),
		OrderedQuantity: item.OrderedQuantity,
		CreatedAt:       item.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

func (r *CartRepository) GetOwned(ctx context.Context, id, buyerID domain.ID) (*domain.CartItem, error) {
	var doc cartDoc
	err := r.coll.FindOne(ctx, ownedFilter(id, buyerID)).Decode(&doc)
	if err != nil {
		return nil, notFound(err, "cart item")
	}
	return &domain.CartItem{
		ID:              domain.IDFromObjectID(doc.ID),
		BuyerID:         domain.IDFromObjectID(doc.BuyerID),
		ProductID:       domain.IDFromObjectID(doc.ProductID),
		OrderedQuantity: doc.OrderedQuantity,
		CreatedAt:       doc.CreatedAt,
	}, nil
}

func (r *CartRepository) DeleteOwned(ctx context.Context, id, buyerID domain.ID) error {
	res, err := r.coll.DeleteOne(ctx, ownedFilter(id, buyerID))
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("cart item: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *CartRepository) DeleteByBuyer(ctx context.Context, buyerID domain.ID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"buyerId": buyerID.ObjectID()})
	if err != nil {
		return 0, fmt.Errorf("flush cart: %w", err)
	}
	return res.DeletedCount, nil
}

func ownedFilter(id, buyerID domain.ID) bson.M {
	return bson.M{"_id": id.ObjectID(), "buyerId": buyerID.ObjectID()}
}
